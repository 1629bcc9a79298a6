package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"duelboard/internal/domain"
	"duelboard/internal/registry"
	"duelboard/internal/voice"
	"duelboard/internal/wire"

	"github.com/heroiclabs/nakama-common/runtime"
)

// gRPC-style status codes Nakama surfaces to clients.
const (
	errCodeInvalidArgument    = 3
	errCodeNotFound           = 5
	errCodePermissionDenied   = 7
	errCodeResourceExhausted  = 8
	errCodeFailedPrecondition = 9
	errCodeUnimplemented      = 12
	errCodeInternal           = 13
	errCodeUnauthenticated    = 16
)

// matchService is the slice of Nakama match management the RPCs need.
// Narrowed to an interface so tests can fake it, same as the other ports.
type matchService interface {
	Create(ctx context.Context, roomID string) (string, error)
	Find(ctx context.Context, roomID string) (string, error)
}

// nakamaMatches implements matchService against the live runtime.
type nakamaMatches struct {
	nk runtime.NakamaModule
}

func (m *nakamaMatches) Create(ctx context.Context, roomID string) (string, error) {
	return m.nk.MatchCreate(ctx, MatchNameRoom, map[string]interface{}{"room_id": roomID})
}

func (m *nakamaMatches) Find(ctx context.Context, roomID string) (string, error) {
	query := fmt.Sprintf("+label.game:%s +label.room_id:%s", labelGame, roomID)
	limit := 1
	matches, err := m.nk.MatchList(ctx, limit, true, "", nil, nil, query)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", nil
	}
	return matches[0].MatchId, nil
}

// server carries the injected collaborators for every RPC.
type server struct {
	reg     *registry.Registry
	voice   *voice.Service
	matches matchService
}

func (s *server) registerRPCs(initializer runtime.Initializer) error {
	handlers := map[string]func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error){
		RpcCreateRoom:     s.rpcCreateRoom,
		RpcJoinRoom:       s.rpcJoinRoom,
		RpcDeleteRoom:     s.rpcDeleteRoom,
		RpcDeleteAllRooms: s.rpcDeleteAllRooms,
		RpcRoomsList:      s.rpcRoomsList,
		RpcVoiceToken:     s.rpcVoiceToken,
	}
	for id, handler := range handlers {
		if err := initializer.RegisterRpc(id, handler); err != nil {
			return err
		}
	}
	return nil
}

func callerID(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if !ok || userID == "" {
		return "", runtime.NewError("no user session", errCodeUnauthenticated)
	}
	return userID, nil
}

func callerName(ctx context.Context, fallback string) string {
	if name, ok := ctx.Value(runtime.RUNTIME_CTX_USERNAME).(string); ok && name != "" {
		return name
	}
	return fallback
}

func marshalResponse(logger runtime.Logger, v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Error("rpc: failed to marshal response: %v", err)
		return "", runtime.NewError("internal error", errCodeInternal)
	}
	return string(b), nil
}

func (s *server) rpcCreateRoom(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}

	var req wire.CreateRoomRequest
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("invalid payload", errCodeInvalidArgument)
		}
	}

	code, state, err := s.reg.CreateRoom(userID, callerName(ctx, req.PlayerName), req.RoomID)
	switch {
	case errors.Is(err, registry.ErrInvalidCode):
		return "", runtime.NewError("room code contains invalid characters", errCodeInvalidArgument)
	case errors.Is(err, registry.ErrCodeInUse):
		return "", runtime.NewError("room code already in use", errCodeFailedPrecondition)
	case errors.Is(err, registry.ErrRoomLimit):
		return "", runtime.NewError("room limit reached", errCodeResourceExhausted)
	case err != nil:
		logger.Error("create_room: %v", err)
		return "", runtime.NewError("internal error", errCodeInternal)
	}

	matchID, err := s.matches.Create(ctx, code)
	if err != nil {
		// No match means no event stream; take the room back down.
		s.reg.DeleteRoom(code)
		logger.Error("create_room: match create failed: %v", err)
		return "", runtime.NewError("internal error", errCodeInternal)
	}

	logger.Info("create_room: %s created room %s (match %s)", userID, code, matchID)
	return marshalResponse(logger, wire.CreateRoomResponse{
		OK:      true,
		RoomID:  code,
		Role:    domain.RoleP1,
		State:   state,
		MatchID: matchID,
	})
}

func (s *server) rpcJoinRoom(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}

	var req wire.JoinRoomRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil || req.RoomID == "" {
		return "", runtime.NewError("invalid payload", errCodeInvalidArgument)
	}

	var preferred domain.Role
	if req.PreferredRole != "" {
		role, err := domain.ParseRole(req.PreferredRole)
		if err != nil {
			return "", runtime.NewError("unknown preferred role", errCodeInvalidArgument)
		}
		preferred = role
	}

	role, state, err := s.reg.JoinRoom(req.RoomID, userID, callerName(ctx, req.PlayerName), preferred)
	switch {
	case errors.Is(err, registry.ErrRoomNotFound):
		return "", runtime.NewError("room not found", errCodeNotFound)
	case errors.Is(err, registry.ErrRoomFull):
		return "", runtime.NewError("room full", errCodeFailedPrecondition)
	case err != nil:
		logger.Error("join_room: %v", err)
		return "", runtime.NewError("internal error", errCodeInternal)
	}

	roomID := registry.NormalizeCode(req.RoomID)
	matchID, err := s.matches.Find(ctx, roomID)
	if err != nil {
		logger.Error("join_room: match lookup failed: %v", err)
		return "", runtime.NewError("internal error", errCodeInternal)
	}
	if matchID == "" {
		// The room outlived its match (e.g. node restart); host a new one.
		matchID, err = s.matches.Create(ctx, roomID)
		if err != nil {
			logger.Error("join_room: match create failed: %v", err)
			return "", runtime.NewError("internal error", errCodeInternal)
		}
	}

	logger.Info("join_room: %s seated as %s in room %s", userID, role, roomID)
	return marshalResponse(logger, wire.JoinRoomResponse{
		OK:      true,
		RoomID:  roomID,
		Role:    role,
		State:   state,
		MatchID: matchID,
	})
}

func (s *server) rpcDeleteRoom(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	if _, err := callerID(ctx); err != nil {
		return "", err
	}

	var req wire.DeleteRoomRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil || req.RoomID == "" {
		return "", runtime.NewError("invalid payload", errCodeInvalidArgument)
	}

	// Idempotent: deleting an unknown room still acks. The room's match
	// notices the registry entry is gone and closes itself.
	if s.reg.DeleteRoom(req.RoomID) {
		logger.Info("delete_room: room %s deleted", registry.NormalizeCode(req.RoomID))
	}
	return marshalResponse(logger, wire.Ack{OK: true})
}

func (s *server) rpcDeleteAllRooms(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	if _, err := callerID(ctx); err != nil {
		return "", err
	}

	n := s.reg.DeleteAllRooms()
	logger.Info("delete_all_rooms: %d rooms deleted", n)
	return marshalResponse(logger, wire.Ack{OK: true})
}

func (s *server) rpcRoomsList(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	rooms := s.reg.ListOpenRooms()
	return marshalResponse(logger, wire.RoomsList{Rooms: rooms})
}

func (s *server) rpcVoiceToken(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	if !s.voice.Enabled() {
		return "", runtime.NewError("voice chat is not configured", errCodeUnimplemented)
	}

	var req wire.VoiceTokenRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("invalid payload", errCodeInvalidArgument)
	}

	if req.Action == voice.ActionJoin {
		// Only seated players may enter a room's voice channel.
		_, seated, err := s.reg.ResolveSeat(req.RoomID, userID)
		if errors.Is(err, registry.ErrRoomNotFound) {
			return "", runtime.NewError("room not found", errCodeNotFound)
		}
		if err != nil {
			logger.Error("voice_token: %v", err)
			return "", runtime.NewError("internal error", errCodeInternal)
		}
		if !seated {
			return "", runtime.NewError("no seat in room", errCodePermissionDenied)
		}
	}

	token, err := s.voice.GenerateToken(userID, req.Action, registry.NormalizeCode(req.RoomID))
	if err != nil {
		return "", runtime.NewError(err.Error(), errCodeInvalidArgument)
	}
	return marshalResponse(logger, wire.VoiceTokenResponse{Token: token})
}
