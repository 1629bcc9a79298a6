package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"duelboard/internal/domain"
	"duelboard/internal/engine"
	"duelboard/internal/registry"
	"duelboard/internal/wire"

	"github.com/heroiclabs/nakama-common/runtime"
)

// matchState is the per-match runtime state. The room document itself lives
// in the registry; the match only tracks its code and connected presences.
type matchState struct {
	RoomID    string
	Presences map[string]runtime.Presence
}

// matchLabel is advertised for MatchList queries.
type matchLabel struct {
	Game   string `json:"game"`
	RoomID string `json:"room_id"`
	Open   int    `json:"open"`
}

// matchHandler implements runtime.Match. One match instance hosts one
// room's transport group; its loop is the room's serialized execution
// context for intents.
type matchHandler struct {
	reg *registry.Registry
}

// MatchInit binds the match to the room named in its creation params.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	roomID, _ := params["room_id"].(string)
	if roomID == "" || !mh.reg.Exists(roomID) {
		logger.Error("MatchInit: no live room for params %v", params)
		return nil, 0, ""
	}

	state := &matchState{
		RoomID:    roomID,
		Presences: make(map[string]runtime.Presence),
	}

	label, err := mh.buildLabel(roomID)
	if err != nil {
		logger.Error("MatchInit: failed to build label: %v", err)
		return nil, 0, ""
	}

	tickRate := 1
	return state, tickRate, label
}

// MatchJoinAttempt admits only players holding a seat in the room; clients
// claim seats through the join_room RPC first.
func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	s, ok := state.(*matchState)
	if !ok {
		return state, false, "state not found"
	}

	_, seated, err := mh.reg.ResolveSeat(s.RoomID, presence.GetUserId())
	if err != nil {
		return s, false, "room_closed"
	}
	if !seated {
		return s, false, "not_seated"
	}
	return s, true, ""
}

// MatchJoin records presences and brings every member up to date.
func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	s, ok := state.(*matchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		s.Presences[p.GetUserId()] = p
		logger.Debug("MatchJoin: %s joined room %s", p.GetUserId(), s.RoomID)
	}

	mh.broadcastRoomState(s, dispatcher, logger)
	mh.updateLabel(s, dispatcher, logger)
	return s
}

// MatchLeave drops presences from the transport group only. Seat occupancy
// and room state are untouched, so a reconnecting player finds their seat.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	s, ok := state.(*matchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(s.Presences, p.GetUserId())
		logger.Debug("MatchLeave: %s left room %s", p.GetUserId(), s.RoomID)
	}
	return s
}

// MatchLoop processes intents in receipt order and watches for the room's
// teardown.
func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	s, ok := state.(*matchState)
	if !ok {
		return state
	}

	// Opportunistic idle eviction; throttled inside the registry.
	mh.reg.Sweep()

	if !mh.reg.Exists(s.RoomID) {
		closed, _ := json.Marshal(wire.RoomClosed{RoomID: s.RoomID})
		_ = dispatcher.BroadcastMessage(wire.OpRoomClosed, closed, nil, nil, true)
		logger.Info("MatchLoop: room %s closed, terminating match", s.RoomID)
		return nil
	}

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case wire.OpIntent:
			mh.handleIntent(s, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: unknown opcode %d from %s", msg.GetOpCode(), msg.GetUserId())
		}
	}

	return s
}

func (mh *matchHandler) handleIntent(s *matchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	var envelope wire.IntentEnvelope
	if err := json.Unmarshal(msg.GetData(), &envelope); err != nil {
		logger.Warn("handleIntent: malformed envelope from %s: %v", senderID, err)
		snapshot, snapErr := mh.reg.StateSnapshot(s.RoomID)
		if snapErr != nil {
			return
		}
		role, _, _ := mh.reg.ResolveSeat(s.RoomID, senderID)
		rej := engine.Reject(engine.CodeUnknownIntentType, "malformed intent envelope")
		mh.sendRejection(s, dispatcher, logger, senderID, role, rej, snapshot)
		return
	}

	intent, rej := engine.Decode(envelope.Type, envelope.Payload)
	if rej == nil {
		var after *domain.GameState
		var role domain.Role
		var err error
		after, role, rej, err = mh.reg.ApplyIntent(s.RoomID, senderID, envelope.BaseVersion, intent)
		if err != nil {
			// Room vanished between the existence check and the apply;
			// the next tick broadcasts room_closed.
			logger.Warn("handleIntent: %v", err)
			return
		}
		if rej == nil {
			mh.sendRoomState(s, dispatcher, logger, after, "", nil)
			return
		}
		logger.Debug("handleIntent: %s rejected for %s: %v", envelope.Type, senderID, rej)
		mh.sendRejection(s, dispatcher, logger, senderID, role, rej, after)
		return
	}

	// Undecodable intents never reach the room; report against the
	// current canonical state.
	logger.Debug("handleIntent: %s undecodable from %s: %v", envelope.Type, senderID, rej)
	snapshot, err := mh.reg.StateSnapshot(s.RoomID)
	if err != nil {
		return
	}
	role, _, _ := mh.reg.ResolveSeat(s.RoomID, senderID)
	mh.sendRejection(s, dispatcher, logger, senderID, role, rej, snapshot)
}

// sendRoomState broadcasts the canonical document, or sends it to the given
// recipients only when a target list is provided.
func (mh *matchHandler) sendRoomState(s *matchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, state *domain.GameState, role domain.Role, recipients []runtime.Presence) {
	payload, err := json.Marshal(wire.RoomState{RoomID: s.RoomID, State: state, Role: role})
	if err != nil {
		logger.Error("sendRoomState: marshal failed: %v", err)
		return
	}
	_ = dispatcher.BroadcastMessage(wire.OpRoomState, payload, recipients, nil, true)
}

// sendRejection reports a refusal to the sender only, then repairs the
// sender's local copy with the canonical state.
func (mh *matchHandler) sendRejection(s *matchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string, role domain.Role, rej *engine.Rejection, state *domain.GameState) {
	presence, ok := s.Presences[senderID]
	if !ok {
		logger.Warn("sendRejection: no presence for %s", senderID)
		return
	}
	target := []runtime.Presence{presence}

	payload, err := json.Marshal(wire.IntentRejected{
		Error:  string(rej.Code),
		Reason: rej.Reason,
		State:  state,
	})
	if err != nil {
		logger.Error("sendRejection: marshal failed: %v", err)
		return
	}
	_ = dispatcher.BroadcastMessage(wire.OpIntentRejected, payload, target, nil, true)
	mh.sendRoomState(s, dispatcher, logger, state, role, target)
}

func (mh *matchHandler) broadcastRoomState(s *matchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	snapshot, err := mh.reg.StateSnapshot(s.RoomID)
	if err != nil {
		logger.Warn("broadcastRoomState: %v", err)
		return
	}
	mh.sendRoomState(s, dispatcher, logger, snapshot, "", nil)
}

func (mh *matchHandler) buildLabel(roomID string) (string, error) {
	snapshot, err := mh.reg.StateSnapshot(roomID)
	if err != nil {
		return "", err
	}
	open := 0
	for _, role := range []domain.Role{domain.RoleP1, domain.RoleP2} {
		if snapshot.Seat(role).Open() {
			open++
		}
	}
	b, err := json.Marshal(matchLabel{Game: labelGame, RoomID: roomID, Open: open})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (mh *matchHandler) updateLabel(s *matchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := mh.buildLabel(s.RoomID)
	if err != nil {
		logger.Warn("updateLabel: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("updateLabel: failed to update: %v", err)
	}
}

// MatchTerminate runs on match shutdown; the registry owns room lifecycle,
// so nothing to do.
func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	return state
}

// MatchSignal handles out-of-band signals; unused.
func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
