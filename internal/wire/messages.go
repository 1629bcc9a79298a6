// Package wire defines the JSON payloads exchanged with clients. The
// transport envelope (Nakama match data and RPC strings) is the adapter's
// concern; these are the shapes inside it.
package wire

import (
	"encoding/json"

	"duelboard/internal/domain"
	"duelboard/internal/registry"
)

// IntentEnvelope is the client's mutation request, sent as match data under
// OpIntent. Payload is decoded per the type discriminator.
type IntentEnvelope struct {
	Type        string          `json:"type"`
	BaseVersion int             `json:"baseVersion"`
	Payload     json.RawMessage `json:"payload"`
}

// RoomState is the canonical document broadcast after every accepted intent
// and sent correctively after a rejection. Role is set only on corrective
// sends so the receiver knows which seat the repair is for.
type RoomState struct {
	RoomID string            `json:"roomId"`
	State  *domain.GameState `json:"state"`
	Role   domain.Role       `json:"role,omitempty"`
}

// IntentRejected reports a refused intent to its sender only, carrying the
// untouched canonical state for resynchronization.
type IntentRejected struct {
	Error  string            `json:"error"`
	Reason string            `json:"reason,omitempty"`
	State  *domain.GameState `json:"state"`
}

// RoomClosed notifies remaining members that their room was torn down.
type RoomClosed struct {
	RoomID string `json:"roomId"`
}

// CreateRoomRequest is the create_room RPC payload. The player's identity
// comes from the session, never from the payload.
type CreateRoomRequest struct {
	PlayerName string `json:"playerName"`
	RoomID     string `json:"roomId,omitempty"`
}

// CreateRoomResponse acknowledges room creation. MatchID names the Nakama
// match the client joins for the room's event stream.
type CreateRoomResponse struct {
	OK      bool              `json:"ok"`
	RoomID  string            `json:"roomId"`
	Role    domain.Role       `json:"role"`
	State   *domain.GameState `json:"state"`
	MatchID string            `json:"matchId"`
}

// JoinRoomRequest is the join_room RPC payload.
type JoinRoomRequest struct {
	RoomID        string `json:"roomId"`
	PlayerName    string `json:"playerName"`
	PreferredRole string `json:"preferredRole,omitempty"`
}

// JoinRoomResponse acknowledges seating (or reseating) a player.
type JoinRoomResponse struct {
	OK      bool              `json:"ok"`
	RoomID  string            `json:"roomId"`
	Role    domain.Role       `json:"role"`
	State   *domain.GameState `json:"state"`
	MatchID string            `json:"matchId"`
}

// DeleteRoomRequest is the delete_room RPC payload.
type DeleteRoomRequest struct {
	RoomID string `json:"roomId"`
}

// Ack is the minimal RPC acknowledgement.
type Ack struct {
	OK bool `json:"ok"`
}

// RoomsList is the rooms_list RPC response.
type RoomsList struct {
	Rooms []registry.Summary `json:"rooms"`
}

// VoiceTokenRequest asks for a voice-chat token. Join requires RoomID.
type VoiceTokenRequest struct {
	Action string `json:"action"`
	RoomID string `json:"roomId,omitempty"`
}

// VoiceTokenResponse carries the signed token.
type VoiceTokenResponse struct {
	Token string `json:"token"`
}
