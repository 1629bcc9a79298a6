package engine

import "fmt"

// Code is the closed taxonomy of reasons an intent or room operation can be
// refused. Every code is recoverable: the client adopts the canonical state
// returned alongside the rejection and retries from there.
type Code string

const (
	CodeRoomNotFound      Code = "RoomNotFound"
	CodeRoomFull          Code = "RoomFull"
	CodeVersionMismatch   Code = "VersionMismatch"
	CodeZoneAccessDenied  Code = "ZoneAccessDenied"
	CodeCardNotInSource   Code = "CardNotInSource"
	CodeDeckEmpty         Code = "DeckEmpty"
	CodeInvalidReorder    Code = "InvalidReorder"
	CodeUnknownIntentType Code = "UnknownIntentType"
)

// Rejection is a structured refusal. It is data, not exceptional control
// flow: malformed or unauthorized intents produce a Rejection and leave the
// room state byte-for-byte unchanged.
type Rejection struct {
	Code   Code
	Reason string
}

func (r *Rejection) Error() string {
	if r.Reason == "" {
		return string(r.Code)
	}
	return fmt.Sprintf("%s: %s", r.Code, r.Reason)
}

// Reject builds a Rejection with a formatted reason.
func Reject(code Code, format string, args ...any) *Rejection {
	return &Rejection{Code: code, Reason: fmt.Sprintf(format, args...)}
}
