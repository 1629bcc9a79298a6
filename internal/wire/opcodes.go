package wire

// Op codes for in-match messages.
const (
	// Client -> Server
	OpIntent int64 = 1

	// Server -> Client events
	OpRoomState      int64 = 101
	OpIntentRejected int64 = 102
	OpRoomClosed     int64 = 103
)
