package nakama

const (
	// RPC ids clients call on the room server.
	RpcCreateRoom     = "create_room"
	RpcJoinRoom       = "join_room"
	RpcDeleteRoom     = "delete_room"
	RpcDeleteAllRooms = "delete_all_rooms"
	RpcRoomsList      = "rooms_list"
	RpcVoiceToken     = "voice_token"

	// MatchNameRoom is the authoritative match handler name registered with
	// Nakama; one match hosts one room's event stream.
	MatchNameRoom = "duelboard_room"

	// labelGame tags every room match so label queries can filter on it.
	labelGame = "duelboard"
)
