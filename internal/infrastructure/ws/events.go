package ws

// Inbound event types.
const (
	CreateRoom       = "create_room"
	JoinRoom         = "join_room"
	CheatingDetected = "cheating_detected"
	CameraBlocked    = "camera_blocked"
	CloseRoom        = "close_room"
)

// Outbound event types.
const (
	StudentJoined    = "student_joined"
	CheatingLog      = "cheating_log"
	CameraBlockedLog = "camera_blocked_log"
	RoomClosed       = "room_closed"
	RoomError        = "room_error"
)
