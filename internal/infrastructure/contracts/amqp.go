package contracts

// AmqpMessage is the message structure for AMQP.
type AmqpMessage struct {
	OwnerID string `json:"ownerId"`
	Data    []byte `json:"data"`
}

// Routing keys
const (
	EventRoomCreated      = "room.created"
	EventMemberJoined     = "member.joined"
	EventIncidentRecorded = "incident.recorded"
	EventRoomClosed       = "room.closed"
)

var RoomEventKeys = []string{
	EventRoomCreated,
	EventMemberJoined,
	EventIncidentRecorded,
	EventRoomClosed,
}
