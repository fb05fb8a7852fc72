package messaging

import (
	"time"

	"github.com/hilthontt/proctor/internal/domain"
)

const (
	RoomEventsQueue = "room_events"
	DeadLetterQueue = "dead_letter_queue"
)

// RoomEventData is the body of every room event. Only the fields relevant to
// the routing key are set.
type RoomEventData struct {
	RoomCode    string              `json:"roomCode"`
	Room        *domain.Room        `json:"room,omitempty"`
	Participant *domain.Participant `json:"participant,omitempty"`
	Incident    *domain.Incident    `json:"incident,omitempty"`
	Evicted     int                 `json:"evicted,omitempty"`
	OccurredAt  time.Time           `json:"occurredAt"`
}
