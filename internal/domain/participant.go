package domain

import "time"

// Participant is a joined, non-host member of a room. Names are display
// identities only and are not unique, not even within a room.
type Participant struct {
	ID         string     `bson:"_id" json:"id"`
	Name       string     `bson:"name" json:"name"`
	EndpointID EndpointID `bson:"endpoint_id" json:"endpointId"`
	RoomCode   string     `bson:"room_code" json:"roomCode"`
	RoomID     string     `bson:"room_id" json:"roomId"`
	JoinedAt   time.Time  `bson:"joined_at" json:"joinedAt"`
}

// BelongsTo reports whether the participant joined this incarnation of the
// room. A code can be reused after close, so matching the code is not enough.
func (p *Participant) BelongsTo(room *Room) bool {
	if p == nil || room == nil {
		return false
	}
	return p.RoomCode == room.Code && p.RoomID == room.ID
}
