package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type RoomEventType string

const (
	EventRoomCreated      RoomEventType = "room_created"
	EventRoomClosed       RoomEventType = "room_closed"
	EventMemberJoined     RoomEventType = "member_joined"
	EventIncidentRecorded RoomEventType = "incident_recorded"
)

type RoomAuditLog struct {
	ID        string         `bson:"_id" json:"id"`
	RoomCode  string         `bson:"room_code" json:"roomCode"`
	EventType RoomEventType  `bson:"event_type" json:"eventType"`
	Timestamp time.Time      `bson:"timestamp" json:"timestamp"`
	Metadata  map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

type RoomAuditRepository interface {
	Log(ctx context.Context, log *RoomAuditLog) error
	GetByRoomCode(ctx context.Context, roomCode string, limit int) ([]RoomAuditLog, error)
	EnsureIndexes(ctx context.Context) error
}

func NewRoomCreatedLog(roomCode string, host EndpointID) *RoomAuditLog {
	return &RoomAuditLog{
		ID:        uuid.NewString(),
		RoomCode:  roomCode,
		EventType: EventRoomCreated,
		Timestamp: time.Now(),
		Metadata: map[string]any{
			"host_endpoint_id": string(host),
		},
	}
}

func NewRoomClosedLog(roomCode string, evicted int) *RoomAuditLog {
	return &RoomAuditLog{
		ID:        uuid.NewString(),
		RoomCode:  roomCode,
		EventType: EventRoomClosed,
		Timestamp: time.Now(),
		Metadata: map[string]any{
			"evicted_endpoints": evicted,
		},
	}
}

func NewMemberJoinedLog(roomCode, participantID, name string, memberCount int) *RoomAuditLog {
	return &RoomAuditLog{
		ID:        uuid.NewString(),
		RoomCode:  roomCode,
		EventType: EventMemberJoined,
		Timestamp: time.Now(),
		Metadata: map[string]any{
			"participant_id": participantID,
			"name":           name,
			"member_count":   memberCount,
		},
	}
}

func NewIncidentRecordedLog(incident *Incident) *RoomAuditLog {
	return &RoomAuditLog{
		ID:        uuid.NewString(),
		RoomCode:  incident.RoomCode,
		EventType: EventIncidentRecorded,
		Timestamp: time.Now(),
		Metadata: map[string]any{
			"incident_id":    incident.ID,
			"participant_id": incident.ParticipantID,
			"kind":           string(incident.Kind),
		},
	}
}
