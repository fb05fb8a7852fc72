package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type IncidentKind string

const (
	IncidentCheating      IncidentKind = "cheating"
	IncidentCameraBlocked IncidentKind = "camera-blocked"
)

type Incident struct {
	ID            string       `bson:"_id" json:"id"`
	ParticipantID string       `bson:"participant_id" json:"participantId"`
	RoomCode      string       `bson:"room_code" json:"roomCode"`
	Kind          IncidentKind `bson:"kind" json:"kind"`
	Timestamp     time.Time    `bson:"timestamp" json:"timestamp"`
	Message       string       `bson:"message" json:"message"`
}

type IncidentRepository interface {
	Create(ctx context.Context, incident *Incident) error
	ListByRoom(ctx context.Context, roomCode string, limit int) ([]Incident, error)
}

// Summary is the short behaviour description stored with an incident.
func (k IncidentKind) Summary() string {
	switch k {
	case IncidentCheating:
		return "Cheating detected"
	case IncidentCameraBlocked:
		return "Camera blocked"
	default:
		return string(k)
	}
}

func NewIncident(participant *Participant, kind IncidentKind, at time.Time) *Incident {
	return &Incident{
		ID:            uuid.NewString(),
		ParticipantID: participant.ID,
		RoomCode:      participant.RoomCode,
		Kind:          kind,
		Timestamp:     at,
		Message:       kind.Summary(),
	}
}
