// Package incidents records cheating and camera-blocked incidents and turns
// them into host notifications.
package incidents

import (
	"context"
	"fmt"
	"time"

	"github.com/hilthontt/proctor/internal/domain"
	"github.com/hilthontt/proctor/internal/infrastructure/ws"
)

const (
	timestampLayout = "2006-01-02 15:04:05"

	DefaultListLimit = 100
	MaxListLimit     = 1000
)

type Logger struct {
	repo domain.IncidentRepository
	now  func() time.Time
}

type Option func(*Logger)

// WithClock replaces the wall clock used to stamp incidents.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		l.now = now
	}
}

func NewLogger(repo domain.IncidentRepository, opts ...Option) *Logger {
	l := &Logger{
		repo: repo,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record stores exactly one incident per call. Repeated reports are never
// merged or throttled.
func (l *Logger) Record(ctx context.Context, participant *domain.Participant, kind domain.IncidentKind) (*domain.Incident, error) {
	if participant == nil {
		return nil, domain.ErrParticipantNotFound
	}

	switch kind {
	case domain.IncidentCheating, domain.IncidentCameraBlocked:
	default:
		return nil, fmt.Errorf("%w: unknown incident kind %q", domain.ErrInvalidInput, kind)
	}

	incident := domain.NewIncident(participant, kind, l.now().UTC())
	if err := l.repo.Create(ctx, incident); err != nil {
		return nil, fmt.Errorf("failed to record incident: %w", err)
	}

	return incident, nil
}

// Notification builds the host-facing log event for an incident.
func (l *Logger) Notification(incident *domain.Incident, participantName string) *ws.Event {
	msg := FormatMessage(incident, participantName)
	if incident.Kind == domain.IncidentCameraBlocked {
		return ws.NewCameraBlockedLog(incident.RoomCode, msg)
	}
	return ws.NewCheatingLog(incident.RoomCode, msg)
}

func (l *Logger) List(ctx context.Context, roomCode string, limit int) ([]domain.Incident, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return l.repo.ListByRoom(ctx, roomCode, limit)
}

// FormatMessage renders "[2006-01-02 15:04:05] Cheating detected for student: Alice".
func FormatMessage(incident *domain.Incident, participantName string) string {
	return fmt.Sprintf("[%s] %s for student: %s",
		incident.Timestamp.UTC().Format(timestampLayout),
		incident.Kind.Summary(),
		participantName,
	)
}
