package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/hilthontt/proctor/internal/domain"
)

// Incidents are never evicted; only ListByRoom bounds what it returns.
type incidentRepository struct {
	incidents map[string][]domain.Incident // roomCode -> []Incident, oldest first
	mu        *sync.RWMutex
}

func NewIncidentRepository() domain.IncidentRepository {
	return &incidentRepository{
		incidents: make(map[string][]domain.Incident),
		mu:        &sync.RWMutex{},
	}
}

func (r *incidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	if incident == nil || incident.RoomCode == "" || incident.ParticipantID == "" {
		return domain.ErrInvalidInput
	}

	if incident.ID == "" {
		incident.ID = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.incidents[incident.RoomCode] = append(r.incidents[incident.RoomCode], *incident)

	return nil
}

// ListByRoom returns newest first.
func (r *incidentRepository) ListByRoom(ctx context.Context, roomCode string, limit int) ([]domain.Incident, error) {
	if roomCode == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	list := slices.Clone(r.incidents[roomCode])
	slices.Reverse(list)
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}
