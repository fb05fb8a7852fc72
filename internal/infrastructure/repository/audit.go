package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/hilthontt/proctor/internal/domain"
)

type roomAuditRepository struct {
	logs map[string][]domain.RoomAuditLog // roomCode -> logs, oldest first
	mu   *sync.RWMutex
}

func NewRoomAuditRepository() domain.RoomAuditRepository {
	return &roomAuditRepository{
		logs: make(map[string][]domain.RoomAuditLog),
		mu:   &sync.RWMutex{},
	}
}

func (r *roomAuditRepository) Log(ctx context.Context, log *domain.RoomAuditLog) error {
	if log == nil || log.RoomCode == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.logs[log.RoomCode] = append(r.logs[log.RoomCode], *log)
	return nil
}

// GetByRoomCode returns newest first.
func (r *roomAuditRepository) GetByRoomCode(ctx context.Context, roomCode string, limit int) ([]domain.RoomAuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := slices.Clone(r.logs[roomCode])
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *roomAuditRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}
