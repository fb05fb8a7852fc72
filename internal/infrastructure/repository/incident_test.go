package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/hilthontt/proctor/internal/application/incidents"
	"github.com/hilthontt/proctor/internal/domain"
	"github.com/hilthontt/proctor/internal/infrastructure/repository"
	"github.com/stretchr/testify/require"
)

func Test_IncidentRepository(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	// Given four incidents for Alice
	repo := repository.NewIncidentRepository()
	p := &domain.Participant{ID: "p1", Name: "Alice", RoomCode: "ABCDE"}
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 4; i++ {
		inc := domain.NewIncident(p, domain.IncidentCheating, base.Add(time.Duration(i)*time.Second))
		req.NoError(repo.Create(ctx, inc))
		ids = append(ids, inc.ID)
	}

	// Then all come back, newest first
	list, err := repo.ListByRoom(ctx, "ABCDE", 0)
	req.NoError(err)
	req.Len(list, 4)
	req.Equal(ids[3], list[0].ID)
	req.Equal(ids[0], list[3].ID)

	limited, err := repo.ListByRoom(ctx, "ABCDE", 1)
	req.NoError(err)
	req.Len(limited, 1)
	req.Equal(ids[3], limited[0].ID)

	empty, err := repo.ListByRoom(ctx, "FGHIJ", 10)
	req.NoError(err)
	req.Empty(empty)

	req.ErrorIs(repo.Create(ctx, &domain.Incident{}), domain.ErrInvalidInput)
}

func Test_IncidentRepository_NeverEvicts(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	// Given more incidents than a single listing may return
	repo := repository.NewIncidentRepository()
	p := &domain.Participant{ID: "p1", Name: "Alice", RoomCode: "ABCDE"}
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	total := incidents.MaxListLimit + 1

	var first string
	for i := 0; i < total; i++ {
		inc := domain.NewIncident(p, domain.IncidentCameraBlocked, base.Add(time.Duration(i)*time.Second))
		req.NoError(repo.Create(ctx, inc))
		if i == 0 {
			first = inc.ID
		}
	}

	// When everything is listed
	list, err := repo.ListByRoom(ctx, "ABCDE", 0)

	// Then the very first incident is still stored
	req.NoError(err)
	req.Len(list, total)
	req.Equal(first, list[len(list)-1].ID)
}

func Test_RoomAuditRepository(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	repo := repository.NewRoomAuditRepository()
	req.NoError(repo.EnsureIndexes(ctx))
	req.NoError(repo.Log(ctx, domain.NewRoomCreatedLog("ABCDE", "host")))
	req.NoError(repo.Log(ctx, domain.NewRoomClosedLog("ABCDE", 2)))

	logs, err := repo.GetByRoomCode(ctx, "ABCDE", 10)
	req.NoError(err)
	req.Len(logs, 2)
	req.Equal(domain.EventRoomClosed, logs[0].EventType)
	req.Equal(2, logs[0].Metadata["evicted_endpoints"])
}
