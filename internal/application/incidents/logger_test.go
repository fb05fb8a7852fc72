package incidents_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hilthontt/proctor/internal/application/incidents"
	"github.com/hilthontt/proctor/internal/domain"
	"github.com/hilthontt/proctor/internal/infrastructure/repository"
	"github.com/hilthontt/proctor/internal/infrastructure/ws"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 9, 30, 5, 0, time.UTC)

func newLogger() *incidents.Logger {
	return incidents.NewLogger(
		repository.NewIncidentRepository(),
		incidents.WithClock(func() time.Time { return fixedNow }),
	)
}

func Test_Logger_Record(t *testing.T) {
	t.Run("one incident per report", func(t *testing.T) {
		req := require.New(t)
		ctx := context.Background()

		// Given a participant
		l := newLogger()
		alice := &domain.Participant{ID: "p1", Name: "Alice", RoomCode: "ABCDE", RoomID: "r1"}

		// When cheating is reported twice
		first, err := l.Record(ctx, alice, domain.IncidentCheating)
		req.NoError(err)
		second, err := l.Record(ctx, alice, domain.IncidentCheating)
		req.NoError(err)

		// Then two incidents exist
		req.NotEqual(first.ID, second.ID)
		req.Equal("p1", first.ParticipantID)
		req.Equal("Cheating detected", first.Message)
		req.Equal(fixedNow, first.Timestamp)

		list, err := l.List(ctx, "ABCDE", 0)
		req.NoError(err)
		req.Len(list, 2)
	})

	t.Run("camera blocked summary", func(t *testing.T) {
		req := require.New(t)

		l := newLogger()
		inc, err := l.Record(context.Background(), &domain.Participant{ID: "p1", RoomCode: "ABCDE"}, domain.IncidentCameraBlocked)
		req.NoError(err)
		req.Equal("Camera blocked", inc.Message)
	})

	t.Run("nil participant", func(t *testing.T) {
		req := require.New(t)

		_, err := newLogger().Record(context.Background(), nil, domain.IncidentCheating)
		req.ErrorIs(err, domain.ErrParticipantNotFound)
	})

	t.Run("unknown kind", func(t *testing.T) {
		req := require.New(t)

		_, err := newLogger().Record(context.Background(), &domain.Participant{ID: "p1", RoomCode: "ABCDE"}, "sneezing")
		req.True(errors.Is(err, domain.ErrInvalidInput))
	})
}

func Test_Logger_Notification(t *testing.T) {
	req := require.New(t)
	l := newLogger()

	// Given a cheating and a camera incident
	cheat := &domain.Incident{RoomCode: "ABCDE", Kind: domain.IncidentCheating, Timestamp: fixedNow}
	camera := &domain.Incident{RoomCode: "ABCDE", Kind: domain.IncidentCameraBlocked, Timestamp: fixedNow}

	// When notifications are built
	cheatEvt := l.Notification(cheat, "Alice")
	cameraEvt := l.Notification(camera, "Alice")

	// Then the type and message match the incident
	req.Equal(ws.CheatingLog, cheatEvt.Type)
	req.Equal("ABCDE", cheatEvt.RoomID)
	req.Equal(ws.LogPayload{LogMessage: "[2024-03-01 09:30:05] Cheating detected for student: Alice"}, cheatEvt.Data)

	req.Equal(ws.CameraBlockedLog, cameraEvt.Type)
	req.Equal(ws.LogPayload{LogMessage: "[2024-03-01 09:30:05] Camera blocked for student: Alice"}, cameraEvt.Data)
}

func Test_Logger_ListLimits(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	l := newLogger()
	p := &domain.Participant{ID: "p1", RoomCode: "ABCDE"}
	for i := 0; i < 5; i++ {
		_, err := l.Record(ctx, p, domain.IncidentCheating)
		req.NoError(err)
	}

	list, err := l.List(ctx, "ABCDE", 2)
	req.NoError(err)
	req.Len(list, 2)

	list, err = l.List(ctx, "ABCDE", 5000)
	req.NoError(err)
	req.Len(list, 5)
}
