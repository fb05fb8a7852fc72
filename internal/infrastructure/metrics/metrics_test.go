package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hilthontt/proctor/internal/infrastructure/metrics"
	"github.com/stretchr/testify/require"
)

func Test_Metrics(t *testing.T) {
	req := require.New(t)

	// Given fresh metrics
	m := metrics.New()

	// When events happen
	m.EventDispatched("join_room", 0.01)
	m.EventDispatched("join_room", 0.02)
	m.IncidentRecorded("cheating")
	m.Failure("create_room", "duplicate_room")
	m.EndpointConnected()
	m.EndpointConnected()
	m.EndpointDisconnected()

	// Then they are exposed
	body := httptest.NewRecorder()
	m.Handler().ServeHTTP(body, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	req.Equal(http.StatusOK, body.Code)
	req.Contains(body.Body.String(), `proctor_events_total{event="join_room"} 2`)
	req.Contains(body.Body.String(), `proctor_incidents_total{kind="cheating"} 1`)
	req.Contains(body.Body.String(), `proctor_failures_total{event="create_room",reason="duplicate_room"} 1`)
	req.Contains(body.Body.String(), `proctor_live_endpoints 1`)

	families, err := m.Registry().Gather()
	req.NoError(err)
	req.NotEmpty(families)
}
