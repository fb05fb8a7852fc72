package health

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/hilthontt/proctor/internal/infrastructure/json"
)

// ConnectionCounter reports live socket endpoints.
type ConnectionCounter interface {
	Count() int
}

type Handler struct {
	startTime   time.Time
	healthy     atomic.Bool
	connections ConnectionCounter
}

func NewHandler(connections ConnectionCounter) *Handler {
	h := &Handler{
		startTime:   time.Now(),
		connections: connections,
	}
	h.healthy.Store(true)
	return h
}

// SetHealthy flips the reported status; main marks the service unhealthy
// while shutting down.
func (h *Handler) SetHealthy(ok bool) {
	h.healthy.Store(ok)
}

func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:      "ok",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Connections: h.connections.Count(),
	}

	if !h.healthy.Load() {
		resp.Status = "unhealthy"
		json.Write(w, http.StatusServiceUnavailable, resp)
		return
	}

	json.Write(w, http.StatusOK, resp)
}
