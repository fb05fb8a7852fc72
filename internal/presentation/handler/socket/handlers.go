package socket

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/hilthontt/proctor/internal/application/session"
	"github.com/hilthontt/proctor/internal/infrastructure/logging"
	"github.com/hilthontt/proctor/internal/infrastructure/ws"
)

type Handler struct {
	upgrader    *websocket.Upgrader
	coordinator *session.Coordinator
	options     ws.ClientOptions
	logger      logging.Logger
	ctx         context.Context
}

// NewHandler ties every connection's lifetime to ctx rather than to the
// upgrade request, which ends as soon as the handler returns.
func NewHandler(
	ctx context.Context,
	upgrader *websocket.Upgrader,
	coordinator *session.Coordinator,
	options ws.ClientOptions,
	logger logging.Logger,
) *Handler {
	return &Handler{
		upgrader:    upgrader,
		coordinator: coordinator,
		options:     options,
		logger:      logger,
		ctx:         ctx,
	}
}

func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Warn(logging.Socket, logging.Connect, "upgrade failed", map[logging.ExtraKey]any{
			logging.ClientIp:     r.RemoteAddr,
			logging.ErrorMessage: err.Error(),
		})
		return
	}

	client := ws.NewClient(conn, h.options, h.logger)
	h.coordinator.Connect(h.ctx, client)

	go client.WritePump()
	go client.ReadPump(h.ctx, h.coordinator)
}
