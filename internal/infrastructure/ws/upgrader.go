package ws

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/hilthontt/proctor/internal/infrastructure/configs"
)

// NewUpgrader accepts requests without an Origin header (non-browser
// clients) and browser requests from the configured origins.
func NewUpgrader(wsCfg configs.WebSocketConfig, allowedOrigins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  wsCfg.ReadBufferSize,
		WriteBufferSize: wsCfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			return slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}
}
