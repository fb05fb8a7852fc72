package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hilthontt/proctor/internal/application/incidents"
	"github.com/hilthontt/proctor/internal/application/session"
	"github.com/hilthontt/proctor/internal/infrastructure/configs"
	"github.com/hilthontt/proctor/internal/infrastructure/logging"
	"github.com/hilthontt/proctor/internal/infrastructure/metrics"
	"github.com/hilthontt/proctor/internal/infrastructure/ratelimiter"
	"github.com/hilthontt/proctor/internal/infrastructure/repository"
	"github.com/hilthontt/proctor/internal/infrastructure/ws"
	"github.com/hilthontt/proctor/internal/presentation/api"
	healthHandler "github.com/hilthontt/proctor/internal/presentation/handler/health"
	roomHandler "github.com/hilthontt/proctor/internal/presentation/handler/rooms"
	socketHandler "github.com/hilthontt/proctor/internal/presentation/handler/socket"
	"github.com/stretchr/testify/require"
)

func testConfig() configs.Config {
	return configs.Config{
		HTTP: configs.HTTPConfig{
			AllowedOrigins: []string{"http://localhost:5173"},
			AllowedHeaders: []string{"Content-Type"},
		},
		WebSocket: configs.WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			SendBuffer:      16,
			MaxMessageSize:  4096,
			PongWait:        10 * time.Second,
			PingPeriod:      5 * time.Second,
			WriteWait:       time.Second,
		},
	}
}

func newServer(t *testing.T, burst int) *httptest.Server {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := testConfig()
	logger := logging.Nop()
	m := metrics.New()
	registry := ws.NewRegistry()
	store := repository.NewRoomStore()
	incidentLogger := incidents.NewLogger(repository.NewIncidentRepository())
	coordinator := session.NewCoordinator(registry, store, incidentLogger, nil, m, logger)

	cache := ratelimiter.NewInMemory()
	t.Cleanup(func() { _ = cache.Close() })

	app := api.NewApplication(
		cfg,
		roomHandler.NewHandler(store, incidentLogger, repository.NewRoomAuditRepository(), registry, logger),
		healthHandler.NewHandler(registry),
		socketHandler.NewHandler(ctx, ws.NewUpgrader(cfg.WebSocket, cfg.HTTP.AllowedOrigins), coordinator, ws.NewClientOptions(cfg.WebSocket), logger),
		m.Handler(),
		logger,
		ratelimiter.New(ratelimiter.Options{MaxRatePerSecond: 1, MaxBurst: burst, Cache: cache}),
	)

	srv := httptest.NewServer(app.Mount())
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, eventType string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"type": eventType, "data": data}))
}

type envelope struct {
	Type   string          `json:"type"`
	RoomID string          `json:"roomId"`
	Data   json.RawMessage `json:"data"`
}

func receive(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var env envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type roomView struct {
	Code         string `json:"code"`
	HostOnline   bool   `json:"hostOnline"`
	LiveMembers  int    `json:"liveMembers"`
	Participants []struct {
		Name string `json:"name"`
	} `json:"participants"`
}

// waitForHost polls until the create_room sent over the socket has been
// applied and the host binding is live.
func waitForHost(t *testing.T, srv *httptest.Server, code string) roomView {
	t.Helper()

	var room roomView
	require.Eventually(t, func() bool {
		room = roomView{}
		return getJSON(t, srv.URL+"/api/rooms/"+code, &room) == http.StatusOK && room.HostOnline
	}, 3*time.Second, 20*time.Millisecond)
	return room
}

func Test_Socket_ExamFlow(t *testing.T) {
	req := require.New(t)
	srv := newServer(t, 100)

	// Given a host that opened ABCDE
	host := dial(t, srv)
	send(t, host, "create_room", map[string]string{"roomCode": "ABCDE"})

	waitForHost(t, srv, "ABCDE")

	// When a student joins
	student := dial(t, srv)
	send(t, student, "join_room", map[string]string{"roomCode": "ABCDE", "userName": "Alice"})
	joined := receive(t, host)

	// Then the host hears about Alice
	req.Equal("student_joined", joined.Type)
	req.Equal("ABCDE", joined.RoomID)
	req.JSONEq(`{"userName":"Alice"}`, string(joined.Data))

	var room roomView
	req.Equal(http.StatusOK, getJSON(t, srv.URL+"/api/rooms/ABCDE", &room))
	req.Equal(2, room.LiveMembers)
	req.Len(room.Participants, 1)
	req.Equal("Alice", room.Participants[0].Name)

	// And a detection is forwarded as a log line
	send(t, student, "cheating_detected", map[string]string{"roomCode": "ABCDE", "userName": "Alice"})
	logEvt := receive(t, host)
	req.Equal("cheating_log", logEvt.Type)
	var payload struct {
		LogMessage string `json:"logMessage"`
	}
	req.NoError(json.Unmarshal(logEvt.Data, &payload))
	req.Contains(payload.LogMessage, "Cheating detected for student: Alice")

	// And the incident is visible over REST
	var incidentsResp struct {
		Incidents []struct {
			Kind string `json:"kind"`
		} `json:"incidents"`
	}
	req.Equal(http.StatusOK, getJSON(t, srv.URL+"/api/rooms/ABCDE/incidents", &incidentsResp))
	req.Len(incidentsResp.Incidents, 1)
	req.Equal("cheating", incidentsResp.Incidents[0].Kind)

	// And closing notifies the student
	send(t, host, "close_room", map[string]string{"roomCode": "ABCDE"})
	req.Equal("room_closed", receive(t, student).Type)
	req.Equal(http.StatusNotFound, getJSON(t, srv.URL+"/api/rooms/ABCDE", nil))

	// And the incident still names Alice after the room is gone
	var history struct {
		Incidents []struct {
			UserName string `json:"userName"`
		} `json:"incidents"`
	}
	req.Equal(http.StatusOK, getJSON(t, srv.URL+"/api/rooms/ABCDE/incidents", &history))
	req.Len(history.Incidents, 1)
	req.Equal("Alice", history.Incidents[0].UserName)
}

func Test_Socket_JoinMissingRoom(t *testing.T) {
	req := require.New(t)
	srv := newServer(t, 100)

	student := dial(t, srv)
	send(t, student, "join_room", map[string]string{"roomCode": "NOPE1", "userName": "Bob"})

	evt := receive(t, student)
	req.Equal("room_error", evt.Type)
	req.JSONEq(`{"message":"Room not found"}`, string(evt.Data))
}

func Test_Rooms_GetRoom(t *testing.T) {
	req := require.New(t)
	srv := newServer(t, 100)

	host := dial(t, srv)
	send(t, host, "create_room", map[string]string{"roomCode": "ABCDE"})

	room := waitForHost(t, srv, "ABCDE")
	req.Equal("ABCDE", room.Code)
	req.True(room.HostOnline)
	req.Equal(1, room.LiveMembers)
	req.Empty(room.Participants)

	req.Equal(http.StatusBadRequest, getJSON(t, srv.URL+"/api/rooms/ABCDE/incidents?limit=abc", nil))
}

func Test_Health(t *testing.T) {
	req := require.New(t)
	srv := newServer(t, 100)

	var health struct {
		Status      string `json:"status"`
		Connections int    `json:"connections"`
	}
	req.Equal(http.StatusOK, getJSON(t, srv.URL+"/api/health", &health))
	req.Equal("ok", health.Status)
	req.Zero(health.Connections)

	resp, err := http.Get(srv.URL + "/metrics")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)
}

func Test_RateLimit(t *testing.T) {
	req := require.New(t)
	srv := newServer(t, 2)

	req.Equal(http.StatusOK, getJSON(t, srv.URL+"/api/live", nil))
	req.Equal(http.StatusOK, getJSON(t, srv.URL+"/api/live", nil))

	resp, err := http.Get(srv.URL + "/api/live")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusTooManyRequests, resp.StatusCode)
	req.Equal("0", resp.Header.Get("X-RateLimit-Remaining"))
}

func Test_Cors(t *testing.T) {
	req := require.New(t)
	srv := newServer(t, 100)

	allowed, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/health", nil)
	req.NoError(err)
	allowed.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(allowed)
	req.NoError(err)
	resp.Body.Close()
	req.Equal(http.StatusNoContent, resp.StatusCode)
	req.Equal("http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))

	denied, err := http.NewRequest(http.MethodGet, srv.URL+"/api/health", nil)
	req.NoError(err)
	denied.Header.Set("Origin", "http://evil.example")
	resp, err = http.DefaultClient.Do(denied)
	req.NoError(err)
	resp.Body.Close()
	req.Empty(resp.Header.Get("Access-Control-Allow-Origin"))
}
