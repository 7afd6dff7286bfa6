package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	ws "github.com/peerwave/signaling/internal/adapters/signal"
	"github.com/peerwave/signaling/internal/app"
	"github.com/peerwave/signaling/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Mode:           "release",
		AllowedOrigins: []string{"*"},
		ReadLimit:      65536,
		PongWait:       60 * time.Second,
		ChatBurst:      20,
		ChatWindow:     10 * time.Second,
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	reg := app.NewRegistry()
	gw := ws.NewGateway(cfg, reg, app.NewRouter(reg))
	return SetupRouter(context.Background(), cfg, gw)
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body %q: %v", w.Body.String(), err)
	}
	if body["status"] != "ok" {
		t.Fatalf("body=%v, want status ok", body)
	}
}

func TestRooms_EmptyRegistryReturnsEmptyArray(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rooms", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Fatalf("body=%q, want []", got)
	}
}

func TestCORS_WildcardAllowsAnyOrigin(t *testing.T) {
	r := newTestRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin=%q, want *", got)
	}
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/signal"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	var m map[string]any
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return m
}

func writeEvent(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("write event: %v", err)
	}
}

func TestWebSocket_JoinSignalAndDepartureFlow(t *testing.T) {
	reg := app.NewRegistry()
	cfg := testConfig()
	gw := ws.NewGateway(cfg, reg, app.NewRouter(reg))
	srv := httptest.NewServer(SetupRouter(context.Background(), cfg, gw))
	defer srv.Close()

	peerA := dial(t, srv)
	writeEvent(t, peerA, map[string]any{"type": "join-room", "roomId": "lobby"})
	reply := readEvent(t, peerA)
	if reply["type"] != "all-users" {
		t.Fatalf("first reply=%v, want all-users", reply)
	}
	if users := reply["users"].([]any); len(users) != 0 {
		t.Fatalf("first roster=%v, want empty", users)
	}

	peerB := dial(t, srv)
	writeEvent(t, peerB, map[string]any{"type": "join-room", "roomId": "lobby"})
	reply = readEvent(t, peerB)
	users := reply["users"].([]any)
	if len(users) != 1 {
		t.Fatalf("second roster=%v, want one member", users)
	}
	peerAID := users[0].(map[string]any)["userId"].(string)

	arrival := readEvent(t, peerA)
	if arrival["type"] != "user-joined-room" {
		t.Fatalf("arrival=%v, want user-joined-room", arrival)
	}
	peerBID := arrival["userId"].(string)

	// Offer travels only through the relay, untouched.
	writeEvent(t, peerB, map[string]any{
		"type": "sending-signal", "userToSignal": peerAID, "signal": "OFFER",
	})
	offer := readEvent(t, peerA)
	if offer["type"] != "user-joined" || offer["signal"] != "OFFER" || offer["callerId"] != peerBID {
		t.Fatalf("offer=%v, want user-joined OFFER from %s", offer, peerBID)
	}

	writeEvent(t, peerA, map[string]any{
		"type": "returning-signal", "callerId": peerBID, "signal": "ANSWER",
	})
	answer := readEvent(t, peerB)
	if answer["type"] != "receiving-returned-signal" || answer["id"] != peerAID {
		t.Fatalf("answer=%v, want receiving-returned-signal from %s", answer, peerAID)
	}

	// The room shows up on the ancillary HTTP surface while it is live.
	resp, err := http.Get(srv.URL + "/api/rooms")
	if err != nil {
		t.Fatalf("get rooms: %v", err)
	}
	var rooms []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&rooms); err != nil {
		t.Fatalf("decode rooms: %v", err)
	}
	resp.Body.Close()
	if len(rooms) != 1 || rooms[0]["roomId"] != "lobby" || rooms[0]["memberCount"] != float64(2) {
		t.Fatalf("rooms=%v, want lobby with 2 members", rooms)
	}

	// Disconnect propagates as a departure.
	peerB.Close()
	left := readEvent(t, peerA)
	if left["type"] != "user-left" || left["userId"] != peerBID {
		t.Fatalf("departure=%v, want user-left %s", left, peerBID)
	}
}
