package signal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/peerwave/signaling/internal/app"
	"github.com/peerwave/signaling/internal/config"
	"github.com/peerwave/signaling/internal/core"
	"github.com/peerwave/signaling/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// Gateway owns the websocket side of the relay: it upgrades connections,
// assigns session ids, decodes incoming event envelopes and hands them to
// the registry and router.
type Gateway struct {
	Registry *app.Registry
	Router   *app.Router

	cfg      *config.Config
	limiter  *chatLimiter
	validate *validator.Validate
	upgrader websocket.Upgrader
}

func NewGateway(cfg *config.Config, reg *app.Registry, router *app.Router) *Gateway {
	g := &Gateway{
		Registry: reg,
		Router:   router,
		cfg:      cfg,
		limiter:  newChatLimiter(cfg.ChatBurst, cfg.ChatWindow),
		validate: validator.New(),
	}
	g.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return originAllowed(cfg, r) },
	}
	return g
}

// originAllowed enforces the same static allow-list the CORS layer uses.
// Requests without an Origin header (non-browser clients) are let through.
func originAllowed(cfg *config.Config, r *http.Request) bool {
	if cfg.AllowAllOrigins() {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range cfg.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// wsConn adapts one gorilla connection to core.SignalConnection. Writes go
// through a buffered channel drained by the write pump, so TrySend never
// blocks an event handler.
type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// Handle upgrades the request and runs the connection's read and write
// pumps. The session id is assigned here and lives exactly as long as the
// connection.
func (g *Gateway) Handle(ctx context.Context, c *gin.Context) {
	sid := domain.SessionID(uuid.NewString())

	ws, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}
	g.Registry.Bind(sid, conn)

	ctx, cancel := context.WithCancel(ctx)
	go g.writePump(ctx, conn)
	go g.readPump(ctx, cancel, sid, conn)
}

// sendJSON marshals v and enqueues it on conn, dropping the frame on error.
func (g *Gateway) sendJSON(conn core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = conn.TrySend(b)
}
