package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/peerwave/signaling/internal/core"
	"github.com/peerwave/signaling/internal/domain"
)

const writeWait = 5 * time.Second

func (g *Gateway) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(g.cfg.PingPeriod())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump is the single reader of the connection. When it returns, for any
// reason, the session is gone: the registry is cleaned up and the rest of
// the room is told.
func (g *Gateway) readPump(ctx context.Context, cancel context.CancelFunc, sid domain.SessionID, c *wsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		g.Registry.Unbind(sid)
		g.limiter.Forget(sid)
		c.Close()
		cancel()
	}()

	c.conn.SetReadLimit(g.cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(g.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(g.cfg.PongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
					log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				}
				return
			}
			g.handleEvent(sid, c, data)
		}
	}
}

// handleEvent dispatches one client envelope. A malformed envelope is
// dropped with a diagnostic line; nothing a client sends may take the
// process down.
func (g *Gateway) handleEvent(sid domain.SessionID, conn core.SignalConnection, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad json")
		return
	}

	switch env.Type {
	case "join-room":
		g.handleJoinRoom(sid, conn, data)
	case "leave-room":
		g.handleLeaveRoom(sid, conn)
	case "sending-signal":
		g.handleSendingSignal(sid, data)
	case "returning-signal":
		g.handleReturningSignal(sid, data)
	case "chat-message":
		g.handleChatMessage(sid, data)
	case "ping":
		g.handlePing(conn)
	case "whoami":
		g.handleWhoAmI(sid, conn)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown event")
	}
}
