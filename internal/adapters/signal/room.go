package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/peerwave/signaling/internal/app"
	"github.com/peerwave/signaling/internal/core"
	"github.com/peerwave/signaling/internal/domain"
)

func (g *Gateway) handleJoinRoom(sid domain.SessionID, conn core.SignalConnection, data []byte) {
	type joinPayload struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId" validate:"required"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad join payload")
		return
	}
	if err := g.validate.Struct(&p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("invalid join payload")
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomID).Msg("join")
	roster := g.Registry.Join(sid, domain.RoomID(p.RoomID))
	g.sendJSON(conn, app.AllUsersEvent{Type: app.EventAllUsers, Users: roster})
}

// handleLeaveRoom drops the session's room membership without tearing down
// the connection; it may join another room afterwards.
func (g *Gateway) handleLeaveRoom(sid domain.SessionID, conn core.SignalConnection) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("leave")
	g.Registry.Leave(sid)
	g.sendJSON(conn, map[string]any{"type": "left"})
}

func (g *Gateway) handleChatMessage(sid domain.SessionID, data []byte) {
	type chatPayload struct {
		Type string `json:"type"`
		Text string `json:"text" validate:"required"`
	}
	var p chatPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad chat payload")
		return
	}
	if err := g.validate.Struct(&p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("invalid chat payload")
		return
	}
	if !g.limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("chat rate limited")
		return
	}
	g.Registry.RouteChatMessage(sid, p.Text)
}
