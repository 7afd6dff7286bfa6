package signal

import (
	"github.com/peerwave/signaling/internal/core"
	"github.com/peerwave/signaling/internal/domain"
)

func (g *Gateway) handlePing(conn core.SignalConnection) {
	g.sendJSON(conn, map[string]string{"type": "pong"})
}

func (g *Gateway) handleWhoAmI(sid domain.SessionID, conn core.SignalConnection) {
	resp := struct {
		Type     string           `json:"type"`
		UserID   domain.SessionID `json:"userId"`
		UserName string           `json:"userName"`
		RoomID   domain.RoomID    `json:"roomId,omitempty"`
	}{
		Type:     "whoami",
		UserID:   sid,
		UserName: g.Registry.NameOf(sid),
	}
	if roomID, ok := g.Registry.RoomOf(sid); ok {
		resp.RoomID = roomID
	}
	g.sendJSON(conn, resp)
}
