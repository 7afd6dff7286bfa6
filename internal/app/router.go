package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/peerwave/signaling/internal/domain"
)

// Router relays signaling payloads to exactly one recipient. It keeps no
// state of its own; target connections are resolved through the registry at
// delivery time. The payload is an uninterpreted blob: the relay has zero
// coupling to the peers' negotiation protocol.
type Router struct {
	reg *Registry
}

func NewRouter(reg *Registry) *Router {
	return &Router{reg: reg}
}

// RelayOffer delivers an offer to the target session only, with the sender's
// id attached as callerId. A missing target is dropped without an error:
// signaling and disconnect interleave naturally, and the sender has no error
// channel in this protocol anyway.
func (rt *Router) RelayOffer(sender, target domain.SessionID, signal json.RawMessage) {
	conn, ok := rt.reg.Conn(target)
	if !ok {
		log.Debug().Str("module", "app.router").Str("sid", string(sender)).
			Str("target", string(target)).Msg("offer target gone, dropped")
		return
	}
	send(conn, UserJoinedEvent{Type: EventUserJoined, Signal: signal, CallerID: sender})
}

// RelayAnswer delivers an answer back to the original caller only, with the
// responder's id attached. Same silent-drop policy as RelayOffer.
func (rt *Router) RelayAnswer(sender, caller domain.SessionID, signal json.RawMessage) {
	conn, ok := rt.reg.Conn(caller)
	if !ok {
		log.Debug().Str("module", "app.router").Str("sid", string(sender)).
			Str("target", string(caller)).Msg("answer target gone, dropped")
		return
	}
	send(conn, ReceivingReturnedSignalEvent{Type: EventReceivingReturnedSignal, Signal: signal, ID: sender})
}
