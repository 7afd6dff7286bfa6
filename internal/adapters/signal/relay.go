package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/peerwave/signaling/internal/domain"
)

// The signal field in both payloads is an opaque blob (SDP, ICE candidates,
// whatever the peers negotiate with). It is validated only for presence and
// passed through byte-for-byte.

func (g *Gateway) handleSendingSignal(sid domain.SessionID, data []byte) {
	type sendingPayload struct {
		Type         string          `json:"type"`
		UserToSignal string          `json:"userToSignal" validate:"required"`
		Signal       json.RawMessage `json:"signal" validate:"required"`
		// CallerID is accepted from the wire but ignored: the sender's
		// session id is authoritative.
		CallerID string `json:"callerId"`
	}
	var p sendingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad sending-signal payload")
		return
	}
	if err := g.validate.Struct(&p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("invalid sending-signal payload")
		return
	}
	g.Router.RelayOffer(sid, domain.SessionID(p.UserToSignal), p.Signal)
}

func (g *Gateway) handleReturningSignal(sid domain.SessionID, data []byte) {
	type returningPayload struct {
		Type     string          `json:"type"`
		Signal   json.RawMessage `json:"signal" validate:"required"`
		CallerID string          `json:"callerId" validate:"required"`
	}
	var p returningPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad returning-signal payload")
		return
	}
	if err := g.validate.Struct(&p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("invalid returning-signal payload")
		return
	}
	g.Router.RelayAnswer(sid, domain.SessionID(p.CallerID), p.Signal)
}
