package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/peerwave/signaling/internal/core"
	"github.com/peerwave/signaling/internal/domain"
)

// Server -> client event names.
const (
	EventAllUsers                = "all-users"
	EventUserJoinedRoom          = "user-joined-room"
	EventUserJoined              = "user-joined"
	EventReceivingReturnedSignal = "receiving-returned-signal"
	EventChatMessage             = "chat-message"
	EventUserLeft                = "user-left"
)

type AllUsersEvent struct {
	Type  string             `json:"type"`
	Users []core.RosterEntry `json:"users"`
}

type UserJoinedRoomEvent struct {
	Type     string           `json:"type"`
	UserID   domain.SessionID `json:"userId"`
	UserName string           `json:"userName"`
}

// UserJoinedEvent carries a relayed offer. Signal is an opaque blob produced
// by the caller's negotiation logic and is never inspected here.
type UserJoinedEvent struct {
	Type     string           `json:"type"`
	Signal   json.RawMessage  `json:"signal"`
	CallerID domain.SessionID `json:"callerId"`
}

type ReceivingReturnedSignalEvent struct {
	Type   string           `json:"type"`
	Signal json.RawMessage  `json:"signal"`
	ID     domain.SessionID `json:"id"`
}

type ChatMessageEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type UserLeftEvent struct {
	Type   string           `json:"type"`
	UserID domain.SessionID `json:"userId"`
}

// send marshals v and enqueues it on conn. Delivery is best-effort: a full
// send buffer or a closed connection drops the frame without retry.
func send(conn core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app").Msg("marshal event")
		return
	}
	_ = conn.TrySend(b)
}
