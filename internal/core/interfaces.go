package core

import "github.com/peerwave/signaling/internal/domain"

// Frame is a raw JSON payload delivered to a client.
type Frame []byte

// SignalConnection abstracts the system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// RosterEntry is a read-only member view for replies (no transport fields).
type RosterEntry struct {
	UserID   domain.SessionID `json:"userId"`
	UserName string           `json:"userName"`
}
