// Package domain contains entity without logic, just meta-data
package domain

// SessionID identifies one live client connection. It is assigned by the
// server on connection-open and is never reused for another connection.
type SessionID string

// Peer is a connected client as the rest of the room sees it.
type Peer struct {
	ID   SessionID `json:"userId"`
	Name string    `json:"userName"`
}
