package domain

// RoomID is a caller-supplied room name. A room exists only while it has
// at least one member.
type RoomID string
