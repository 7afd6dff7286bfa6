package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/peerwave/signaling/internal/core"
	"github.com/peerwave/signaling/internal/domain"
)

// Registry owns all room membership state: which sessions are connected,
// which room each one is in, and the display name assigned to it. It is the
// only writer of those maps; adapters and the router go through it.
//
// Guarded by one RWMutex. Critical sections are map lookups plus buffered,
// non-blocking enqueues, so contention stays negligible. Holding the lock
// across a join keeps the roster reply and the arrival fanout consistent
// with each other: no concurrent join or disconnect can interleave between
// the two.
type Registry struct {
	mu     sync.RWMutex
	conns  map[domain.SessionID]core.SignalConnection
	names  map[domain.SessionID]string
	rooms  map[domain.RoomID][]domain.SessionID
	roomOf map[domain.SessionID]domain.RoomID
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[domain.SessionID]core.SignalConnection),
		names:  make(map[domain.SessionID]string),
		rooms:  make(map[domain.RoomID][]domain.SessionID),
		roomOf: make(map[domain.SessionID]domain.RoomID),
	}
}

// Bind registers a freshly opened connection. The session is roomless until
// its first join.
func (r *Registry) Bind(sid domain.SessionID, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[sid] = conn
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound session")
}

// Unbind tears down everything the registry knows about a disconnected
// session: room membership (with a departure fanout to the remaining
// members), the display name, and the connection itself.
func (r *Registry) Unbind(sid domain.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(sid)
	delete(r.names, sid)
	delete(r.conns, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbound session")
}

// Join adds the session to roomID and returns the roster of every other
// current member. A duplicate join for the same room is a no-op that still
// returns a correct roster. A join while in another room evicts the session
// from that room first, so a session is a member of at most one room.
func (r *Registry) Join(sid domain.SessionID, roomID domain.RoomID) []core.RosterEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.roomOf[sid]; ok {
		if cur == roomID {
			return r.rosterLocked(roomID, sid)
		}
		r.leaveLocked(sid)
	}

	if _, ok := r.names[sid]; !ok {
		r.names[sid] = pickName(r.nameInUseLocked, sid)
	}

	r.rooms[roomID] = append(r.rooms[roomID], sid)
	r.roomOf[sid] = roomID
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).
		Str("room", string(roomID)).Str("name", r.names[sid]).Msg("joined room")

	arrival := UserJoinedRoomEvent{Type: EventUserJoinedRoom, UserID: sid, UserName: r.names[sid]}
	for _, other := range r.rooms[roomID] {
		if other == sid {
			continue
		}
		if conn, ok := r.conns[other]; ok {
			send(conn, arrival)
		}
	}

	return r.rosterLocked(roomID, sid)
}

// Leave removes the session from its current room, if any, and fans the
// departure out to the remaining members. Roomless sessions are a no-op;
// disconnect may race with an already-completed leave.
func (r *Registry) Leave(sid domain.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(sid)
}

// RouteChatMessage broadcasts text, prefixed with the sender's display name,
// to every member of the sender's room, the sender included. No-op when the
// sender is in no room.
func (r *Registry) RouteChatMessage(sid domain.SessionID, text string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roomID, ok := r.roomOf[sid]
	if !ok {
		return
	}
	evt := ChatMessageEvent{Type: EventChatMessage, Message: r.names[sid] + ": " + text}
	for _, member := range r.rooms[roomID] {
		if conn, ok := r.conns[member]; ok {
			send(conn, evt)
		}
	}
}

// NameOf returns the session's assigned display name, or UnknownName if it
// has none. It never fails.
func (r *Registry) NameOf(sid domain.SessionID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name, ok := r.names[sid]; ok {
		return name
	}
	return UnknownName
}

// RoomOf returns the room the session is currently in.
func (r *Registry) RoomOf(sid domain.SessionID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roomID, ok := r.roomOf[sid]
	return roomID, ok
}

// Conn returns the live connection for a session, if it is still connected.
func (r *Registry) Conn(sid domain.SessionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[sid]
	return conn, ok
}

type RoomInfo struct {
	ID          domain.RoomID `json:"roomId"`
	MemberCount int           `json:"memberCount"`
}

// Rooms returns a snapshot of all live rooms.
func (r *Registry) Rooms() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomInfo, 0, len(r.rooms))
	for id, members := range r.rooms {
		out = append(out, RoomInfo{ID: id, MemberCount: len(members)})
	}
	return out
}

func (r *Registry) nameInUseLocked(name string) bool {
	for _, used := range r.names {
		if used == name {
			return true
		}
	}
	return false
}

func (r *Registry) rosterLocked(roomID domain.RoomID, except domain.SessionID) []core.RosterEntry {
	members := r.rooms[roomID]
	out := make([]core.RosterEntry, 0, len(members))
	for _, sid := range members {
		if sid == except {
			continue
		}
		out = append(out, core.RosterEntry{UserID: sid, UserName: r.names[sid]})
	}
	return out
}

func (r *Registry) leaveLocked(sid domain.SessionID) {
	roomID, ok := r.roomOf[sid]
	if !ok {
		return
	}
	delete(r.roomOf, sid)

	members := r.rooms[roomID]
	remaining := make([]domain.SessionID, 0, len(members))
	for _, m := range members {
		if m != sid {
			remaining = append(remaining, m)
		}
	}
	if len(remaining) == 0 {
		delete(r.rooms, roomID)
		log.Info().Str("module", "app.registry").Str("room", string(roomID)).Msg("room deleted")
		return
	}
	r.rooms[roomID] = remaining

	departure := UserLeftEvent{Type: EventUserLeft, UserID: sid}
	for _, m := range remaining {
		if conn, ok := r.conns[m]; ok {
			send(conn, departure)
		}
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).
		Str("room", string(roomID)).Msg("left room")
}
