// Package inmemory keeps the room to connection mapping in process memory.
// The authoritative copy of a room lives in exactly one process, so no
// external store is involved on the fan-out path.
package inmemory

import (
	"log/slog"
	"sync"

	"github.com/openjukebox/server/internal/connection"
)

type registry struct {
	rooms  map[string]map[string]connection.Connection
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *registry {
	return &registry{
		rooms:  make(map[string]map[string]connection.Connection),
		logger: logger,
	}
}

// Add registers a connection under its room. Re-adding the same id replaces
// the previous handle, which makes reconnects idempotent.
func (r *registry) Add(conn connection.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[conn.RoomId()]
	if !ok {
		room = make(map[string]connection.Connection)
		r.rooms[conn.RoomId()] = room
	}
	room[conn.Id()] = conn

	r.logger.Debug("connection registered", "room_id", conn.RoomId(), "conn_id", conn.Id(), "room_size", len(room))
}

// Remove drops a connection from its room. Removing an absent handle is a
// no-op.
func (r *registry) Remove(conn connection.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[conn.RoomId()]
	if !ok {
		return
	}

	if current, ok := room[conn.Id()]; !ok || current != conn {
		return
	}
	delete(room, conn.Id())

	if len(room) == 0 {
		delete(r.rooms, conn.RoomId())
	}

	r.logger.Debug("connection removed", "room_id", conn.RoomId(), "conn_id", conn.Id(), "room_size", len(room))
}

// Broadcast delivers data to every connection in the room except exceptId
// (empty means everyone). A connection that fails to accept the write is
// reaped; failures never affect sibling connections.
func (r *registry) Broadcast(roomId string, data []byte, exceptId string) {
	r.mu.RLock()
	room := r.rooms[roomId]
	conns := make([]connection.Connection, 0, len(room))
	for id, conn := range room {
		if id == exceptId {
			continue
		}
		conns = append(conns, conn)
	}
	r.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.Send(data); err != nil {
			r.logger.Info("dropping unresponsive connection", "room_id", roomId, "conn_id", conn.Id(), "error", err)
			conn.Close()
			r.Remove(conn)
		}
	}
}

// Count reports how many connections a room currently has.
func (r *registry) Count(roomId string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms[roomId])
}

// CloseRoom closes and removes every connection of a room.
func (r *registry) CloseRoom(roomId string) {
	r.mu.Lock()
	room := r.rooms[roomId]
	delete(r.rooms, roomId)
	r.mu.Unlock()

	for _, conn := range room {
		conn.Close()
	}
}
