package inmemory

import (
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConn struct {
	id       string
	roomId   string
	received [][]byte
	closed   bool
	sendErr  error
	mu       sync.Mutex
}

func (m *mockConn) Id() string     { return m.id }
func (m *mockConn) RoomId() string { return m.roomId }

func (m *mockConn) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.received = append(m.received, data)
	return nil
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockConn) receivedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.received)
}

func TestRegistry_Broadcast(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(*registry) []*mockConn
		roomId       string
		exceptId     string
		wantReceived map[string]int
	}{
		{
			name: "delivers to every room member",
			setup: func(r *registry) []*mockConn {
				a := &mockConn{id: "a", roomId: "room1"}
				b := &mockConn{id: "b", roomId: "room1"}
				r.Add(a)
				r.Add(b)
				return []*mockConn{a, b}
			},
			roomId:       "room1",
			wantReceived: map[string]int{"a": 1, "b": 1},
		},
		{
			name: "excludes the originator",
			setup: func(r *registry) []*mockConn {
				a := &mockConn{id: "a", roomId: "room1"}
				b := &mockConn{id: "b", roomId: "room1"}
				r.Add(a)
				r.Add(b)
				return []*mockConn{a, b}
			},
			roomId:       "room1",
			exceptId:     "a",
			wantReceived: map[string]int{"a": 0, "b": 1},
		},
		{
			name: "no cross-room delivery",
			setup: func(r *registry) []*mockConn {
				a := &mockConn{id: "a", roomId: "room1"}
				b := &mockConn{id: "b", roomId: "room2"}
				r.Add(a)
				r.Add(b)
				return []*mockConn{a, b}
			},
			roomId:       "room1",
			wantReceived: map[string]int{"a": 1, "b": 0},
		},
		{
			name:         "unknown room is a no-op",
			setup:        func(r *registry) []*mockConn { return nil },
			roomId:       "nope",
			wantReceived: map[string]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(slog.Default())
			conns := tt.setup(r)

			r.Broadcast(tt.roomId, []byte(`{"type":"state_update"}`), tt.exceptId)

			for _, conn := range conns {
				assert.Equal(t, tt.wantReceived[conn.id], conn.receivedCount(), "conn %s", conn.id)
			}
		})
	}
}

func TestRegistry_BroadcastReapsFailedConn(t *testing.T) {
	r := NewRegistry(slog.Default())
	healthy := &mockConn{id: "healthy", roomId: "room1"}
	broken := &mockConn{id: "broken", roomId: "room1", sendErr: errors.New("send buffer full")}
	r.Add(healthy)
	r.Add(broken)

	r.Broadcast("room1", []byte("x"), "")

	require.True(t, broken.closed, "failed connection must be closed")
	assert.Equal(t, 1, r.Count("room1"))
	assert.Equal(t, 1, healthy.receivedCount(), "healthy connection still receives")
}

func TestRegistry_AddIsIdempotent(t *testing.T) {
	r := NewRegistry(slog.Default())
	first := &mockConn{id: "a", roomId: "room1"}
	second := &mockConn{id: "a", roomId: "room1"}
	r.Add(first)
	r.Add(second)

	require.Equal(t, 1, r.Count("room1"))

	r.Broadcast("room1", []byte("x"), "")
	assert.Equal(t, 0, first.receivedCount(), "replaced handle no longer receives")
	assert.Equal(t, 1, second.receivedCount())
}

func TestRegistry_RemoveAbsentIsNoop(t *testing.T) {
	r := NewRegistry(slog.Default())
	conn := &mockConn{id: "a", roomId: "room1"}

	r.Remove(conn)
	assert.Equal(t, 0, r.Count("room1"))

	// removing a stale handle must not evict its replacement
	r.Add(conn)
	replacement := &mockConn{id: "a", roomId: "room1"}
	r.Add(replacement)
	r.Remove(conn)
	assert.Equal(t, 1, r.Count("room1"))
}

func TestRegistry_CloseRoom(t *testing.T) {
	r := NewRegistry(slog.Default())
	a := &mockConn{id: "a", roomId: "room1"}
	b := &mockConn{id: "b", roomId: "room1"}
	r.Add(a)
	r.Add(b)

	r.CloseRoom("room1")

	assert.Equal(t, 0, r.Count("room1"))
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}
