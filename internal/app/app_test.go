package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openjukebox/server/internal/connection/inmemory"
	directorysqlite "github.com/openjukebox/server/internal/repository/directory/sqlite"
	roomredis "github.com/openjukebox/server/internal/repository/room/redis"
	"github.com/openjukebox/server/internal/service/directory"
	"github.com/openjukebox/server/internal/service/room"
)

type recordedConn struct {
	id     string
	roomId string

	mu     sync.Mutex
	events [][]byte
}

func (c *recordedConn) Id() string     { return c.id }
func (c *recordedConn) RoomId() string { return c.roomId }
func (c *recordedConn) Close() error   { return nil }

func (c *recordedConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, data)
	return nil
}

func (c *recordedConn) lastState(t *testing.T, eventType string) room.State {
	t.Helper()

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.events) - 1; i >= 0; i-- {
		var envelope struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(c.events[i], &envelope))
		if envelope.Type != eventType {
			continue
		}

		var state room.State
		require.NoError(t, json.Unmarshal(envelope.Data, &state))
		return state
	}

	t.Fatalf("no %s event received", eventType)
	return room.State{}
}

// TestRoomLifecycle walks the whole happy path with real services wired the
// way Run wires them: create a room, attach two listeners, drive playback and
// check both see the same state, then delete the room.
func TestRoomLifecycle(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rc.Close() })

	store, err := directorysqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := inmemory.NewRegistry(logger)
	roomService := room.NewService(roomredis.NewRepo(rc), registry, &room.Config{
		SyncInterval:     time.Hour,
		IdleSyncInterval: time.Hour,
	}, logger)
	t.Cleanup(roomService.Shutdown)
	directoryService := directory.NewService(store, roomService, logger)

	ctx := context.Background()

	created, err := directoryService.CreateRoom(ctx, &directory.CreateRoomParams{
		Name:        "listening party",
		Description: "friday night",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.Id)
	t.Log("room created")

	conn1 := &recordedConn{id: "c1", roomId: created.Id}
	conn2 := &recordedConn{id: "c2", roomId: created.Id}
	registry.Add(conn1)
	registry.Add(conn2)

	got, err := directoryService.GetRoom(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Participants)

	state, err := roomService.AddTrack(ctx, &room.AddTrackParams{
		Track: room.Track{
			Id:      "dQw4w9WgXcQ",
			Title:   "Some Song",
			Channel: "Some Channel",
		},
		RoomId: created.Id,
	})
	require.NoError(t, err)
	require.NotNil(t, state.CurrentTrack)
	assert.Equal(t, 0, *state.CurrentTrack)
	assert.False(t, state.Playing)
	t.Log("track added")

	_, err = roomService.Play(ctx, created.Id)
	require.NoError(t, err)

	// Both listeners see the same authoritative state.
	assert.True(t, conn1.lastState(t, room.EventStateUpdate).Playing)
	assert.True(t, conn2.lastState(t, room.EventStateUpdate).Playing)

	_, err = roomService.Seek(ctx, &room.SeekParams{Position: 42, RoomId: created.Id})
	require.NoError(t, err)
	assert.Equal(t, float64(42), conn2.lastState(t, room.EventStateUpdate).Position)
	t.Log("playback driven")

	// Rooms come back after a restart of the playback side.
	roomService.Shutdown()
	require.NoError(t, directoryService.RestoreRooms(ctx))

	snap, err := roomService.Snapshot(ctx, created.Id)
	require.NoError(t, err)
	assert.Len(t, snap.Playlist, 1)
	assert.True(t, snap.Playing)
	t.Log("rooms restored")

	require.NoError(t, directoryService.DeleteRoom(ctx, created.Id))

	_, err = roomService.Snapshot(ctx, created.Id)
	assert.ErrorIs(t, err, room.ErrRoomNotFound)

	_, err = directoryService.GetRoom(ctx, created.Id)
	assert.ErrorIs(t, err, directory.ErrRoomNotFound)
	t.Log("room deleted")
}
