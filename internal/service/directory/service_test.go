package directory

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openjukebox/server/internal/repository/directory/sqlite"
)

type stubPlayback struct {
	initialized []string
	dropped     []string
	counts      map[string]int
	initErr     error
}

func (p *stubPlayback) InitRoom(ctx context.Context, roomId string) error {
	if p.initErr != nil {
		return p.initErr
	}
	p.initialized = append(p.initialized, roomId)
	return nil
}

func (p *stubPlayback) DropRoom(ctx context.Context, roomId string) error {
	p.dropped = append(p.dropped, roomId)
	return nil
}

func (p *stubPlayback) ParticipantCount(roomId string) int {
	return p.counts[roomId]
}

func newTestService(t *testing.T) (*service, *stubPlayback) {
	t.Helper()

	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	playback := &stubPlayback{counts: map[string]int{}}
	svc := NewService(store, playback, slog.New(slog.NewTextHandler(io.Discard, nil)))

	return svc, playback
}

func TestService_CreateRoom(t *testing.T) {
	svc, playback := newTestService(t)
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, &CreateRoomParams{Name: "  Friday Vibes ", Description: "chill"})
	require.NoError(t, err)

	assert.NotEmpty(t, room.Id)
	assert.Equal(t, "Friday Vibes", room.Name)
	assert.Equal(t, "chill", room.Description)
	assert.Zero(t, room.Participants)
	assert.Equal(t, []string{room.Id}, playback.initialized)

	got, err := svc.GetRoom(ctx, room.Id)
	require.NoError(t, err)
	assert.Equal(t, room, got)
}

func TestService_CreateRoomEmptyName(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateRoom(context.Background(), &CreateRoomParams{Name: "   "})

	assert.ErrorIs(t, err, ErrInvalidRoomName)
}

func TestService_CreateRoomRollsBackOnInitFailure(t *testing.T) {
	svc, playback := newTestService(t)
	playback.initErr = assert.AnError

	_, err := svc.CreateRoom(context.Background(), &CreateRoomParams{Name: "doomed"})
	require.Error(t, err)

	rooms, err := svc.ListRooms(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestService_ListRoomsWithParticipants(t *testing.T) {
	svc, playback := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateRoom(ctx, &CreateRoomParams{Name: "one"})
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Now().Add(time.Minute) }
	second, err := svc.CreateRoom(ctx, &CreateRoomParams{Name: "two"})
	require.NoError(t, err)

	playback.counts[first.Id] = 3

	rooms, err := svc.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)

	// Newest first.
	assert.Equal(t, second.Id, rooms[0].Id)
	assert.Equal(t, first.Id, rooms[1].Id)
	assert.Equal(t, 3, rooms[1].Participants)
}

func TestService_DeleteRoom(t *testing.T) {
	svc, playback := newTestService(t)
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, &CreateRoomParams{Name: "short lived"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRoom(ctx, room.Id))
	assert.Equal(t, []string{room.Id}, playback.dropped)

	_, err = svc.GetRoom(ctx, room.Id)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	assert.ErrorIs(t, svc.DeleteRoom(ctx, room.Id), ErrRoomNotFound)
}

func TestService_RestoreRooms(t *testing.T) {
	svc, playback := newTestService(t)
	ctx := context.Background()

	a, err := svc.CreateRoom(ctx, &CreateRoomParams{Name: "a"})
	require.NoError(t, err)
	b, err := svc.CreateRoom(ctx, &CreateRoomParams{Name: "b"})
	require.NoError(t, err)

	playback.initialized = nil
	require.NoError(t, svc.RestoreRooms(ctx))

	assert.ElementsMatch(t, []string{a.Id, b.Id}, playback.initialized)
}
