package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openjukebox/server/internal/repository/room"
)

func newTestRepo(t *testing.T) *repo {
	t.Helper()

	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })

	return NewRepo(rc)
}

func TestPlayerRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	exists, err := r.PlayerExists(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = r.GetPlayer(ctx, "r1")
	assert.ErrorIs(t, err, room.ErrPlayerNotFound)

	err = r.SetPlayer(ctx, &room.SetPlayerParams{
		CurrentTrack:   room.NoTrack,
		Playing:        false,
		Position:       0,
		LastUpdateTime: 1700000000.5,
		Volume:         1,
		RoomId:         "r1",
	})
	require.NoError(t, err)

	player, err := r.GetPlayer(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, room.NoTrack, player.CurrentTrack)
	assert.False(t, player.Playing)
	assert.Equal(t, 1700000000.5, player.LastUpdateTime)
	assert.Equal(t, 1.0, player.Volume)

	err = r.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		CurrentTrack:   0,
		Playing:        true,
		Position:       42.5,
		LastUpdateTime: 1700000100,
		RoomId:         "r1",
	})
	require.NoError(t, err)

	player, err = r.GetPlayer(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, player.Playing)
	assert.Equal(t, 42.5, player.Position)
	assert.Equal(t, 0, player.CurrentTrack)
	assert.Equal(t, 1.0, player.Volume, "volume untouched by state update")
}

func TestUpdatePlayerStateMissingPlayer(t *testing.T) {
	r := newTestRepo(t)

	err := r.UpdatePlayerState(context.Background(), &room.UpdatePlayerStateParams{RoomId: "ghost"})
	assert.ErrorIs(t, err, room.ErrPlayerNotFound)
}

func TestPlaylist(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	t1 := room.Track{Id: "vid1", Title: "first", Channel: "chan"}
	t2 := room.Track{Id: "vid2", Title: "second", Channel: "chan"}

	require.NoError(t, r.AppendTrack(ctx, &room.AppendTrackParams{Track: t1, RoomId: "r1"}))
	require.NoError(t, r.AppendTrack(ctx, &room.AppendTrackParams{Track: t2, RoomId: "r1"}))
	// duplicates are allowed
	require.NoError(t, r.AppendTrack(ctx, &room.AppendTrackParams{Track: t1, RoomId: "r1"}))

	length, err := r.GetPlaylistLength(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 3, length)

	tracks, err := r.GetPlaylist(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, tracks, 3)
	assert.Equal(t, []room.Track{t1, t2, t1}, tracks)
}

func TestRemoveTrack(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	t1 := room.Track{Id: "vid1", Title: "first"}
	t2 := room.Track{Id: "vid2", Title: "second"}
	require.NoError(t, r.AppendTrack(ctx, &room.AppendTrackParams{Track: t1, RoomId: "r1"}))
	require.NoError(t, r.AppendTrack(ctx, &room.AppendTrackParams{Track: t2, RoomId: "r1"}))
	require.NoError(t, r.AppendTrack(ctx, &room.AppendTrackParams{Track: t1, RoomId: "r1"}))

	removed, err := r.RemoveTrack(ctx, &room.RemoveTrackParams{Index: 0, RoomId: "r1"})
	require.NoError(t, err)
	assert.Equal(t, t1, removed)

	tracks, err := r.GetPlaylist(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []room.Track{t2, t1}, tracks, "only the addressed duplicate is removed")

	_, err = r.RemoveTrack(ctx, &room.RemoveTrackParams{Index: 5, RoomId: "r1"})
	assert.ErrorIs(t, err, room.ErrTrackNotFound)
}

func TestRemoveRoom(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.SetPlayer(ctx, &room.SetPlayerParams{CurrentTrack: room.NoTrack, Volume: 1, RoomId: "r1"}))
	require.NoError(t, r.AppendTrack(ctx, &room.AppendTrackParams{Track: room.Track{Id: "vid1"}, RoomId: "r1"}))

	require.NoError(t, r.RemoveRoom(ctx, "r1"))

	exists, err := r.PlayerExists(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, exists)

	length, err := r.GetPlaylistLength(ctx, "r1")
	require.NoError(t, err)
	assert.Zero(t, length)
}
