package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/openjukebox/server/internal/repository/room"
)

// removedSentinel marks a list slot for LREM. Never a valid track document.
const removedSentinel = "__removed__"

func (r repo) AppendTrack(ctx context.Context, params *room.AppendTrackParams) error {
	data, err := json.Marshal(params.Track)
	if err != nil {
		return fmt.Errorf("failed to marshal track: %w", err)
	}

	if err := r.rc.RPush(ctx, r.playlistKey(params.RoomId), data).Err(); err != nil {
		return fmt.Errorf("failed to append track: %w", err)
	}

	return nil
}

func (r repo) GetPlaylist(ctx context.Context, roomId string) ([]room.Track, error) {
	entries, err := r.rc.LRange(ctx, r.playlistKey(roomId), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}

	tracks := make([]room.Track, 0, len(entries))
	for _, entry := range entries {
		var track room.Track
		if err := json.Unmarshal([]byte(entry), &track); err != nil {
			return nil, fmt.Errorf("failed to unmarshal track: %w", err)
		}
		tracks = append(tracks, track)
	}

	return tracks, nil
}

func (r repo) GetPlaylistLength(ctx context.Context, roomId string) (int, error) {
	length, err := r.rc.LLen(ctx, r.playlistKey(roomId)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get playlist length: %w", err)
	}

	return int(length), nil
}

// RemoveTrack removes the entry at index and returns it. Duplicates are
// safe: the slot is overwritten with a sentinel before LREM.
func (r repo) RemoveTrack(ctx context.Context, params *room.RemoveTrackParams) (room.Track, error) {
	playlistKey := r.playlistKey(params.RoomId)

	entry, err := r.rc.LIndex(ctx, playlistKey, int64(params.Index)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return room.Track{}, room.ErrTrackNotFound
		}
		return room.Track{}, fmt.Errorf("failed to read track at index: %w", err)
	}

	var track room.Track
	if err := json.Unmarshal([]byte(entry), &track); err != nil {
		return room.Track{}, fmt.Errorf("failed to unmarshal track: %w", err)
	}

	if err := r.rc.LSet(ctx, playlistKey, int64(params.Index), removedSentinel).Err(); err != nil {
		return room.Track{}, fmt.Errorf("failed to mark track removed: %w", err)
	}
	if err := r.rc.LRem(ctx, playlistKey, 1, removedSentinel).Err(); err != nil {
		return room.Track{}, fmt.Errorf("failed to remove track: %w", err)
	}

	return track, nil
}
