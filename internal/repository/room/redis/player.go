package redis

import (
	"context"
	"fmt"

	"github.com/openjukebox/server/internal/repository/room"
)

func (r repo) SetPlayer(ctx context.Context, params *room.SetPlayerParams) error {
	player := room.Player{
		CurrentTrack:   params.CurrentTrack,
		Playing:        params.Playing,
		Position:       params.Position,
		LastUpdateTime: params.LastUpdateTime,
		Volume:         params.Volume,
	}

	if err := r.rc.HSet(ctx, r.playerKey(params.RoomId), player).Err(); err != nil {
		return fmt.Errorf("failed to set player: %w", err)
	}

	return nil
}

func (r repo) PlayerExists(ctx context.Context, roomId string) (bool, error) {
	res, err := r.rc.Exists(ctx, r.playerKey(roomId)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check if player exists: %w", err)
	}

	return res > 0, nil
}

func (r repo) GetPlayer(ctx context.Context, roomId string) (room.Player, error) {
	playerKey := r.playerKey(roomId)

	exists, err := r.rc.Exists(ctx, playerKey).Result()
	if err != nil {
		return room.Player{}, fmt.Errorf("failed to check if player exists: %w", err)
	}
	if exists == 0 {
		return room.Player{}, room.ErrPlayerNotFound
	}

	var player room.Player
	if err := r.rc.HGetAll(ctx, playerKey).Scan(&player); err != nil {
		return room.Player{}, fmt.Errorf("failed to get player: %w", err)
	}

	return player, nil
}

func (r repo) UpdatePlayerState(ctx context.Context, params *room.UpdatePlayerStateParams) error {
	playerKey := r.playerKey(params.RoomId)

	exists, err := r.rc.Exists(ctx, playerKey).Result()
	if err != nil {
		return fmt.Errorf("failed to check if player exists: %w", err)
	}
	if exists == 0 {
		return room.ErrPlayerNotFound
	}

	if err := r.rc.HSet(ctx, playerKey,
		"current_track", params.CurrentTrack,
		"playing", params.Playing,
		"position", params.Position,
		"last_update_time", params.LastUpdateTime,
	).Err(); err != nil {
		return fmt.Errorf("failed to update player state: %w", err)
	}

	return nil
}

func (r repo) RemoveRoom(ctx context.Context, roomId string) error {
	if err := r.rc.Del(ctx, r.playerKey(roomId), r.playlistKey(roomId)).Err(); err != nil {
		return fmt.Errorf("failed to remove room keys: %w", err)
	}

	return nil
}
