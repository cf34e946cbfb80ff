package room

import (
	"context"
	"errors"
	"fmt"

	repo "github.com/openjukebox/server/internal/repository/room"
)

type AddTrackParams struct {
	Track  Track
	RoomId string
}

type RemoveTrackParams struct {
	Index  int
	RoomId string
}

// AddTrack appends a track to the playlist. Adding to an empty playlist
// selects the new track at position 0 but does not start playback.
func (s *service) AddTrack(ctx context.Context, params *AddTrackParams) (State, error) {
	if params.Track.Id == "" || params.Track.Title == "" {
		return State{}, ErrInvalidTrack
	}

	h, err := s.handle(params.RoomId)
	if err != nil {
		return State{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	length, err := s.roomRepo.GetPlaylistLength(ctx, params.RoomId)
	if err != nil {
		return State{}, fmt.Errorf("failed to get playlist length: %w", err)
	}
	if length >= s.cfg.PlaylistLimit {
		return State{}, ErrPlaylistLimitReached
	}

	err = s.roomRepo.AppendTrack(ctx, &repo.AppendTrackParams{
		Track:  repo.Track(params.Track),
		RoomId: params.RoomId,
	})
	if err != nil {
		return State{}, fmt.Errorf("failed to append track: %w", err)
	}

	player, err := s.roomRepo.GetPlayer(ctx, params.RoomId)
	if err != nil {
		return State{}, fmt.Errorf("failed to get player: %w", err)
	}

	if player.CurrentTrack == repo.NoTrack {
		player.CurrentTrack = 0
		player.Position = 0
		player.LastUpdateTime = s.unixNow()

		if err := s.updatePlayerLocked(ctx, params.RoomId, player); err != nil {
			return State{}, err
		}
	}

	tracks, err := s.roomRepo.GetPlaylist(ctx, params.RoomId)
	if err != nil {
		return State{}, fmt.Errorf("failed to get playlist: %w", err)
	}

	state := buildState(player, tracks)
	s.broadcastStateLocked(params.RoomId, h, state)

	return state, nil
}

// RemoveTrack deletes the playlist entry at the given index and repairs the
// selection: entries before the selection shift it down by one, removing the
// selected entry itself stops playback and restarts the (possibly clamped)
// selection at position 0, and emptying the playlist clears the selection.
func (s *service) RemoveTrack(ctx context.Context, params *RemoveTrackParams) (State, error) {
	if params.Index < 0 {
		return State{}, ErrIndexOutOfRange
	}

	h, err := s.handle(params.RoomId)
	if err != nil {
		return State{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	player, err := s.roomRepo.GetPlayer(ctx, params.RoomId)
	if err != nil {
		return State{}, fmt.Errorf("failed to get player: %w", err)
	}

	_, err = s.roomRepo.RemoveTrack(ctx, &repo.RemoveTrackParams{
		Index:  params.Index,
		RoomId: params.RoomId,
	})
	if err != nil {
		if errors.Is(err, repo.ErrTrackNotFound) {
			return State{}, ErrIndexOutOfRange
		}
		return State{}, fmt.Errorf("failed to remove track: %w", err)
	}

	tracks, err := s.roomRepo.GetPlaylist(ctx, params.RoomId)
	if err != nil {
		return State{}, fmt.Errorf("failed to get playlist: %w", err)
	}

	switch {
	case len(tracks) == 0:
		player.CurrentTrack = repo.NoTrack
		player.Playing = false
		player.Position = 0
	case player.CurrentTrack == repo.NoTrack:
		// Nothing selected, nothing to repair.
	case params.Index < player.CurrentTrack:
		player.CurrentTrack--
	case params.Index == player.CurrentTrack:
		h.cancelPendingPauseLocked()
		if player.CurrentTrack >= len(tracks) {
			player.CurrentTrack = len(tracks) - 1
		}
		player.Playing = false
		player.Position = 0
	}
	player.LastUpdateTime = s.unixNow()

	if err := s.updatePlayerLocked(ctx, params.RoomId, player); err != nil {
		return State{}, err
	}

	state := buildState(player, tracks)
	s.broadcastStateLocked(params.RoomId, h, state)

	return state, nil
}
