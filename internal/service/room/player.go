package room

import (
	"context"
	"fmt"
	"math"
	"time"

	repo "github.com/openjukebox/server/internal/repository/room"
)

type SeekParams struct {
	Position   float64
	TrackIndex *int
	RoomId     string
}

type PauseParams struct {
	Reason PauseReason
	RoomId string
}

type ReportPositionParams struct {
	Position float64
	ConnId   string
	RoomId   string
}

func validPosition(position float64) bool {
	return !math.IsNaN(position) && !math.IsInf(position, 0) && position >= 0
}

func (s *service) updatePlayerLocked(ctx context.Context, roomId string, player repo.Player) error {
	err := s.roomRepo.UpdatePlayerState(ctx, &repo.UpdatePlayerStateParams{
		CurrentTrack:   player.CurrentTrack,
		Playing:        player.Playing,
		Position:       player.Position,
		LastUpdateTime: player.LastUpdateTime,
		RoomId:         roomId,
	})
	if err != nil {
		return fmt.Errorf("failed to update player state: %w", err)
	}

	return nil
}

// Play starts playback of the selected track. A pending transient pause is
// discarded since an explicit play contradicts it.
func (s *service) Play(ctx context.Context, roomId string) (State, error) {
	h, err := s.handle(roomId)
	if err != nil {
		return State{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.cancelPendingPauseLocked()

	player, err := s.roomRepo.GetPlayer(ctx, roomId)
	if err != nil {
		return State{}, fmt.Errorf("failed to get player: %w", err)
	}

	if player.CurrentTrack == repo.NoTrack {
		return State{}, ErrEmptyPlaylist
	}

	now := s.unixNow()
	if player.Playing {
		// Already playing: fold the elapsed time in so resetting the
		// update timestamp does not rewind anyone.
		player.Position += now - player.LastUpdateTime
	}
	player.Playing = true
	player.LastUpdateTime = now

	if err := s.updatePlayerLocked(ctx, roomId, player); err != nil {
		return State{}, err
	}

	tracks, err := s.roomRepo.GetPlaylist(ctx, roomId)
	if err != nil {
		return State{}, fmt.Errorf("failed to get playlist: %w", err)
	}

	state := buildState(player, tracks)
	s.broadcastStateLocked(roomId, h, state)

	return state, nil
}

// Pause handles both flavors of pause. A user pause applies immediately. Any
// other reason (buffering, backgrounding, player error) is deferred for the
// grace window first: if playback resumes in the meantime the pause never
// reaches the room. The returned state is nil when the pause was deferred.
func (s *service) Pause(ctx context.Context, params *PauseParams) (*State, error) {
	if !params.Reason.Valid() {
		return nil, ErrInvalidPauseReason
	}

	h, err := s.handle(params.RoomId)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if params.Reason == PauseReasonUser {
		h.cancelPendingPauseLocked()

		state, err := s.applyPauseLocked(ctx, params.RoomId, h)
		if err != nil {
			return nil, err
		}

		return state, nil
	}

	if h.pendingPause != nil {
		return nil, nil
	}

	roomId := params.RoomId
	reason := params.Reason
	h.pendingPause = time.AfterFunc(s.cfg.GraceWindow, func() {
		s.applyDeferredPause(roomId, reason)
	})

	s.logger.DebugContext(ctx, "pause deferred",
		"room_id", roomId,
		"reason", string(reason),
	)

	return nil, nil
}

// applyPauseLocked folds the extrapolated position into the stored one and
// stops playback. Pausing an already paused room only refreshes the
// timestamp.
func (s *service) applyPauseLocked(ctx context.Context, roomId string, h *roomHandle) (*State, error) {
	player, err := s.roomRepo.GetPlayer(ctx, roomId)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	now := s.unixNow()
	if player.Playing {
		player.Position += now - player.LastUpdateTime
	}
	player.Playing = false
	player.LastUpdateTime = now

	if err := s.updatePlayerLocked(ctx, roomId, player); err != nil {
		return nil, err
	}

	tracks, err := s.roomRepo.GetPlaylist(ctx, roomId)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}

	state := buildState(player, tracks)
	s.broadcastStateLocked(roomId, h, state)

	return &state, nil
}

func (s *service) applyDeferredPause(roomId string, reason PauseReason) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h, err := s.handle(roomId)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pendingPause == nil {
		// Canceled between firing and acquiring the lock.
		return
	}
	h.pendingPause = nil

	player, err := s.roomRepo.GetPlayer(ctx, roomId)
	if err != nil {
		s.logger.Warn("failed to apply deferred pause", "room_id", roomId, "error", err)
		return
	}
	if !player.Playing {
		return
	}

	if _, err := s.applyPauseLocked(ctx, roomId, h); err != nil {
		s.logger.Warn("failed to apply deferred pause", "room_id", roomId, "error", err)
		return
	}

	s.logger.Info("deferred pause applied",
		"room_id", roomId,
		"reason", string(reason),
	)
}

// Seek jumps to an absolute position, optionally switching to another track
// first. Playback keeps whatever playing flag it had.
func (s *service) Seek(ctx context.Context, params *SeekParams) (State, error) {
	if !validPosition(params.Position) {
		return State{}, ErrInvalidPosition
	}

	h, err := s.handle(params.RoomId)
	if err != nil {
		return State{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	return s.seekLocked(ctx, params.RoomId, h, params.Position, params.TrackIndex)
}

func (s *service) seekLocked(ctx context.Context, roomId string, h *roomHandle, position float64, trackIndex *int) (State, error) {
	player, err := s.roomRepo.GetPlayer(ctx, roomId)
	if err != nil {
		return State{}, fmt.Errorf("failed to get player: %w", err)
	}

	if trackIndex != nil {
		length, err := s.roomRepo.GetPlaylistLength(ctx, roomId)
		if err != nil {
			return State{}, fmt.Errorf("failed to get playlist length: %w", err)
		}
		if *trackIndex < 0 || *trackIndex >= length {
			return State{}, ErrIndexOutOfRange
		}
		player.CurrentTrack = *trackIndex
	} else if player.CurrentTrack == repo.NoTrack {
		return State{}, ErrNoTrackSelected
	}

	player.Position = position
	player.LastUpdateTime = s.unixNow()

	if err := s.updatePlayerLocked(ctx, roomId, player); err != nil {
		return State{}, err
	}

	tracks, err := s.roomRepo.GetPlaylist(ctx, roomId)
	if err != nil {
		return State{}, fmt.Errorf("failed to get playlist: %w", err)
	}

	state := buildState(player, tracks)
	s.broadcastStateLocked(roomId, h, state)

	return state, nil
}

// ReportPosition feeds a client playback sample into the reconciler. Only
// samples classified as intentional seeks mutate the room; echoes inside the
// cool-down window and ordinary drift are absorbed.
func (s *service) ReportPosition(ctx context.Context, params *ReportPositionParams) (Verdict, error) {
	if !validPosition(params.Position) {
		s.logger.WarnContext(ctx, "dropping malformed position sample",
			"room_id", params.RoomId,
			"conn_id", params.ConnId,
			"position", params.Position,
		)
		return VerdictSuppressed, ErrInvalidPosition
	}

	h, err := s.handle(params.RoomId)
	if err != nil {
		return VerdictSuppressed, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	verdict := h.rec.classify(params.Position, s.now())
	switch verdict {
	case VerdictSuppressed:
		s.logger.DebugContext(ctx, "position sample suppressed",
			"room_id", params.RoomId,
			"conn_id", params.ConnId,
		)
	case VerdictInformational:
		// In-band drift carries no new intent.
	case VerdictIntentional:
		if _, err := s.seekLocked(ctx, params.RoomId, h, params.Position, nil); err != nil {
			return verdict, err
		}
		s.logger.InfoContext(ctx, "client seek applied",
			"room_id", params.RoomId,
			"conn_id", params.ConnId,
			"position", params.Position,
		)
	}

	return verdict, nil
}

// NextTrack moves the selection forward. At the end of the playlist it is a
// no-op: nothing changes and nothing is broadcast.
func (s *service) NextTrack(ctx context.Context, roomId string) (State, error) {
	return s.changeTrack(ctx, roomId, 1)
}

// PrevTrack moves the selection backward, stopping at the first track.
func (s *service) PrevTrack(ctx context.Context, roomId string) (State, error) {
	return s.changeTrack(ctx, roomId, -1)
}

func (s *service) changeTrack(ctx context.Context, roomId string, delta int) (State, error) {
	h, err := s.handle(roomId)
	if err != nil {
		return State{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	player, err := s.roomRepo.GetPlayer(ctx, roomId)
	if err != nil {
		return State{}, fmt.Errorf("failed to get player: %w", err)
	}

	tracks, err := s.roomRepo.GetPlaylist(ctx, roomId)
	if err != nil {
		return State{}, fmt.Errorf("failed to get playlist: %w", err)
	}

	if player.CurrentTrack == repo.NoTrack || len(tracks) == 0 {
		return buildState(player, tracks), nil
	}

	next := player.CurrentTrack + delta
	if next < 0 || next >= len(tracks) {
		// Boundary: stay on the current track, keep playing as-is.
		return buildState(player, tracks), nil
	}

	h.cancelPendingPauseLocked()

	player.CurrentTrack = next
	player.Playing = false
	player.Position = 0
	player.LastUpdateTime = s.unixNow()

	if err := s.updatePlayerLocked(ctx, roomId, player); err != nil {
		return State{}, err
	}

	state := buildState(player, tracks)
	s.broadcastStateLocked(roomId, h, state)

	return state, nil
}
