package room

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	repo "github.com/openjukebox/server/internal/repository/room"
)

type iRoomRepo interface {
	SetPlayer(ctx context.Context, params *repo.SetPlayerParams) error
	PlayerExists(ctx context.Context, roomId string) (bool, error)
	GetPlayer(ctx context.Context, roomId string) (repo.Player, error)
	UpdatePlayerState(ctx context.Context, params *repo.UpdatePlayerStateParams) error
	RemoveRoom(ctx context.Context, roomId string) error
	AppendTrack(ctx context.Context, params *repo.AppendTrackParams) error
	GetPlaylist(ctx context.Context, roomId string) ([]repo.Track, error)
	GetPlaylistLength(ctx context.Context, roomId string) (int, error)
	RemoveTrack(ctx context.Context, params *repo.RemoveTrackParams) (repo.Track, error)
}

type iConnRegistry interface {
	Broadcast(roomId string, data []byte, exceptId string)
	Count(roomId string) int
	CloseRoom(roomId string)
}

type Config struct {
	PlaylistLimit    int
	SeekThreshold    float64
	CoolDownWindow   time.Duration
	GraceWindow      time.Duration
	SyncInterval     time.Duration
	IdleSyncInterval time.Duration
}

const (
	defaultPlaylistLimit    = 100
	defaultSeekThreshold    = 2.5
	defaultCoolDownWindow   = 500 * time.Millisecond
	defaultGraceWindow      = time.Second
	defaultSyncInterval     = time.Second
	defaultIdleSyncInterval = 10 * time.Second

	defaultVolume = 1.0
)

func (c *Config) withDefaults() Config {
	cfg := *c
	if cfg.PlaylistLimit <= 0 {
		cfg.PlaylistLimit = defaultPlaylistLimit
	}
	if cfg.SeekThreshold <= 0 {
		cfg.SeekThreshold = defaultSeekThreshold
	}
	if cfg.CoolDownWindow <= 0 {
		cfg.CoolDownWindow = defaultCoolDownWindow
	}
	if cfg.GraceWindow <= 0 {
		cfg.GraceWindow = defaultGraceWindow
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = defaultSyncInterval
	}
	if cfg.IdleSyncInterval <= 0 {
		cfg.IdleSyncInterval = defaultIdleSyncInterval
	}

	return cfg
}

// roomHandle serializes all mutations of one room. Repo calls happen while
// the mutex is held, so concurrent commands against the same room apply in a
// total order.
type roomHandle struct {
	mu           sync.Mutex
	rec          *reconciler
	pendingPause *time.Timer
	stop         chan struct{}
}

func (h *roomHandle) cancelPendingPauseLocked() {
	if h.pendingPause != nil {
		h.pendingPause.Stop()
		h.pendingPause = nil
	}
}

type service struct {
	roomRepo iRoomRepo
	registry iConnRegistry
	logger   *slog.Logger
	cfg      Config
	now      func() time.Time

	mu    sync.Mutex
	rooms map[string]*roomHandle
}

func NewService(roomRepo iRoomRepo, registry iConnRegistry, cfg *Config, logger *slog.Logger) *service {
	return &service{
		roomRepo: roomRepo,
		registry: registry,
		logger:   logger,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
		rooms:    make(map[string]*roomHandle),
	}
}

// InitRoom makes the room playable: it seeds the default player state if none
// is stored yet and starts the periodic sync broadcaster. Calling it for an
// already initialized room is a no-op.
func (s *service) InitRoom(ctx context.Context, roomId string) error {
	exists, err := s.roomRepo.PlayerExists(ctx, roomId)
	if err != nil {
		return fmt.Errorf("failed to check player: %w", err)
	}
	if !exists {
		err = s.roomRepo.SetPlayer(ctx, &repo.SetPlayerParams{
			CurrentTrack:   repo.NoTrack,
			Playing:        false,
			Position:       0,
			LastUpdateTime: s.unixNow(),
			Volume:         defaultVolume,
			RoomId:         roomId,
		})
		if err != nil {
			return fmt.Errorf("failed to set player: %w", err)
		}
	}

	s.mu.Lock()
	if _, ok := s.rooms[roomId]; ok {
		s.mu.Unlock()
		return nil
	}
	h := &roomHandle{
		rec:  newReconciler(s.cfg.SeekThreshold, s.cfg.CoolDownWindow),
		stop: make(chan struct{}),
	}
	s.rooms[roomId] = h
	s.mu.Unlock()

	go s.runSyncLoop(roomId, h)

	s.logger.InfoContext(ctx, "room initialized", "room_id", roomId)
	return nil
}

// DropRoom stops the sync broadcaster, disconnects all members and deletes
// the stored state.
func (s *service) DropRoom(ctx context.Context, roomId string) error {
	s.mu.Lock()
	h, ok := s.rooms[roomId]
	if ok {
		delete(s.rooms, roomId)
	}
	s.mu.Unlock()

	if !ok {
		return ErrRoomNotFound
	}

	close(h.stop)

	h.mu.Lock()
	h.cancelPendingPauseLocked()
	h.mu.Unlock()

	s.registry.CloseRoom(roomId)

	if err := s.roomRepo.RemoveRoom(ctx, roomId); err != nil {
		return fmt.Errorf("failed to remove room: %w", err)
	}

	s.logger.InfoContext(ctx, "room dropped", "room_id", roomId)
	return nil
}

// Shutdown stops every sync broadcaster. Stored state is left intact so rooms
// survive a restart.
func (s *service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for roomId, h := range s.rooms {
		close(h.stop)

		h.mu.Lock()
		h.cancelPendingPauseLocked()
		h.mu.Unlock()

		delete(s.rooms, roomId)
	}
}

func (s *service) ParticipantCount(roomId string) int {
	return s.registry.Count(roomId)
}

func (s *service) handle(roomId string) (*roomHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.rooms[roomId]
	if !ok {
		return nil, ErrRoomNotFound
	}

	return h, nil
}

func (s *service) unixNow() float64 {
	return float64(s.now().UnixNano()) / float64(time.Second)
}

func (s *service) getStateLocked(ctx context.Context, roomId string) (State, error) {
	player, err := s.roomRepo.GetPlayer(ctx, roomId)
	if err != nil {
		return State{}, fmt.Errorf("failed to get player: %w", err)
	}

	tracks, err := s.roomRepo.GetPlaylist(ctx, roomId)
	if err != nil {
		return State{}, fmt.Errorf("failed to get playlist: %w", err)
	}

	return buildState(player, tracks), nil
}

func buildState(player repo.Player, tracks []repo.Track) State {
	playlist := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		playlist = append(playlist, Track(t))
	}

	state := State{
		Playlist:       playlist,
		Playing:        player.Playing,
		Position:       player.Position,
		LastUpdateTime: player.LastUpdateTime,
		Volume:         player.Volume,
	}
	if player.CurrentTrack != repo.NoTrack {
		idx := player.CurrentTrack
		state.CurrentTrack = &idx
	}

	return state
}

// extrapolated projects the stored position to the present moment for a
// playing room. Paused rooms are returned as-is.
func (s *service) extrapolated(state State) State {
	if !state.Playing {
		return state
	}

	now := s.unixNow()
	state.Position += now - state.LastUpdateTime
	state.LastUpdateTime = now

	return state
}

// Snapshot returns the room state with the position projected to now.
func (s *service) Snapshot(ctx context.Context, roomId string) (State, error) {
	h, err := s.handle(roomId)
	if err != nil {
		return State{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	state, err := s.getStateLocked(ctx, roomId)
	if err != nil {
		return State{}, err
	}

	return s.extrapolated(state), nil
}

// broadcastStateLocked fans a state_update out to every room member and
// records the broadcast in the reconciler so client echoes of this very
// update are not misread as seeks.
func (s *service) broadcastStateLocked(roomId string, h *roomHandle, state State) {
	data, err := json.Marshal(Event{
		Type: EventStateUpdate,
		Data: state,
	})
	if err != nil {
		s.logger.Error("failed to marshal state update", "room_id", roomId, "error", err)
		return
	}

	s.registry.Broadcast(roomId, data, "")
	h.rec.markBroadcast(state.Position, s.now(), state.Playing)
}

func (s *service) runSyncLoop(roomId string, h *roomHandle) {
	for {
		interval := s.broadcastSync(roomId, h)

		select {
		case <-h.stop:
			return
		case <-time.After(interval):
		}
	}
}

// broadcastSync pushes a master_sync with the extrapolated state and returns
// the delay until the next one. Playing rooms sync tightly, idle rooms on a
// relaxed cadence.
func (s *service) broadcastSync(roomId string, h *roomHandle) time.Duration {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	state, err := s.getStateLocked(ctx, roomId)
	if err != nil {
		s.logger.Warn("failed to build sync state", "room_id", roomId, "error", err)
		return s.cfg.IdleSyncInterval
	}

	state = s.extrapolated(state)

	ts := s.unixNow()
	data, err := json.Marshal(Event{
		Type:      EventMasterSync,
		Data:      state,
		Timestamp: &ts,
	})
	if err != nil {
		s.logger.Error("failed to marshal master sync", "room_id", roomId, "error", err)
		return s.cfg.IdleSyncInterval
	}

	s.registry.Broadcast(roomId, data, "")
	h.rec.markBroadcast(state.Position, s.now(), state.Playing)

	if state.Playing {
		return s.cfg.SyncInterval
	}

	return s.cfg.IdleSyncInterval
}
