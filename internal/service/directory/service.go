// Package directory manages the room directory: creating, listing and
// deleting rooms, and keeping the playback side in step with the records.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	repo "github.com/openjukebox/server/internal/repository/directory"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrInvalidRoomName = errors.New("invalid room name")
)

type iDirectoryRepo interface {
	CreateRoom(params *repo.CreateRoomParams) (repo.Room, error)
	ListRooms() ([]repo.Room, error)
	GetRoom(id string) (repo.Room, error)
	DeleteRoom(id string) error
}

// iPlayback is the slice of the playback service the directory drives: rooms
// become playable when created and are torn down when deleted.
type iPlayback interface {
	InitRoom(ctx context.Context, roomId string) error
	DropRoom(ctx context.Context, roomId string) error
	ParticipantCount(roomId string) int
}

type Room struct {
	Id           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"createdAt"`
	Participants int       `json:"participants"`
}

type CreateRoomParams struct {
	Name        string
	Description string
}

type service struct {
	repo     iDirectoryRepo
	playback iPlayback
	logger   *slog.Logger

	generateId func() string
	now        func() time.Time
}

func NewService(repo iDirectoryRepo, playback iPlayback, logger *slog.Logger) *service {
	return &service{
		repo:       repo,
		playback:   playback,
		logger:     logger,
		generateId: uuid.NewString,
		now:        time.Now,
	}
}

func (s *service) CreateRoom(ctx context.Context, params *CreateRoomParams) (Room, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return Room{}, ErrInvalidRoomName
	}

	record, err := s.repo.CreateRoom(&repo.CreateRoomParams{
		Id:          s.generateId(),
		Name:        name,
		Description: strings.TrimSpace(params.Description),
		// Stored at second precision.
		CreatedAt:   s.now().UTC().Truncate(time.Second),
	})
	if err != nil {
		return Room{}, fmt.Errorf("failed to create room: %w", err)
	}

	if err := s.playback.InitRoom(ctx, record.Id); err != nil {
		if delErr := s.repo.DeleteRoom(record.Id); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to roll back room record",
				"room_id", record.Id,
				"error", delErr,
			)
		}
		return Room{}, fmt.Errorf("failed to init room: %w", err)
	}

	s.logger.InfoContext(ctx, "room created", "room_id", record.Id, "name", name)

	return s.toRoom(record), nil
}

func (s *service) ListRooms(ctx context.Context) ([]Room, error) {
	records, err := s.repo.ListRooms()
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	rooms := make([]Room, 0, len(records))
	for _, record := range records {
		rooms = append(rooms, s.toRoom(record))
	}

	return rooms, nil
}

func (s *service) GetRoom(ctx context.Context, roomId string) (Room, error) {
	record, err := s.repo.GetRoom(roomId)
	if err != nil {
		if errors.Is(err, repo.ErrRoomNotFound) {
			return Room{}, ErrRoomNotFound
		}
		return Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	return s.toRoom(record), nil
}

func (s *service) DeleteRoom(ctx context.Context, roomId string) error {
	err := s.repo.DeleteRoom(roomId)
	if err != nil {
		if errors.Is(err, repo.ErrRoomNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("failed to delete room: %w", err)
	}

	if err := s.playback.DropRoom(ctx, roomId); err != nil {
		// The record is gone; a missing playback side is not an error here.
		s.logger.WarnContext(ctx, "failed to drop room playback",
			"room_id", roomId,
			"error", err,
		)
	}

	s.logger.InfoContext(ctx, "room deleted", "room_id", roomId)
	return nil
}

// RestoreRooms makes every room on record playable again. Called once at
// startup so rooms survive a restart.
func (s *service) RestoreRooms(ctx context.Context) error {
	records, err := s.repo.ListRooms()
	if err != nil {
		return fmt.Errorf("failed to list rooms: %w", err)
	}

	for _, record := range records {
		if err := s.playback.InitRoom(ctx, record.Id); err != nil {
			return fmt.Errorf("failed to restore room %s: %w", record.Id, err)
		}
	}

	s.logger.InfoContext(ctx, "rooms restored", "count", len(records))
	return nil
}

func (s *service) toRoom(record repo.Room) Room {
	return Room{
		Id:           record.Id,
		Name:         record.Name,
		Description:  record.Description,
		CreatedAt:    record.CreatedAt,
		Participants: s.playback.ParticipantCount(record.Id),
	}
}
