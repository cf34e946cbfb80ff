package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/openjukebox/server/internal/service/room"
	"github.com/openjukebox/server/pkg/wsrouter"
)

type EmptyInput struct{}

type TrackInput struct {
	Id          string `json:"id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Thumbnail   string `json:"thumbnail"`
	Channel     string `json:"channel"`
	Duration    string `json:"duration"`
	PublishedAt string `json:"publishedAt"`
}

type AddTrackInput struct {
	Track TrackInput `json:"track"`
}

func (c *controller) handleAddTrack(ctx context.Context, _ wsrouter.Conn, input AddTrackInput) error {
	if _, ok := c.validate.Validate(input.Track); !ok {
		return room.ErrInvalidTrack
	}

	_, err := c.roomService.AddTrack(ctx, &room.AddTrackParams{
		Track: room.Track{
			Id:          input.Track.Id,
			Title:       input.Track.Title,
			Thumbnail:   input.Track.Thumbnail,
			Channel:     input.Track.Channel,
			Duration:    input.Track.Duration,
			PublishedAt: input.Track.PublishedAt,
		},
		RoomId: c.getRoomIdFromCtx(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to add track: %w", err)
	}

	return nil
}

type RemoveTrackInput struct {
	Index int `json:"index"`
}

func (c *controller) handleRemoveTrack(ctx context.Context, _ wsrouter.Conn, input RemoveTrackInput) error {
	_, err := c.roomService.RemoveTrack(ctx, &room.RemoveTrackParams{
		Index:  input.Index,
		RoomId: c.getRoomIdFromCtx(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to remove track: %w", err)
	}

	return nil
}

func (c *controller) handlePlay(ctx context.Context, _ wsrouter.Conn, _ EmptyInput) error {
	if _, err := c.roomService.Play(ctx, c.getRoomIdFromCtx(ctx)); err != nil {
		return fmt.Errorf("failed to play: %w", err)
	}

	return nil
}

type PauseInput struct {
	Reason string `json:"reason"`
}

func (c *controller) handlePause(ctx context.Context, _ wsrouter.Conn, input PauseInput) error {
	reason := room.PauseReason(input.Reason)
	if input.Reason == "" {
		reason = room.PauseReasonUser
	}

	_, err := c.roomService.Pause(ctx, &room.PauseParams{
		Reason: reason,
		RoomId: c.getRoomIdFromCtx(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}

	return nil
}

type SeekInput struct {
	Position     float64 `json:"position"`
	CurrentTrack *int    `json:"current_track"`
}

// handleSeek covers both meanings of the seek command. With current_track it
// is an explicit track selection and applies directly; without it the
// position is a playback sample and goes through drift classification, so a
// client merely reporting where it is cannot yank the room around.
func (c *controller) handleSeek(ctx context.Context, _ wsrouter.Conn, input SeekInput) error {
	roomId := c.getRoomIdFromCtx(ctx)

	if input.CurrentTrack != nil {
		_, err := c.roomService.Seek(ctx, &room.SeekParams{
			Position:   input.Position,
			TrackIndex: input.CurrentTrack,
			RoomId:     roomId,
		})
		if err != nil {
			return fmt.Errorf("failed to seek: %w", err)
		}

		return nil
	}

	_, err := c.roomService.ReportPosition(ctx, &room.ReportPositionParams{
		Position: input.Position,
		ConnId:   c.getConnIdFromCtx(ctx),
		RoomId:   roomId,
	})
	if err != nil {
		return fmt.Errorf("failed to report position: %w", err)
	}

	return nil
}

func (c *controller) handleNextTrack(ctx context.Context, _ wsrouter.Conn, _ EmptyInput) error {
	if _, err := c.roomService.NextTrack(ctx, c.getRoomIdFromCtx(ctx)); err != nil {
		return fmt.Errorf("failed to change track: %w", err)
	}

	return nil
}

func (c *controller) handlePrevTrack(ctx context.Context, _ wsrouter.Conn, _ EmptyInput) error {
	if _, err := c.roomService.PrevTrack(ctx, c.getRoomIdFromCtx(ctx)); err != nil {
		return fmt.Errorf("failed to change track: %w", err)
	}

	return nil
}

// handleSyncRequest answers the requester only; the rest of the room already
// has the state.
func (c *controller) handleSyncRequest(ctx context.Context, conn wsrouter.Conn, _ EmptyInput) error {
	state, err := c.roomService.Snapshot(ctx, c.getRoomIdFromCtx(ctx))
	if err != nil {
		return fmt.Errorf("failed to snapshot room: %w", err)
	}

	return c.sendEvent(conn, &room.Event{Type: room.EventStateUpdate, Data: state})
}

func (c *controller) handlePing(_ context.Context, conn wsrouter.Conn, _ EmptyInput) error {
	ts := float64(time.Now().UnixNano()) / float64(time.Second)

	return c.sendEvent(conn, &room.Event{Type: room.EventPong, Timestamp: &ts})
}
