package controller

import (
	"context"
	"errors"

	"github.com/openjukebox/server/internal/service/room"
	"github.com/openjukebox/server/pkg/wsrouter"
)

func (c *controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.OnError(c.handleWSError)

	// playlist
	wsrouter.Handle(mux, "add_track", c.handleAddTrack)
	wsrouter.Handle(mux, "remove_track", c.handleRemoveTrack)

	// playback
	wsrouter.Handle(mux, "play", c.handlePlay)
	wsrouter.Handle(mux, "pause", c.handlePause)
	wsrouter.Handle(mux, "seek", c.handleSeek)
	wsrouter.Handle(mux, "next_track", c.handleNextTrack)
	wsrouter.Handle(mux, "prev_track", c.handlePrevTrack)

	// liveness
	wsrouter.Handle(mux, "sync_request", c.handleSyncRequest)
	wsrouter.Handle(mux, "ping", c.handlePing)

	return mux
}

// handleWSError reports a failed command back to the sender only. The
// connection itself stays up.
func (c *controller) handleWSError(ctx context.Context, conn wsrouter.Conn, err error) {
	c.logger.WarnContext(ctx, "command failed",
		"type", wsrouter.GetMessageTypeFromCtx(ctx),
		"error", err,
	)

	event := room.Event{
		Type: room.EventError,
		Data: map[string]any{"message": clientErrorMessage(err)},
	}
	if sendErr := c.sendEvent(conn, &event); sendErr != nil {
		c.logger.DebugContext(ctx, "failed to send error event", "error", sendErr)
	}
}

func clientErrorMessage(err error) string {
	for _, known := range []error{
		room.ErrRoomNotFound,
		room.ErrEmptyPlaylist,
		room.ErrNoTrackSelected,
		room.ErrIndexOutOfRange,
		room.ErrPlaylistLimitReached,
		room.ErrInvalidTrack,
		room.ErrInvalidPosition,
		room.ErrInvalidPauseReason,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}

	return "internal error"
}
