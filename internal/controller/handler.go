package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/openjukebox/server/internal/service/directory"
	"github.com/openjukebox/server/internal/service/room"
	"github.com/openjukebox/server/internal/transport"
	"github.com/openjukebox/server/pkg/ctxlogger"
	"github.com/openjukebox/server/pkg/wsrouter"
)

// connectRoom upgrades the request and attaches the client to the room: it
// joins the fan-out registry, receives the current state and is then served
// by the command router until the connection drops.
func (c *controller) connectRoom(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")

	if _, err := c.directoryService.GetRoom(r.Context(), roomId); err != nil {
		if errors.Is(err, directory.ErrRoomNotFound) {
			c.writeError(w, http.StatusNotFound, "room not found")
			return
		}
		c.logger.ErrorContext(r.Context(), "failed to get room", "error", err)
		c.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	ws, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	conn := transport.NewConn(uuid.NewString(), roomId, ws)
	conn.Start()

	c.registry.Add(conn)
	defer func() {
		c.registry.Remove(conn)
		conn.Close()
	}()

	ctx := context.WithValue(r.Context(), roomIdCtxKey, roomId)
	ctx = context.WithValue(ctx, connIdCtxKey, conn.Id())
	ctx = ctxlogger.AppendCtx(ctx,
		slog.String("room_id", roomId),
		slog.String("conn_id", conn.Id()),
	)

	state, err := c.roomService.Snapshot(ctx, roomId)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to snapshot room", "error", err)
		return
	}
	if err := c.sendEvent(conn, &room.Event{Type: room.EventStateUpdate, Data: state}); err != nil {
		c.logger.WarnContext(ctx, "failed to send initial state", "error", err)
		return
	}

	c.logger.InfoContext(ctx, "client connected")

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.DebugContext(ctx, "connection closed", "error", err)
	}

	c.logger.InfoContext(ctx, "client disconnected")
}

func (c *controller) sendEvent(conn wsrouter.Conn, event *room.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := conn.Send(data); err != nil {
		return fmt.Errorf("failed to send event: %w", err)
	}

	return nil
}
