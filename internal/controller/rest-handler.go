package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/openjukebox/server/internal/service/directory"
	"github.com/openjukebox/server/internal/service/room"
	"github.com/openjukebox/server/pkg/rest"
	"github.com/openjukebox/server/pkg/ytmeta"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 25
)

func (c *controller) writeError(w http.ResponseWriter, status int, message string) {
	if err := rest.WriteJSON(w, status, rest.Envelope{"error": message}); err != nil {
		c.logger.Error("failed to write error response", "error", err)
	}
}

func (c *controller) writeResponse(w http.ResponseWriter, status int, data rest.Envelope) {
	if err := rest.WriteJSON(w, status, data); err != nil {
		c.logger.Error("failed to write response", "error", err)
	}
}

type createRoomRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=500"`
}

func (c *controller) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := rest.ReadJSON(r, &req); err != nil {
		c.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		c.writeResponse(w, http.StatusUnprocessableEntity, rest.Envelope{"errors": validationErrors})
		return
	}

	created, err := c.directoryService.CreateRoom(r.Context(), &directory.CreateRoomParams{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, directory.ErrInvalidRoomName) {
			c.writeError(w, http.StatusBadRequest, "invalid room name")
			return
		}
		c.logger.ErrorContext(r.Context(), "failed to create room", "error", err)
		c.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	c.writeResponse(w, http.StatusCreated, rest.Envelope{"room": created})
}

func (c *controller) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := c.directoryService.ListRooms(r.Context())
	if err != nil {
		c.logger.ErrorContext(r.Context(), "failed to list rooms", "error", err)
		c.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	c.writeResponse(w, http.StatusOK, rest.Envelope{"rooms": rooms})
}

func (c *controller) getRoom(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")

	got, err := c.directoryService.GetRoom(r.Context(), roomId)
	if err != nil {
		if errors.Is(err, directory.ErrRoomNotFound) {
			c.writeError(w, http.StatusNotFound, "room not found")
			return
		}
		c.logger.ErrorContext(r.Context(), "failed to get room", "error", err)
		c.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	c.writeResponse(w, http.StatusOK, rest.Envelope{"room": got})
}

func (c *controller) deleteRoom(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")

	if err := c.directoryService.DeleteRoom(r.Context(), roomId); err != nil {
		if errors.Is(err, directory.ErrRoomNotFound) {
			c.writeError(w, http.StatusNotFound, "room not found")
			return
		}
		c.logger.ErrorContext(r.Context(), "failed to delete room", "error", err)
		c.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *controller) getRoomState(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")

	state, err := c.roomService.Snapshot(r.Context(), roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			c.writeError(w, http.StatusNotFound, "room not found")
			return
		}
		c.logger.ErrorContext(r.Context(), "failed to get room state", "error", err)
		c.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	c.writeResponse(w, http.StatusOK, rest.Envelope{"state": state})
}

func (c *controller) searchTracks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		c.writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxSearchLimit {
			c.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	results, err := c.catalog.Search(r.Context(), query, limit)
	if err != nil {
		if errors.Is(err, ytmeta.ErrNoAPIKey) {
			c.writeError(w, http.StatusServiceUnavailable, "search is not configured")
			return
		}
		c.logger.ErrorContext(r.Context(), "failed to search tracks", "error", err)
		c.writeError(w, http.StatusBadGateway, "search failed")
		return
	}

	c.writeResponse(w, http.StatusOK, rest.Envelope{"results": results})
}

func (c *controller) getVideoDetails(w http.ResponseWriter, r *http.Request) {
	videoId := chi.URLParam(r, "video-id")

	details, err := c.catalog.Details(r.Context(), videoId)
	if err != nil {
		if errors.Is(err, ytmeta.ErrVideoNotFound) {
			c.writeError(w, http.StatusNotFound, "video not found")
			return
		}
		c.logger.ErrorContext(r.Context(), "failed to get video details", "error", err)
		c.writeError(w, http.StatusBadGateway, "lookup failed")
		return
	}

	c.writeResponse(w, http.StatusOK, rest.Envelope{"video": details})
}
