package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/openjukebox/server/internal/connection"
	"github.com/openjukebox/server/internal/service/directory"
	"github.com/openjukebox/server/internal/service/room"
	"github.com/openjukebox/server/pkg/validator"
	"github.com/openjukebox/server/pkg/wsrouter"
	"github.com/openjukebox/server/pkg/ytmeta"
)

type iRoomService interface {
	Snapshot(ctx context.Context, roomId string) (room.State, error)
	AddTrack(ctx context.Context, params *room.AddTrackParams) (room.State, error)
	RemoveTrack(ctx context.Context, params *room.RemoveTrackParams) (room.State, error)
	Play(ctx context.Context, roomId string) (room.State, error)
	Pause(ctx context.Context, params *room.PauseParams) (*room.State, error)
	Seek(ctx context.Context, params *room.SeekParams) (room.State, error)
	ReportPosition(ctx context.Context, params *room.ReportPositionParams) (room.Verdict, error)
	NextTrack(ctx context.Context, roomId string) (room.State, error)
	PrevTrack(ctx context.Context, roomId string) (room.State, error)
}

type iDirectoryService interface {
	CreateRoom(ctx context.Context, params *directory.CreateRoomParams) (directory.Room, error)
	ListRooms(ctx context.Context) ([]directory.Room, error)
	GetRoom(ctx context.Context, roomId string) (directory.Room, error)
	DeleteRoom(ctx context.Context, roomId string) error
}

type iCatalog interface {
	Search(ctx context.Context, query string, maxResults int) ([]ytmeta.TrackData, error)
	Details(ctx context.Context, videoId string) (*ytmeta.TrackData, error)
}

type iConnRegistry interface {
	Add(conn connection.Connection)
	Remove(conn connection.Connection)
}

type controller struct {
	roomService      iRoomService
	directoryService iDirectoryService
	catalog          iCatalog
	registry         iConnRegistry
	logger           *slog.Logger
	upgrader         websocket.Upgrader
	validate         *validator.Validator
	wsmux            *wsrouter.WSRouter
}

func NewController(
	roomService iRoomService,
	directoryService iDirectoryService,
	catalog iCatalog,
	registry iConnRegistry,
	logger *slog.Logger,
) *controller {
	c := &controller{
		roomService:      roomService,
		directoryService: directoryService,
		catalog:          catalog,
		registry:         registry,
		logger:           logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.New(),
	}
	c.wsmux = c.getWSRouter()

	return c
}
