package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/openjukebox/server/internal/connection/inmemory"
	"github.com/openjukebox/server/internal/controller"
	directorysqlite "github.com/openjukebox/server/internal/repository/directory/sqlite"
	roomredis "github.com/openjukebox/server/internal/repository/room/redis"
	"github.com/openjukebox/server/internal/service/directory"
	"github.com/openjukebox/server/internal/service/room"
	"github.com/openjukebox/server/pkg/ctxlogger"
	"github.com/openjukebox/server/pkg/redisclient"
	"github.com/openjukebox/server/pkg/ytmeta"
)

type AppConfig struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	LogLevel      string `json:"log_level"`
	PlaylistLimit int    `json:"playlist_limit"`

	SeekThresholdSec   float64 `json:"seek_threshold_sec"`
	CoolDownWindowMs   int     `json:"cooldown_window_ms"`
	PauseGraceMs       int     `json:"pause_grace_ms"`
	SyncIntervalMs     int     `json:"sync_interval_ms"`
	IdleSyncIntervalMs int     `json:"idle_sync_interval_ms"`

	SqlitePath    string `json:"sqlite_path"`
	RedisHost     string `json:"redis_host"`
	RedisPort     int    `json:"redis_port"`
	RedisPassword string `json:"-"`
	YoutubeAPIKey string `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.PlaylistLimit < 1 {
		return fmt.Errorf("playlist limit must be greater than 0")
	}
	if cfg.SqlitePath == "" {
		return fmt.Errorf("sqlite path is required")
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		log.Fatal(err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	rc, err := redisclient.New(&redisclient.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	directoryStore, err := directorysqlite.Open(cfg.SqlitePath)
	if err != nil {
		return fmt.Errorf("failed to open directory store: %w", err)
	}
	defer directoryStore.Close()

	registry := inmemory.NewRegistry(logger)
	roomService := room.NewService(roomredis.NewRepo(rc), registry, &room.Config{
		PlaylistLimit:    cfg.PlaylistLimit,
		SeekThreshold:    cfg.SeekThresholdSec,
		CoolDownWindow:   time.Duration(cfg.CoolDownWindowMs) * time.Millisecond,
		GraceWindow:      time.Duration(cfg.PauseGraceMs) * time.Millisecond,
		SyncInterval:     time.Duration(cfg.SyncIntervalMs) * time.Millisecond,
		IdleSyncInterval: time.Duration(cfg.IdleSyncIntervalMs) * time.Millisecond,
	}, logger)
	defer roomService.Shutdown()

	directoryService := directory.NewService(directoryStore, roomService, logger)

	// Rooms on record become playable again after a restart.
	if err := directoryService.RestoreRooms(ctx); err != nil {
		return fmt.Errorf("failed to restore rooms: %w", err)
	}

	catalog := ytmeta.New(cfg.YoutubeAPIKey)

	controller := controller.NewController(roomService, directoryService, catalog, registry, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.GetMux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
