package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/openjukebox/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 8000,
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	playlistLimit = configVar[int]{
		envKey:       "SERVER_PLAYLIST_LIMIT",
		flagKey:      "playlist-limit",
		defaultValue: 100,
	}
	seekThreshold = configVar[float64]{
		envKey:       "SERVER_SEEK_THRESHOLD_SEC",
		flagKey:      "seek-threshold-sec",
		defaultValue: 2.5,
	}
	cooldownWindow = configVar[int]{
		envKey:       "SERVER_COOLDOWN_WINDOW_MS",
		flagKey:      "cooldown-window-ms",
		defaultValue: 500,
	}
	pauseGrace = configVar[int]{
		envKey:       "SERVER_PAUSE_GRACE_MS",
		flagKey:      "pause-grace-ms",
		defaultValue: 1000,
	}
	syncInterval = configVar[int]{
		envKey:       "SERVER_SYNC_INTERVAL_MS",
		flagKey:      "sync-interval-ms",
		defaultValue: 1000,
	}
	idleSyncInterval = configVar[int]{
		envKey:       "SERVER_IDLE_SYNC_INTERVAL_MS",
		flagKey:      "idle-sync-interval-ms",
		defaultValue: 10000,
	}
	sqlitePath = configVar[string]{
		envKey:       "SERVER_SQLITE_PATH",
		flagKey:      "sqlite-path",
		defaultValue: "openjukebox.db",
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
	youtubeAPIKey = configVar[string]{
		envKey:       "YOUTUBE_API_KEY",
		flagKey:      "youtube-api-key",
		defaultValue: "",
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.Int(playlistLimit.flagKey, playlistLimit.defaultValue, "Maximum number of tracks in a playlist")
	pflag.Float64(seekThreshold.flagKey, seekThreshold.defaultValue, "Drift in seconds treated as a deliberate seek")
	pflag.Int(cooldownWindow.flagKey, cooldownWindow.defaultValue, "Echo suppression window after a broadcast, in milliseconds")
	pflag.Int(pauseGrace.flagKey, pauseGrace.defaultValue, "Grace window for non-user pauses, in milliseconds")
	pflag.Int(syncInterval.flagKey, syncInterval.defaultValue, "Sync broadcast interval while playing, in milliseconds")
	pflag.Int(idleSyncInterval.flagKey, idleSyncInterval.defaultValue, "Sync broadcast interval while paused, in milliseconds")
	pflag.String(sqlitePath.flagKey, sqlitePath.defaultValue, "Path to the room directory database")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.String(youtubeAPIKey.flagKey, youtubeAPIKey.defaultValue, "YouTube Data API key for track search")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(playlistLimit.flagKey, playlistLimit.envKey)
	viper.BindEnv(seekThreshold.flagKey, seekThreshold.envKey)
	viper.BindEnv(cooldownWindow.flagKey, cooldownWindow.envKey)
	viper.BindEnv(pauseGrace.flagKey, pauseGrace.envKey)
	viper.BindEnv(syncInterval.flagKey, syncInterval.envKey)
	viper.BindEnv(idleSyncInterval.flagKey, idleSyncInterval.envKey)
	viper.BindEnv(sqlitePath.flagKey, sqlitePath.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)
	viper.BindEnv(youtubeAPIKey.flagKey, youtubeAPIKey.envKey)

	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(playlistLimit.flagKey, playlistLimit.defaultValue)
	viper.SetDefault(seekThreshold.flagKey, seekThreshold.defaultValue)
	viper.SetDefault(cooldownWindow.flagKey, cooldownWindow.defaultValue)
	viper.SetDefault(pauseGrace.flagKey, pauseGrace.defaultValue)
	viper.SetDefault(syncInterval.flagKey, syncInterval.defaultValue)
	viper.SetDefault(idleSyncInterval.flagKey, idleSyncInterval.defaultValue)
	viper.SetDefault(sqlitePath.flagKey, sqlitePath.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)
	viper.SetDefault(youtubeAPIKey.flagKey, youtubeAPIKey.defaultValue)

	return &app.AppConfig{
		Host:               viper.GetString(host.flagKey),
		Port:               viper.GetInt(port.flagKey),
		LogLevel:           viper.GetString(logLevel.flagKey),
		PlaylistLimit:      viper.GetInt(playlistLimit.flagKey),
		SeekThresholdSec:   viper.GetFloat64(seekThreshold.flagKey),
		CoolDownWindowMs:   viper.GetInt(cooldownWindow.flagKey),
		PauseGraceMs:       viper.GetInt(pauseGrace.flagKey),
		SyncIntervalMs:     viper.GetInt(syncInterval.flagKey),
		IdleSyncIntervalMs: viper.GetInt(idleSyncInterval.flagKey),
		SqlitePath:         viper.GetString(sqlitePath.flagKey),
		RedisHost:          viper.GetString(redisHost.flagKey),
		RedisPort:          viper.GetInt(redisPort.flagKey),
		RedisPassword:      viper.GetString(redisPassword.flagKey),
		YoutubeAPIKey:      viper.GetString(youtubeAPIKey.flagKey),
	}
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()
	if err := appConfig.Validate(); err != nil {
		log.Fatal(err)
	}

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
