// Package redis stores room playback state: one hash per room for the
// player, one list of marshaled tracks for the playlist.
package redis

import (
	"github.com/redis/go-redis/v9"
)

type repo struct {
	rc *redis.Client
}

func NewRepo(rc *redis.Client) *repo {
	return &repo{rc: rc}
}

func (r repo) playerKey(roomId string) string {
	return "room:" + roomId + ":player"
}

func (r repo) playlistKey(roomId string) string {
	return "room:" + roomId + ":playlist"
}
