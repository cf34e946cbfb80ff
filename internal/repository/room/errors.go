package room

import "errors"

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrTrackNotFound  = errors.New("track not found")
)
