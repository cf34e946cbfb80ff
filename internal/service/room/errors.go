package room

import "errors"

var (
	ErrRoomNotFound         = errors.New("room not found")
	ErrEmptyPlaylist        = errors.New("playlist is empty")
	ErrNoTrackSelected      = errors.New("no track selected")
	ErrIndexOutOfRange      = errors.New("track index out of range")
	ErrPlaylistLimitReached = errors.New("playlist limit reached")
	ErrInvalidTrack         = errors.New("invalid track")
	ErrInvalidPosition      = errors.New("invalid position")
	ErrInvalidPauseReason   = errors.New("invalid pause reason")
)
