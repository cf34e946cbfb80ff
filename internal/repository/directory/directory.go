// Package directory defines the room directory record and store errors.
package directory

import (
	"errors"
	"time"
)

var ErrRoomNotFound = errors.New("room not found")

type Room struct {
	Id          string
	Name        string
	Description string
	CreatedAt   time.Time
}

type CreateRoomParams struct {
	Id          string
	Name        string
	Description string
	CreatedAt   time.Time
}
