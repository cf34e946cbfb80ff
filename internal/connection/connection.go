// Package connection defines the registry contract for per-room client
// connections and the handle interface the transport layer implements.
package connection

// Connection is one client's transport session within a room. Send must be
// non-blocking and order-preserving; sending to a closed connection is
// reported as an error so the registry can reap the handle.
type Connection interface {
	Id() string
	RoomId() string
	Send(data []byte) error
	Close() error
}
