// Package transport adapts a gorilla websocket connection into the handle
// the registry and router operate on: buffered ordered writes, ping/pong
// liveness, slow-consumer isolation.
package transport

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBufferSize = 64
)

// ErrSendBufferFull reports a consumer that cannot keep up with the room's
// broadcast rate. The registry treats it as a dead connection.
var ErrSendBufferFull = errors.New("send buffer full")

var errConnClosed = errors.New("connection closed")

type Conn struct {
	id     string
	roomId string
	ws     *websocket.Conn
	send   chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

func NewConn(id, roomId string, ws *websocket.Conn) *Conn {
	return &Conn{
		id:     id,
		roomId: roomId,
		ws:     ws,
		send:   make(chan []byte, sendBufferSize),
		closed: make(chan struct{}),
	}
}

func (c *Conn) Id() string     { return c.id }
func (c *Conn) RoomId() string { return c.roomId }

// Start configures read liveness and launches the write pump. Must be called
// once before ReadMessage or Send.
func (c *Conn) Start() {
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.writePump()
}

// ReadMessage blocks for the next text message. The read deadline is
// refreshed by pongs, so a silent peer fails the read after pongWait.
func (c *Conn) ReadMessage() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}

	return data, nil
}

// Send queues data for delivery. Delivery order matches call order. A full
// buffer means the consumer is stalled; the caller should disconnect it.
func (c *Conn) Send(data []byte) error {
	select {
	case <-c.closed:
		return errConnClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
	})

	return c.ws.Close()
}

// CloseNormal performs a normal closure handshake so the peer does not
// attempt to reconnect.
func (c *Conn) CloseNormal() error {
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))

	return c.Close()
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.closed:
			return
		case data := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
