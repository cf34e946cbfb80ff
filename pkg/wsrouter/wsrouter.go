// Package wsrouter dispatches JSON websocket messages to typed handlers by
// their "type" field. The rest of the message is decoded into the handler's
// input struct.
package wsrouter

import (
	"context"
	"encoding/json"
	"fmt"
)

// Conn is the minimal connection surface the router needs. Writes must go
// through Send so that per-connection ordering is preserved.
type Conn interface {
	ReadMessage() ([]byte, error)
	Send(data []byte) error
}

type HandlerFunc func(ctx context.Context, conn Conn, data json.RawMessage) error

type Middleware func(next HandlerFunc) HandlerFunc

type ErrorHandlerFunc func(ctx context.Context, conn Conn, err error)

type WSRouter struct {
	routes      map[string]HandlerFunc
	middlewares []Middleware
	onError     ErrorHandlerFunc
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]HandlerFunc)}
}

func (r *WSRouter) Use(mw Middleware) {
	r.middlewares = append(r.middlewares, mw)
}

// OnError sets the handler invoked when a message handler returns an error
// or a message cannot be routed. The read loop keeps going afterwards.
func (r *WSRouter) OnError(fn ErrorHandlerFunc) {
	r.onError = fn
}

// Handle registers a typed handler for the given message type. The full
// message is decoded into T, so the "type" discriminator may coexist with
// the payload fields.
func Handle[T any](r *WSRouter, messageType string, handler func(ctx context.Context, conn Conn, input T) error) {
	r.routes[messageType] = func(ctx context.Context, conn Conn, data json.RawMessage) error {
		var input T
		if err := json.Unmarshal(data, &input); err != nil {
			return fmt.Errorf("failed to decode %s message: %w", messageType, err)
		}

		return handler(ctx, conn, input)
	}
}

// ServeConn reads messages until the connection fails and dispatches each to
// its registered handler. Handler errors are reported through OnError and do
// not terminate the loop.
func (r *WSRouter) ServeConn(ctx context.Context, conn Conn) error {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var envelope struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			r.reportError(ctx, conn, fmt.Errorf("malformed message: %w", err))
			continue
		}

		handler, ok := r.routes[envelope.Type]
		if !ok {
			r.reportError(ctx, conn, fmt.Errorf("unknown message type %q", envelope.Type))
			continue
		}

		for i := len(r.middlewares) - 1; i >= 0; i-- {
			handler = r.middlewares[i](handler)
		}

		msgCtx := context.WithValue(ctx, messageTypeKey, envelope.Type)
		if err := handler(msgCtx, conn, data); err != nil {
			r.reportError(msgCtx, conn, err)
		}
	}
}

func (r *WSRouter) reportError(ctx context.Context, conn Conn, err error) {
	if r.onError != nil {
		r.onError(ctx, conn, err)
	}
}
