package wsrouter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedConn struct {
	incoming [][]byte
	sent     [][]byte
}

func (c *scriptedConn) ReadMessage() ([]byte, error) {
	if len(c.incoming) == 0 {
		return nil, io.EOF
	}

	data := c.incoming[0]
	c.incoming = c.incoming[1:]
	return data, nil
}

func (c *scriptedConn) Send(data []byte) error {
	c.sent = append(c.sent, data)
	return nil
}

func TestServeConnDispatchesByType(t *testing.T) {
	type greetInput struct {
		Name string `json:"name"`
	}

	r := New()

	var got []string
	Handle(r, "greet", func(ctx context.Context, conn Conn, input greetInput) error {
		got = append(got, input.Name)
		return nil
	})

	conn := &scriptedConn{incoming: [][]byte{
		[]byte(`{"type":"greet","name":"alice"}`),
		[]byte(`{"type":"greet","name":"bob"}`),
	}}

	err := r.ServeConn(context.Background(), conn)

	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"alice", "bob"}, got)
}

func TestServeConnReportsErrors(t *testing.T) {
	r := New()

	handlerErr := errors.New("boom")
	Handle(r, "explode", func(ctx context.Context, conn Conn, input struct{}) error {
		return handlerErr
	})

	var reported []error
	var reportedTypes []string
	r.OnError(func(ctx context.Context, conn Conn, err error) {
		reported = append(reported, err)
		reportedTypes = append(reportedTypes, GetMessageTypeFromCtx(ctx))
	})

	conn := &scriptedConn{incoming: [][]byte{
		[]byte(`not json`),
		[]byte(`{"type":"unknown_command"}`),
		[]byte(`{"type":"explode"}`),
	}}

	err := r.ServeConn(context.Background(), conn)
	require.ErrorIs(t, err, io.EOF)

	// Bad messages never terminate the loop, they are reported one by one.
	require.Len(t, reported, 3)
	assert.ErrorIs(t, reported[2], handlerErr)
	assert.Equal(t, "explode", reportedTypes[2])
}

func TestMiddlewareOrder(t *testing.T) {
	r := New()

	var calls []string
	mw := func(name string) Middleware {
		return func(next HandlerFunc) HandlerFunc {
			return func(ctx context.Context, conn Conn, data json.RawMessage) error {
				calls = append(calls, name)
				return next(ctx, conn, data)
			}
		}
	}
	r.Use(mw("outer"))
	r.Use(mw("inner"))

	Handle(r, "noop", func(ctx context.Context, conn Conn, input struct{}) error {
		calls = append(calls, "handler")
		return nil
	})

	conn := &scriptedConn{incoming: [][]byte{[]byte(`{"type":"noop"}`)}}
	err := r.ServeConn(context.Background(), conn)

	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"outer", "inner", "handler"}, calls)
}
