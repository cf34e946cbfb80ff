// Package wsclient is a websocket client that keeps its room connection
// alive: when the link drops it reconnects with exponential backoff, and the
// server pushes fresh state on reattach, so consumers converge without any
// replay logic of their own.
package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	ErrNotConnected      = errors.New("not connected")
	ErrClientClosed      = errors.New("client closed")
	ErrAttemptsExhausted = errors.New("reconnect attempts exhausted")
)

type Config struct {
	URL string

	// BaseDelay is the first reconnect delay; each retry doubles it up to
	// MaxDelay. MaxAttempts of 0 retries forever.
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int

	HandshakeTimeout time.Duration
}

const (
	defaultBaseDelay        = time.Second
	defaultMaxDelay         = 30 * time.Second
	defaultHandshakeTimeout = 10 * time.Second

	eventBufferSize = 64
)

func (c *Config) withDefaults() Config {
	cfg := *c
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaultMaxDelay
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}

	return cfg
}

type Client struct {
	cfg    Config
	dialer *websocket.Dialer
	logger *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn

	events    chan []byte
	closeOnce sync.Once
	closed    chan struct{}
}

func New(cfg *Config, logger *slog.Logger) *Client {
	c := cfg.withDefaults()

	return &Client{
		cfg: c,
		dialer: &websocket.Dialer{
			HandshakeTimeout: c.HandshakeTimeout,
		},
		logger: logger,
		events: make(chan []byte, eventBufferSize),
		closed: make(chan struct{}),
	}
}

// Events delivers every message received from the server, across
// reconnects. The channel is closed when Run returns.
func (c *Client) Events() <-chan []byte {
	return c.events
}

// Run connects and keeps the connection alive until the context is canceled,
// Close is called, or MaxAttempts consecutive dials fail.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.events)

	attempt := 0
	for {
		conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
		if err != nil {
			attempt++
			if c.cfg.MaxAttempts > 0 && attempt >= c.cfg.MaxAttempts {
				return fmt.Errorf("%w: %s", ErrAttemptsExhausted, err)
			}

			delay := c.nextDelay(attempt)
			c.logger.Warn("connect failed, retrying",
				"url", c.cfg.URL,
				"attempt", attempt,
				"delay", delay.String(),
				"error", err,
			)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.closed:
				return nil
			case <-time.After(delay):
			}
			continue
		}

		attempt = 0
		c.setConn(conn)
		c.logger.Info("connected", "url", c.cfg.URL)

		err = c.readLoop(ctx, conn)
		c.setConn(nil)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			return nil
		default:
		}

		if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			return nil
		}

		c.logger.Warn("connection lost, reconnecting", "url", c.cfg.URL, "error", err)
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			return err
		}

		select {
		case c.events <- data:
		case <-ctx.Done():
			conn.Close()
			return ctx.Err()
		case <-c.closed:
			conn.Close()
			return nil
		}
	}
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
}

// Send writes one message. Between reconnect attempts it fails with
// ErrNotConnected rather than queueing: commands against a room the client
// cannot see are better retried by the caller against fresh state.
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.closed:
		return ErrClientClosed
	default:
	}

	if c.conn == nil {
		return ErrNotConnected
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (c *Client) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return c.Send(data)
}

// Close leaves deliberately: a closing handshake is attempted and no
// reconnect follows.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)

		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()

		if conn != nil {
			deadline := time.Now().Add(time.Second)
			err = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				deadline,
			)
			conn.Close()
		}
	})

	return err
}

func (c *Client) nextDelay(attempt int) time.Duration {
	delay := c.cfg.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.cfg.MaxDelay {
			return c.cfg.MaxDelay
		}
	}
	if delay > c.cfg.MaxDelay {
		return c.cfg.MaxDelay
	}

	return delay
}
