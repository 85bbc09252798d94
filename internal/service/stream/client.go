package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SignalDesk/internal/domain/models"
	applogger "SignalDesk/pkg/logger"

	"github.com/gorilla/websocket"
)

// Client follows a signal stream and reconnects when the connection drops.
type Client struct {
	url            string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	dialer         *websocket.Dialer
	l              *applogger.Logger
}

// ClientOption configures Client.
type ClientOption func(*Client)

func WithReconnectDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.reconnectDelay = d
		}
	}
}

func WithClientPingInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.pingInterval = d
		}
	}
}

// NewClient creates a stream client for a ws:// or wss:// url.
func NewClient(url string, opts ...ClientOption) *Client {
	c := &Client{
		url:            url,
		reconnectDelay: 2 * time.Second,
		pingInterval:   30 * time.Second,
		dialer:         &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		l:              applogger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetLogger injects a structured logger.
func (c *Client) SetLogger(l *applogger.Logger) {
	if l != nil {
		c.l = l
	}
}

// Run calls fn for every signal received until ctx is done. Frames that do not decode are
// skipped.
func (c *Client) Run(ctx context.Context, fn func(*models.Signal)) error {
	for {
		err := c.session(ctx, fn)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.l.Warn("stream disconnected, reconnecting",
			applogger.String("url", c.url),
			applogger.Duration("delay", c.reconnectDelay),
			applogger.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconnectDelay):
		}
	}
}

func (c *Client) session(ctx context.Context, fn func(*models.Signal)) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("stream connect: %w", err)
	}
	c.l.Info("stream connected", applogger.String("url", c.url))

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-done:
				_ = conn.Close()
				return
			case <-ticker.C:
				_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			}
		}
	}()

	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errors.New("stream closed by server")
			}
			return fmt.Errorf("stream read: %w", err)
		}
		sig, err := models.DecodeSignal(b)
		if err != nil {
			c.l.Debug("skip undecodable frame", applogger.Error(err))
			continue
		}
		fn(sig)
	}
}
