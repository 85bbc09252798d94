package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"SignalDesk/internal/domain/models"
	drepo "SignalDesk/internal/domain/repository"
	applogger "SignalDesk/pkg/logger"

	"github.com/gorilla/websocket"
)

// Hub fans created signals out to websocket subscribers. A subscriber that falls behind
// loses messages rather than slowing ingestion.
type Hub struct {
	mu      sync.RWMutex
	clients map[*subscriber]struct{}
	closed  bool

	upgrader     websocket.Upgrader
	sendBuffer   int
	pingInterval time.Duration
	writeTimeout time.Duration
	l            *applogger.Logger
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.send) })
}

// HubOption configures Hub.
type HubOption func(*Hub)

func WithSendBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

func WithPingInterval(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

func WithWriteTimeout(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		clients:      make(map[*subscriber]struct{}),
		sendBuffer:   64,
		pingInterval: 30 * time.Second,
		writeTimeout: 10 * time.Second,
		l:            applogger.NewNop(),
		upgrader: websocket.Upgrader{
			// the REST surface is open to any origin; the stream follows it
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetLogger injects a structured logger.
func (h *Hub) SetLogger(l *applogger.Logger) {
	if l != nil {
		h.l = l
	}
}

// Len returns the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues sig for every subscriber without blocking.
func (h *Hub) Broadcast(sig *models.Signal) {
	if sig == nil {
		return
	}
	b, err := json.Marshal(sig)
	if err != nil {
		h.l.Error("marshal signal for stream", applogger.String("id", sig.ID), applogger.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			h.l.Debug("stream subscriber lagging, dropped signal", applogger.String("id", sig.ID))
		}
	}
}

// ServeWS upgrades the request and streams until the peer goes away or the hub closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &subscriber{conn: conn, send: make(chan []byte, h.sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.l.Debug("stream subscriber joined", applogger.String("remote", r.RemoteAddr), applogger.Int("subscribers", n))

	go h.writeLoop(c)
	h.readLoop(c)
	return nil
}

// readLoop drains control frames; subscribers never send data.
func (h *Hub) readLoop(c *subscriber) {
	defer h.remove(c)
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *subscriber) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case b, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(c *subscriber) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
	return nil
}

var _ drepo.Broadcaster = (*Hub)(nil)
