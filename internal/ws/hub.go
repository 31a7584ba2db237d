package ws

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

const (
	// sendBuffer bounds each tab's queue. When it is full the oldest queued
	// notification is evicted: a tab only needs the newest catalog and state.
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

// Client is one connected browser tab.
type Client struct {
	conn   *websocket.Conn
	id     string
	send   chan Message
	logger *zap.Logger
}

func newClient(conn *websocket.Conn, id string, logger *zap.Logger) *Client {
	return &Client{
		conn:   conn,
		id:     id,
		send:   make(chan Message, sendBuffer),
		logger: logger.With(zap.String("client_id", id)),
	}
}

// enqueue queues msg without blocking, evicting older messages as needed.
// It reports how many were evicted.
func (c *Client) enqueue(msg Message) int {
	evicted := 0
	for {
		select {
		case c.send <- msg:
			return evicted
		default:
		}
		select {
		case <-c.send:
			evicted++
		default:
		}
	}
}

// Hub tracks the open tabs and fans change notifications out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Register adds a tab.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()
	wsClients.Set(float64(n))
	c.logger.Debug("tab connected", zap.Int("tabs", n))
}

// Unregister removes a tab and closes its queue. Unknown or already removed
// clients are ignored.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	removed := h.clients[c.id] == c
	if removed {
		delete(h.clients, c.id)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	if removed {
		wsClients.Set(float64(n))
		c.logger.Debug("tab disconnected", zap.Int("tabs", n))
	}
}

// Broadcast queues msg for every tab. It never blocks on a slow tab.
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		if n := c.enqueue(msg); n > 0 {
			wsEvicted.Add(float64(n))
			c.logger.Warn("tab falling behind, evicted queued notifications",
				zap.Int("evicted", n), zap.String("type", string(msg.Type)))
		}
	}
	wsBroadcasts.WithLabelValues(string(msg.Type)).Inc()
}

// ClientCount returns the number of open tabs.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll disconnects every tab with StatusGoingAway and waits for the
// close handshakes. Their handlers then unregister them.
func (h *Hub) CloseAll(reason string) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for _, c := range h.clients {
		if c.conn != nil {
			conns = append(conns, c.conn)
		}
	}
	h.mu.RUnlock()

	var wg sync.WaitGroup
	for _, conn := range conns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = conn.Close(websocket.StatusGoingAway, reason)
		}()
	}
	wg.Wait()
	if len(conns) > 0 {
		h.logger.Info("closed websocket tabs", zap.Int("tabs", len(conns)), zap.String("reason", reason))
	}
}

// writePump delivers queued notifications and keeps the connection alive
// with periodic pings.
func (c *Client) writePump(ctx context.Context) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				c.logger.Debug("websocket ping failed", zap.Error(err))
				return
			}
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, c.conn, msg)
			cancel()
			if err != nil {
				c.logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		}
	}
}

// readPump drains the connection until the tab goes away. Tabs only
// listen; anything they send is discarded. Reading also processes the
// pongs writePump waits for.
func (c *Client) readPump(ctx context.Context) {
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}
