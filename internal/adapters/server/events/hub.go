// Package events streams committed board changes to WebSocket subscribers.
package events

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	charmLog "github.com/charmbracelet/log"
	"github.com/coder/websocket"

	"github.com/taskopia/taskopia/internal/adapters/server/common"
	"github.com/taskopia/taskopia/internal/domain"
)

// sendBuffer is the per-client queue length. Frames for a full queue are dropped.
const sendBuffer = 64

// FrameTypeChange marks a frame carrying one change event.
const FrameTypeChange = "change"

// Frame is one message written to subscribers.
type Frame struct {
	Type  string             `json:"type"`
	Event common.ChangeEvent `json:"event"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans change events out to connected clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  *charmLog.Logger
}

// NewHub constructs an empty hub. A nil logger discards logs.
func NewHub(logger *charmLog.Logger) *Hub {
	if logger == nil {
		logger = charmLog.New(io.Discard)
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger,
	}
}

// Publish broadcasts one committed change event.
func (h *Hub) Publish(event domain.ChangeEvent) {
	data, err := json.Marshal(Frame{Type: FrameTypeChange, Event: common.MapChangeEvent(event)})
	if err != nil {
		h.logger.Error("marshal change frame", "err", err)
		return
	}
	h.broadcast(data)
}

// Clients reports the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("ws client too slow, dropping frame")
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	h.logger.Debug("ws client connected", "clients", len(h.clients))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.logger.Debug("ws client disconnected", "clients", len(h.clients))
	}
}

// ServeHTTP upgrades the request and streams frames until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("ws accept", "err", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.writePump(ctx, c)
	h.readPump(ctx, c)
}

// readPump drains client frames. Subscribers only listen, so anything read is ignored.
func (h *Hub) readPump(ctx context.Context, c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				h.logger.Debug("ws read closed", "status", status)
			} else {
				h.logger.Debug("ws read error", "err", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(ctx context.Context, c *client) {
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
