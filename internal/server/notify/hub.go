package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/printpeak/internal/logging"
	"github.com/dmitrijs2005/printpeak/internal/server/models"
	"github.com/gorilla/websocket"
)

const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

// HubEvent is the message pushed to websocket listeners.
type HubEvent struct {
	Type  string        `json:"type"`
	Order *models.Order `json:"order"`
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts order events to connected websocket clients. Slow clients
// whose buffer fills up are disconnected.
type Hub struct {
	mu       sync.Mutex
	clients  map[*hubClient]struct{}
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// NewHub accepts connections from the given origins; "*" accepts any.
func NewHub(logger logging.Logger, origins []string) *Hub {
	h := &Hub{
		clients: make(map[*hubClient]struct{}),
		logger:  logger.With("module", "ws_hub"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(origins),
	}
	return h
}

// originChecker follows the REST CORS policy: an empty list or "*" admits
// every origin.
func originChecker(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(origins) == 0 {
			return true
		}
		for _, o := range origins {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// Len reports the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeWS upgrades the request and keeps the connection registered until
// the peer goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	c := &hubClient{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) remove(c *hubClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// readPump discards incoming messages; it exists to notice closed peers
// and to answer pings.
func (h *Hub) readPump(c *hubClient) {
	defer func() {
		h.remove(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *hubClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) broadcast(ctx context.Context, ev HubEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn(ctx, "dropping slow websocket client")
			delete(h.clients, c)
			close(c.send)
		}
	}
	return nil
}

func (h *Hub) OrderPlaced(ctx context.Context, _ *models.User, o *models.Order) error {
	return h.broadcast(ctx, HubEvent{Type: EventOrderPlaced, Order: o})
}

func (h *Hub) OrderStatusChanged(ctx context.Context, _ *models.User, o *models.Order) error {
	return h.broadcast(ctx, HubEvent{Type: EventOrderStatusChanged, Order: o})
}
