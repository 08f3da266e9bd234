package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ufunda-orchestrator/internal/application/port/output"
	"ufunda-orchestrator/internal/domain/entity"
)

var _ output.EventSink = (*Hub)(nil)

const (
	clientBuffer = 64
	writeWait    = 10 * time.Second
	pingPeriod   = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub streams events to every connected websocket client. Slow clients drop events
// rather than stall publishers.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  output.LoggerPort
}

type client struct {
	conn *websocket.Conn
	send chan entity.Event
}

func NewHub(logger output.LoggerPort) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Publish(event entity.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- event:
		default:
			h.logger.Warn("Dropping event for slow client", "bot", event.Bot, "type", event.Type)
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and streams events until the client goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan entity.Event, clientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("Event listener connected", "remote", r.RemoteAddr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.writeLoop(c, done)

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	_ = conn.Close()
	h.logger.Debug("Event listener disconnected", "remote", r.RemoteAddr)
}

func (h *Hub) writeLoop(c *client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case event := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(event); err != nil {
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
