package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"flood-geoservice/internal/logging"
)

// Hub broadcasts newly raised alerts to connected websocket clients.
type Hub struct {
	logger   *logging.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			// Map viewers connect from arbitrary origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]bool),
	}
}

// Handle upgrades the request and registers the client until it disconnects.
func (h *Hub) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("Websocket upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()
	h.logger.Infof("Websocket client connected (%d total)", h.Count())

	go h.readLoop(conn)
}

// Broadcast sends a JSON payload to every connected client, dropping clients
// whose writes fail.
func (h *Hub) Broadcast(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		h.logger.Errorf("Websocket broadcast marshal failed: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(h.conns, conn)
			_ = conn.Close()
		}
	}
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// readLoop drains client frames so close handshakes are noticed.
func (h *Hub) readLoop(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.mu.Lock()
			delete(h.conns, conn)
			h.mu.Unlock()
			_ = conn.Close()
			return
		}
	}
}
