package kds

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans fired-line events out to kitchen display subscribers, keyed by
// tenant and branch. The fire mutation broadcasts after its transaction
// commits; a display with no listeners simply drops the event.
type Hub struct {
	Logger *zap.Logger

	mu   sync.RWMutex
	subs map[string]map[*client]struct{}
}

type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) writeJSON(value any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(value)
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		Logger: logger,
		subs:   make(map[string]map[*client]struct{}),
	}
}

func hubKey(tenantID, branchID int64) string {
	return fmt.Sprintf("%d:%d", tenantID, branchID)
}

// Handle upgrades the request and keeps the subscriber registered until the
// connection drops. The read loop exists only to detect disconnects.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request, tenantID, branchID int64) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Warn("kds upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn}
	key := hubKey(tenantID, branchID)

	h.mu.Lock()
	if h.subs[key] == nil {
		h.subs[key] = make(map[*client]struct{})
	}
	h.subs[key][c] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.subs[key], c)
		if len(h.subs[key]) == 0 {
			delete(h.subs, key)
		}
		h.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) Broadcast(tenantID, branchID int64, event any) {
	key := hubKey(tenantID, branchID)

	h.mu.RLock()
	clients := make([]*client, 0, len(h.subs[key]))
	for c := range h.subs[key] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.writeJSON(event); err != nil {
			h.Logger.Debug("kds write failed", zap.Error(err))
		}
	}
}
