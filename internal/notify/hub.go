package notify

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const writeTimeout = 5 * time.Second

// Hub is a websocket Notifier. Editor sessions subscribe per author; each
// notice is pushed to every connection registered for that author, plus the
// wrapped fallback notifier.
type Hub struct {
	mu       sync.RWMutex
	conns    map[string]map[*client]struct{} // authorID -> connections
	fallback Notifier
}

// client wraps a connection with a write lock. gorilla/websocket allows at
// most one concurrent writer per connection, and Notify runs on whichever
// handler goroutine produced the notice.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// NewHub creates a hub that also forwards every notice to fallback
func NewHub(fallback Notifier) *Hub {
	if fallback == nil {
		fallback = LogNotifier{}
	}
	return &Hub{
		conns:    make(map[string]map[*client]struct{}),
		fallback: fallback,
	}
}

// Notify implements Notifier
func (h *Hub) Notify(n Notice) {
	h.fallback.Notify(n)

	if n.SentAt.IsZero() {
		n.SentAt = time.Now()
	}

	data, err := json.Marshal(n)
	if err != nil {
		slog.Error("failed to marshal notice", "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.conns[n.AuthorID]))
	for c := range h.conns[n.AuthorID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(data); err != nil {
			slog.Debug("failed to push notice, dropping connection", "error", err)
			h.remove(n.AuthorID, c)
			c.conn.Close()
		}
	}
}

// ServeWS upgrades the request and registers the connection for authorID.
// It blocks until the client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, authorID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}

	c := &client{conn: conn}
	h.add(authorID, c)
	slog.Info("notice websocket connected", "author_id", authorID)

	defer func() {
		h.remove(authorID, c)
		conn.Close()
		slog.Info("notice websocket disconnected", "author_id", authorID)
	}()

	// Drain the connection; clients only listen but the read loop detects
	// disconnects and handles control frames.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read error", "error", err)
			}
			return
		}
	}
}

func (h *Hub) add(authorID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[authorID] == nil {
		h.conns[authorID] = make(map[*client]struct{})
	}
	h.conns[authorID][c] = struct{}{}
}

func (h *Hub) remove(authorID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.conns[authorID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.conns, authorID)
		}
	}
}

// Close disconnects every registered connection
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.conns {
		for c := range set {
			c.conn.Close()
		}
	}
	h.conns = make(map[string]map[*client]struct{})
	return nil
}
