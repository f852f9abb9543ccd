// Package notify streams change events to connected clients over
// WebSocket so open dashboards can refresh without polling.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/PunchlogHQ/punchlog-web/internal/logger"
)

// Event types pushed to clients. Liveness is handled by the ping/pong
// pumps, not by an application-level event.
const (
	EventSessionChanged = "session_changed"
	EventTargetChanged  = "target_changed"
	EventConnected      = "connected"
)

// Event is a change notification delivered to a client. SessionID is set
// for session events, Month for target events.
type Event struct {
	Type      string    `json:"type"`
	Action    string    `json:"action,omitempty"` // "created", "updated", "deleted"
	SessionID string    `json:"session_id,omitempty"`
	WorkDate  string    `json:"work_date,omitempty"`
	Month     string    `json:"month,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	sendBufferSize = 64
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
)

// client is one connected WebSocket, bound to the user that opened it.
type client struct {
	userID int64
	conn   *websocket.Conn
	send   chan Event

	closeOnce sync.Once
}

func (c *client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// delivery pairs an event with the user it is addressed to.
type delivery struct {
	userID int64
	ev     Event
}

// Hub fans change events out to every connection a user has open.
// Events for one user are never delivered to another.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool

	register   chan *client
	unregister chan *client
	events     chan delivery
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		events:     make(chan delivery, 256),
	}
}

// Run processes registrations and event delivery until ctx is cancelled.
// Call it once, in its own goroutine.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		for c := range h.clients {
			c.closeSend()
			_ = c.conn.Close()
		}
		h.clients = make(map[*client]bool)
		h.mu.Unlock()
	}()

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("websocket client connected", "user_id", c.userID, "total", total)

			select {
			case c.send <- Event{Type: EventConnected, Timestamp: time.Now()}:
			default:
			}

		case c := <-h.unregister:
			h.remove(c)

		case d := <-h.events:
			h.deliver(d)

		case <-ctx.Done():
			return
		}
	}
}

// deliver sends the event to every connection owned by the addressed
// user. A client whose send buffer is full is dropped rather than
// blocking the hub loop.
func (h *Hub) deliver(d delivery) {
	var stale []*client

	h.mu.RLock()
	for c := range h.clients {
		if c.userID != d.userID {
			continue
		}
		select {
		case c.send <- d.ev:
		default:
			stale = append(stale, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stale {
		h.remove(c)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	c.closeSend()
	_ = c.conn.Close()
	logger.Info("websocket client disconnected", "user_id", c.userID, "total", len(h.clients))
}

// Publish queues an event for the given user's connections. It never
// blocks; if the hub is saturated the event is dropped and logged.
func (h *Hub) Publish(userID int64, ev Event) {
	ev.Timestamp = time.Now()
	select {
	case h.events <- delivery{userID: userID, ev: ev}:
	default:
		logger.Warn("event channel full, dropping notification", "type", ev.Type, "user_id", userID)
	}
}

// ClientCount reports the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
