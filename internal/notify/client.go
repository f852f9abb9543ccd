package notify

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/PunchlogHQ/punchlog-web/internal/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Authentication happens before the upgrade, via the bearer token
	// middleware. Origin is not part of the trust model here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request to a WebSocket, registers the connection
// for the given user, and blocks until the connection closes.
func ServeWS(ctx context.Context, hub *Hub, w http.ResponseWriter, r *http.Request, userID int64) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{
		userID: userID,
		conn:   conn,
		send:   make(chan Event, sendBufferSize),
	}
	hub.register <- c

	go c.writePump(ctx)
	c.readPump(ctx, hub)
	return nil
}

// writePump drains the send channel onto the wire and pings on an
// interval shorter than the read deadline.
func (c *client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// readPump consumes (and discards) inbound frames so pong handling and
// close detection work, then unregisters the connection.
func (c *client) readPump(ctx context.Context, hub *Hub) {
	defer func() {
		select {
		case hub.unregister <- c:
		case <-ctx.Done():
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read failed", "user_id", c.userID, "error", err)
			}
			return
		}
	}
}
