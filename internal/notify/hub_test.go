package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// startHub spins up a hub and an HTTP endpoint that upgrades any request,
// taking the user from the ?user= query parameter.
func startHub(t *testing.T) (*Hub, string) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := strconv.ParseInt(r.URL.Query().Get("user"), 10, 64)
		_ = ServeWS(ctx, hub, w, r, userID)
	}))

	t.Cleanup(func() {
		cancel()
		srv.Close()
	})

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	return ev
}

func TestHubDeliversToOwner(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url+"?user=1")

	if ev := readEvent(t, conn); ev.Type != EventConnected {
		t.Fatalf("first event type = %q, want %q", ev.Type, EventConnected)
	}

	hub.Publish(1, Event{Type: EventSessionChanged, Action: "created", SessionID: "abc"})

	ev := readEvent(t, conn)
	if ev.Type != EventSessionChanged {
		t.Errorf("event type = %q, want %q", ev.Type, EventSessionChanged)
	}
	if ev.Action != "created" {
		t.Errorf("action = %q, want created", ev.Action)
	}
	if ev.SessionID != "abc" {
		t.Errorf("session_id = %q, want abc", ev.SessionID)
	}
	if ev.Timestamp.IsZero() {
		t.Error("timestamp not set on publish")
	}
}

func TestHubIsolatesUsers(t *testing.T) {
	hub, url := startHub(t)

	alice := dial(t, url+"?user=1")
	bob := dial(t, url+"?user=2")
	readEvent(t, alice) // connected
	readEvent(t, bob)   // connected

	hub.Publish(1, Event{Type: EventTargetChanged, Month: "2025-06"})

	if ev := readEvent(t, alice); ev.Type != EventTargetChanged {
		t.Errorf("owner got %q, want %q", ev.Type, EventTargetChanged)
	}

	_ = bob.SetReadDeadline(time.Now().Add(250 * time.Millisecond))
	var stray Event
	if err := bob.ReadJSON(&stray); err == nil {
		t.Errorf("other user received event %+v, want none", stray)
	}
}

func TestHubFansOutToAllUserConnections(t *testing.T) {
	hub, url := startHub(t)

	first := dial(t, url+"?user=7")
	second := dial(t, url+"?user=7")
	readEvent(t, first)
	readEvent(t, second)

	hub.Publish(7, Event{Type: EventSessionChanged, Action: "deleted", SessionID: "xyz"})

	for _, conn := range []*websocket.Conn{first, second} {
		if ev := readEvent(t, conn); ev.SessionID != "xyz" {
			t.Errorf("session_id = %q, want xyz", ev.SessionID)
		}
	}
}

func TestHubClientCount(t *testing.T) {
	hub, url := startHub(t)

	conn := dial(t, url+"?user=3")
	readEvent(t, conn)

	if n := hub.ClientCount(); n != 1 {
		t.Errorf("ClientCount() = %d, want 1", n)
	}

	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d after disconnect, want 0", hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
