package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsServer upgrades every request and hands the connection to register.
func wsServer(t *testing.T, register func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		register(conn)
	}))
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	return event
}

func TestBroadcastAdminsReachesAllConnections(t *testing.T) {
	hub := NewHub()
	server := wsServer(t, hub.AddAdmin)
	defer server.Close()

	first := dial(t, server)
	defer first.Close()
	second := dial(t, server)
	defer second.Close()

	hub.BroadcastAdmins(Event{Type: "vote_received", Data: map[string]string{"code": "A101"}})

	for _, conn := range []*websocket.Conn{first, second} {
		event := readEvent(t, conn)
		if event.Type != "vote_received" {
			t.Errorf("event type = %q, want vote_received", event.Type)
		}
	}
}

func TestSendToVoterTargetsSingleConnection(t *testing.T) {
	hub := NewHub()
	codes := make(chan string, 2)
	server := wsServer(t, func(conn *websocket.Conn) {
		hub.AddVoter(<-codes, conn)
	})
	defer server.Close()

	codes <- "A101"
	a101 := dial(t, server)
	defer a101.Close()
	codes <- "B202"
	b202 := dial(t, server)
	defer b202.Close()

	// Registration happens in the server goroutine; wait for both.
	waitFor(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.voters) == 2
	})

	hub.SendToVoter("A101", Event{Type: "vote_confirmed"})

	event := readEvent(t, a101)
	if event.Type != "vote_confirmed" {
		t.Errorf("event type = %q, want vote_confirmed", event.Type)
	}

	b202.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := b202.ReadMessage(); err == nil {
		t.Error("other voter should not receive the event")
	}
}

func TestAddVoterReplacesExistingConnection(t *testing.T) {
	hub := NewHub()
	server := wsServer(t, func(conn *websocket.Conn) {
		hub.AddVoter("A101", conn)
	})
	defer server.Close()

	old := dial(t, server)
	defer old.Close()
	waitFor(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.voters) == 1
	})
	hub.mu.Lock()
	oldServerConn := hub.voters["A101"]
	hub.mu.Unlock()

	replacement := dial(t, server)
	defer replacement.Close()
	waitFor(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return hub.voters["A101"] != oldServerConn
	})

	hub.BroadcastVoters(Event{Type: "new_question"})

	event := readEvent(t, replacement)
	if event.Type != "new_question" {
		t.Errorf("event type = %q, want new_question", event.Type)
	}

	// The replaced connection was closed server-side.
	old.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := old.ReadMessage(); err == nil {
		t.Error("replaced connection should be closed")
	}

	hub.mu.Lock()
	voterCount := len(hub.voters)
	hub.mu.Unlock()
	if voterCount != 1 {
		t.Errorf("voter pool size = %d, want 1", voterCount)
	}
}

func TestBroadcastPrunesDeadConnections(t *testing.T) {
	hub := NewHub()
	server := wsServer(t, hub.AddAdmin)
	defer server.Close()

	alive := dial(t, server)
	defer alive.Close()
	dead := dial(t, server)
	waitFor(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.admins) == 2
	})

	dead.Close()
	// Give the close a moment to propagate to the server side.
	time.Sleep(100 * time.Millisecond)

	hub.BroadcastAdmins(Event{Type: "first"})
	hub.BroadcastAdmins(Event{Type: "second"})

	if event := readEvent(t, alive); event.Type != "first" {
		t.Errorf("event type = %q, want first", event.Type)
	}
	if event := readEvent(t, alive); event.Type != "second" {
		t.Errorf("event type = %q, want second", event.Type)
	}

	// Pruning happens on failed writes, so keep broadcasting until the
	// dead connection is gone.
	waitFor(t, func() bool {
		hub.BroadcastAdmins(Event{Type: "ping"})
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.admins) == 1
	})
}

func TestRemoveVoterIgnoresReplacedConnection(t *testing.T) {
	hub := NewHub()
	server := wsServer(t, func(conn *websocket.Conn) {
		hub.AddVoter("A101", conn)
	})
	defer server.Close()

	old := dial(t, server)
	defer old.Close()
	waitFor(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.voters) == 1
	})
	hub.mu.Lock()
	oldServerConn := hub.voters["A101"]
	hub.mu.Unlock()

	replacement := dial(t, server)
	defer replacement.Close()
	waitFor(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return hub.voters["A101"] != oldServerConn
	})

	// The old connection's read loop exiting must not evict the new one.
	hub.RemoveVoter("A101", oldServerConn)

	hub.mu.Lock()
	still := hub.voters["A101"]
	hub.mu.Unlock()
	if still == nil {
		t.Error("replacement connection was evicted by its predecessor's cleanup")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
