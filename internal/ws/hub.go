package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Event is the envelope pushed to connected observers.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub tracks live observer connections in two pools: one for admin
// dashboards and one for voters, keyed by participant code with at
// most one connection per code (a newer connection replaces the old
// one). Delivery is best-effort: a failed write drops the connection
// from its pool and never fails the operation that triggered it.
type Hub struct {
	mu     sync.Mutex
	admins map[*websocket.Conn]bool
	voters map[string]*websocket.Conn
}

func NewHub() *Hub {
	return &Hub{
		admins: make(map[*websocket.Conn]bool),
		voters: make(map[string]*websocket.Conn),
	}
}

func (h *Hub) AddAdmin(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.admins[conn] = true
	log.Printf("ws: admin connected (total: %d)", len(h.admins))
}

func (h *Hub) RemoveAdmin(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.admins[conn] {
		delete(h.admins, conn)
		conn.Close()
		log.Printf("ws: admin disconnected (total: %d)", len(h.admins))
	}
}

func (h *Hub) AddVoter(code string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.voters[code]; ok && old != conn {
		old.Close()
	}
	h.voters[code] = conn
	log.Printf("ws: voter %s connected (total: %d)", code, len(h.voters))
}

// RemoveVoter drops conn only if it is still the registered connection
// for code, so a replaced connection cannot evict its successor.
func (h *Hub) RemoveVoter(code string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.voters[code] == conn {
		delete(h.voters, code)
		log.Printf("ws: voter %s disconnected", code)
	}
	conn.Close()
}

// BroadcastAdmins sends the event to every admin connection.
func (h *Hub) BroadcastAdmins(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws: marshal error: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var failed []*websocket.Conn
	for conn := range h.admins {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("ws: admin write error: %v", err)
			failed = append(failed, conn)
		}
	}
	for _, conn := range failed {
		delete(h.admins, conn)
		conn.Close()
	}
}

// BroadcastVoters sends the event to every connected voter.
func (h *Hub) BroadcastVoters(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws: marshal error: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var failed []string
	for code, conn := range h.voters {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("ws: voter %s write error: %v", code, err)
			failed = append(failed, code)
		}
	}
	for _, code := range failed {
		h.voters[code].Close()
		delete(h.voters, code)
	}
}

// SendToVoter sends the event to one voter's connection, if connected.
func (h *Hub) SendToVoter(code string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws: marshal error: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.voters[code]
	if !ok {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("ws: voter %s write error: %v", code, err)
		conn.Close()
		delete(h.voters, code)
	}
}
