// Package websocket pushes report_status transitions and endpoint
// lifecycle events to connected monitoring clients over a websocket.
package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		allowed := []string{
			"http://localhost:8080",
			"http://127.0.0.1:8080",
			"http://[::1]:8080",
		}
		for _, a := range allowed {
			if origin == a {
				return true
			}
		}
		log.Printf("websocket: rejected origin %s", origin)
		return false
	},
}

// Message is the envelope pushed to every connected client.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Manager fans out Message values to every connected websocket client.
type Manager struct {
	clients map[*websocket.Conn]struct{}
	mu      sync.Mutex
}

func NewManager() *Manager {
	return &Manager{clients: make(map[*websocket.Conn]struct{})}
}

// HandleWebSocket upgrades the request and registers the connection.
func (m *Manager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("websocket upgrade error:", err)
		return
	}

	m.mu.Lock()
	m.clients[conn] = struct{}{}
	m.mu.Unlock()

	go func() {
		defer conn.Close()
		defer func() {
			m.mu.Lock()
			delete(m.clients, conn)
			m.mu.Unlock()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// BroadcastReportStatus pushes an endpoint's report_status transition.
func (m *Manager) BroadcastReportStatus(ifName, endpoint, state, clientStatus string) {
	m.broadcast(Message{
		Type: "report_status",
		Payload: map[string]string{
			"interface":     ifName,
			"endpoint":      endpoint,
			"state":         state,
			"client_status": clientStatus,
		},
	})
}

// BroadcastLifecycle pushes an endpoint creation or removal event.
func (m *Manager) BroadcastLifecycle(ifName, endpoint, kind string) {
	m.broadcast(Message{
		Type: "endpoint_lifecycle",
		Payload: map[string]string{
			"interface": ifName,
			"endpoint":  endpoint,
			"kind":      kind,
		},
	})
}

func (m *Manager) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Println("websocket marshal error:", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(m.clients, conn)
		}
	}
}
