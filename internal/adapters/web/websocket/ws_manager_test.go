package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestManager_BroadcastReportStatus_ReachesConnectedClient(t *testing.T) {
	m := NewManager()
	server := httptest.NewServer(http.HandlerFunc(m.HandleWebSocket))
	defer server.Close()

	conn := dial(t, server)
	// give HandleWebSocket's goroutine a moment to register the client.
	time.Sleep(50 * time.Millisecond)

	m.BroadcastReportStatus("wlan0", "(main)", "Authenticated", "OK")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	require.Equal(t, "report_status", msg.Type)
	payload, ok := msg.Payload.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "wlan0", payload["interface"])
	require.Equal(t, "Authenticated", payload["state"])
}

func TestManager_BroadcastLifecycle_ReachesConnectedClient(t *testing.T) {
	m := NewManager()
	server := httptest.NewServer(http.HandlerFunc(m.HandleWebSocket))
	defer server.Close()

	conn := dial(t, server)
	time.Sleep(50 * time.Millisecond)

	m.BroadcastLifecycle("wlan0", "aa:bb:cc:dd:ee:ff", "created")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	require.Equal(t, "endpoint_lifecycle", msg.Type)
}

func TestManager_BroadcastWithNoClients_DoesNotPanic(t *testing.T) {
	m := NewManager()
	m.BroadcastReportStatus("wlan0", "(main)", "Held", "OK")
}

func TestManager_DisconnectedClientIsRemoved(t *testing.T) {
	m := NewManager()
	server := httptest.NewServer(http.HandlerFunc(m.HandleWebSocket))
	defer server.Close()

	conn := dial(t, server)
	time.Sleep(50 * time.Millisecond)
	conn.Close()
	time.Sleep(50 * time.Millisecond)

	m.BroadcastReportStatus("wlan0", "(main)", "Held", "OK")

	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.clients) == 0
	}, 2*time.Second, 50*time.Millisecond)
}
