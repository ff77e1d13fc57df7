package watch

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialNotifier(t *testing.T, n *Notifier) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(n.HandleWebSocket))
	t.Cleanup(server.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return n.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestNotifier_Building(t *testing.T) {
	n := NewNotifier(nil)
	defer n.Close()
	conn := dialNotifier(t, n)

	n.NotifyBuilding("net.wire", []string{"net.wire"})

	msg := readMessage(t, conn)
	assert.Equal(t, MessageBuilding, msg.Type)
	assert.Equal(t, "net.wire", msg.Schema)
	assert.Equal(t, []string{"net.wire"}, msg.Files)
	assert.NotZero(t, msg.Timestamp)
}

func TestNotifier_Result(t *testing.T) {
	n := NewNotifier(nil)
	defer n.Close()
	conn := dialNotifier(t, n)

	n.NotifyResult("net.wire", &BuildResult{
		Success:  true,
		Written:  []string{"network/server.luau"},
		Duration: 150 * time.Millisecond,
	}, nil)

	msg := readMessage(t, conn)
	assert.Equal(t, MessageSuccess, msg.Type)
	assert.Equal(t, []string{"network/server.luau"}, msg.Written)
	assert.Equal(t, 150.0, msg.Duration)

	n.NotifyResult("net.wire", &BuildResult{}, errors.New("compilation failed with 1 error(s)"))

	msg = readMessage(t, conn)
	assert.Equal(t, MessageError, msg.Type)
	assert.Equal(t, "compilation failed with 1 error(s)", msg.Error)
}

func TestNotifier_Disconnect(t *testing.T) {
	n := NewNotifier(nil)
	defer n.Close()
	conn := dialNotifier(t, n)

	conn.Close()
	assert.Eventually(t, func() bool { return n.ConnectionCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestNotifier_Close(t *testing.T) {
	n := NewNotifier(nil)
	dialNotifier(t, n)

	n.Close()
	n.Close()
	assert.Equal(t, 0, n.ConnectionCount())

	// sends after Close return instead of blocking
	done := make(chan struct{})
	go func() {
		for i := 0; i < 300; i++ {
			n.NotifyBuilding("net.wire", nil)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notify blocked after Close")
	}
}

func TestLocalOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:7777", true},
		{"http://127.0.0.1:3000", true},
		{"https://example.com", false},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, LocalOrigin(r), tt.origin)
	}
}
