package watch

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wirec-lang/wirec/internal/compiler/errors"
)

// Message types sent to clients
const (
	MessageBuilding = "building"
	MessageSuccess  = "success"
	MessageError    = "error"
)

// Message is one build notification
type Message struct {
	Type        string           `json:"type"`
	Schema      string           `json:"schema,omitempty"`
	Timestamp   int64            `json:"timestamp"`
	Files       []string         `json:"files,omitempty"`
	Written     []string         `json:"written,omitempty"`
	Duration    float64          `json:"duration,omitempty"` // milliseconds
	Error       string           `json:"error,omitempty"`
	Diagnostics errors.ErrorList `json:"diagnostics,omitempty"`
}

// Notifier fans build notifications out to websocket clients
type Notifier struct {
	logger      *zap.Logger
	connections map[*websocket.Conn]bool
	broadcast   chan *Message
	register    chan *websocket.Conn
	unregister  chan *websocket.Conn
	done        chan struct{}
	closeOnce   sync.Once
	mutex       sync.RWMutex
	upgrader    websocket.Upgrader
}

// NewNotifier creates a notifier and starts its event loop
func NewNotifier(logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &Notifier{
		logger:      logger.Named("notify"),
		connections: make(map[*websocket.Conn]bool),
		broadcast:   make(chan *Message, 256),
		register:    make(chan *websocket.Conn),
		unregister:  make(chan *websocket.Conn),
		done:        make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin:     LocalOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	go n.run()

	return n
}

// LocalOrigin accepts same-origin requests and pages served from the
// loopback interface
func LocalOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, prefix := range []string{"http://localhost", "https://localhost", "http://127.0.0.1", "https://127.0.0.1"} {
		if strings.HasPrefix(origin, prefix) {
			return true
		}
	}
	return false
}

func (n *Notifier) run() {
	for {
		select {
		case <-n.done:
			return

		case conn := <-n.register:
			n.mutex.Lock()
			n.connections[conn] = true
			count := len(n.connections)
			n.mutex.Unlock()
			n.logger.Debug("client connected", zap.Int("clients", count))

		case conn := <-n.unregister:
			n.mutex.Lock()
			if _, ok := n.connections[conn]; ok {
				delete(n.connections, conn)
				conn.Close()
			}
			count := len(n.connections)
			n.mutex.Unlock()
			n.logger.Debug("client disconnected", zap.Int("clients", count))

		case message := <-n.broadcast:
			n.sendToAll(message)
		}
	}
}

func (n *Notifier) sendToAll(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		n.logger.Error("encoding message", zap.Error(err))
		return
	}

	n.mutex.RLock()
	var failed []*websocket.Conn
	for conn := range n.connections {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			n.logger.Debug("send failed", zap.Error(err))
			failed = append(failed, conn)
		}
	}
	n.mutex.RUnlock()

	if len(failed) > 0 {
		n.mutex.Lock()
		for _, conn := range failed {
			if _, ok := n.connections[conn]; ok {
				conn.Close()
				delete(n.connections, conn)
			}
		}
		n.mutex.Unlock()
	}
}

// HandleWebSocket upgrades the request and subscribes the client
func (n *Notifier) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := n.upgrader.Upgrade(w, r, nil)
	if err != nil {
		n.logger.Debug("upgrade failed", zap.Error(err))
		return
	}

	select {
	case n.register <- conn:
	case <-n.done:
		conn.Close()
		return
	}

	go n.readMessages(conn)
}

// readMessages drains the client so pings and close frames are handled
func (n *Notifier) readMessages(conn *websocket.Conn) {
	defer func() {
		select {
		case n.unregister <- conn:
		case <-n.done:
		}
	}()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				n.logger.Debug("websocket error", zap.Error(err))
			}
			return
		}
	}
}

func (n *Notifier) send(message *Message) {
	message.Timestamp = time.Now().Unix()
	select {
	case n.broadcast <- message:
	case <-n.done:
	}
}

// NotifyBuilding announces that a rebuild started
func (n *Notifier) NotifyBuilding(schema string, files []string) {
	n.send(&Message{Type: MessageBuilding, Schema: schema, Files: files})
}

// NotifyResult announces the outcome of a rebuild
func (n *Notifier) NotifyResult(schema string, result *BuildResult, err error) {
	message := &Message{
		Type:        MessageSuccess,
		Schema:      schema,
		Files:       result.Changed,
		Written:     result.Written,
		Duration:    float64(result.Duration.Milliseconds()),
		Diagnostics: result.Diagnostics,
	}
	if err != nil {
		message.Type = MessageError
		message.Error = err.Error()
	}
	n.send(message)
}

// ConnectionCount returns the number of subscribed clients
func (n *Notifier) ConnectionCount() int {
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	return len(n.connections)
}

// Close disconnects every client and stops the event loop
func (n *Notifier) Close() {
	n.closeOnce.Do(func() {
		close(n.done)

		n.mutex.Lock()
		defer n.mutex.Unlock()
		for conn := range n.connections {
			conn.Close()
		}
		n.connections = make(map[*websocket.Conn]bool)
	})
}
