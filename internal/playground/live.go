package playground

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wirec-lang/wirec/internal/watch"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     watch.LocalOrigin,
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

const liveIdleTimeout = 5 * time.Minute

// LiveMessage is sent back for every schema received on the live socket
type LiveMessage struct {
	Type    string `json:"type"` // "result" or "error"
	Session string `json:"session"`
	Seq     int    `json:"seq"`
	*CompileResponse
	Error string `json:"error,omitempty"`
}

// handleLive recompiles every message a client sends and replies with the
// result. Each connection is its own session.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	session := uuid.New().String()
	log := s.logger.With(
		zap.String("session", session),
		zap.String("request_id", GetRequestID(r.Context())))
	log.Debug("live session opened")
	defer log.Debug("live session closed")

	conn.SetReadLimit(MaxSourceBytes)
	for seq := 1; ; seq++ {
		conn.SetReadDeadline(time.Now().Add(liveIdleTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("websocket error", zap.Error(err))
			}
			return
		}

		reply := &LiveMessage{Type: "result", Session: session, Seq: seq}
		req, err := parseRequest(data)
		if err == nil {
			reply.CompileResponse, err = s.compile(req)
		}
		if err != nil {
			reply.Type = "error"
			reply.Error = err.Error()
		}

		if err := conn.WriteJSON(reply); err != nil {
			log.Debug("write failed", zap.Error(err))
			return
		}
	}
}
