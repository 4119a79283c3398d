package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/xtding233/reroll-odds/internal/logger"
	"github.com/xtding233/reroll-odds/internal/service"
)

const (
	liveMaxMessageSize = 4096
	liveIdleTimeout    = 2 * time.Minute
	liveWriteTimeout   = 10 * time.Second
)

// liveMessage is one query sent over the websocket. ID is echoed back so a
// dashboard can match replies to the inputs that produced them.
type liveMessage struct {
	ID string `json:"id,omitempty"`
	service.Request
}

type liveReply struct {
	ID       string            `json:"id,omitempty"`
	Status   int               `json:"status"`
	Response *service.Response `json:"response,omitempty"`
	Err      string            `json:"err,omitempty"`
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return s.http.IsOriginAllowed(r.Header.Get("Origin"))
		},
	}
}

// serveLive answers each JSON query message with one JSON reply until the
// client goes away or stays idle past liveIdleTimeout.
func (s *Server) serveLive(w http.ResponseWriter, r *http.Request) {
	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		logger.Warning("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(liveMaxMessageSize)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(liveIdleTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warning("websocket read failed", "error", err)
			}
			return
		}

		reply := s.answer(r, data)
		_ = conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
		if err := conn.WriteJSON(reply); err != nil {
			logger.Warning("websocket write failed", "error", err)
			return
		}
	}
}

func (s *Server) answer(r *http.Request, data []byte) liveReply {
	var msg liveMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return liveReply{Status: http.StatusBadRequest, Err: "invalid json: " + err.Error()}
	}
	resp, err := s.eval.Evaluate(r.Context(), msg.Request)
	if err != nil {
		return liveReply{ID: msg.ID, Status: statusFor(err), Err: err.Error()}
	}
	return liveReply{ID: msg.ID, Status: http.StatusOK, Response: &resp}
}
