package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/discochess/chessassist/internal/stats"
)

const (
	socketReadLimit = 64 << 10
	socketWriteWait = 10 * time.Second
)

// socketRequest asks for one analysis. ID is echoed back so clients can
// match replies to requests.
type socketRequest struct {
	ID  string `json:"id,omitempty"`
	FEN string `json:"fen"`
}

type socketReply struct {
	ID       string            `json:"id,omitempty"`
	Analysis *analysisResponse `json:"analysis,omitempty"`
	Error    string            `json:"error,omitempty"`
	Status   int               `json:"status,omitempty"`
}

// handleSocket upgrades to a WebSocket and answers each position the client
// sends with an analysis, in order.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(socketReadLimit)

	s.stats.SetGauge(stats.MetricSocketSessions, s.sessions.Add(1))
	defer func() {
		s.stats.SetGauge(stats.MetricSocketSessions, s.sessions.Add(-1))
	}()

	logger := s.logger.With(zap.String("remote", conn.RemoteAddr().String()))
	logger.Info("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("websocket read failed", zap.Error(err))
			}
			logger.Info("websocket closed")
			return
		}
		var req socketRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			if err := s.writeReply(conn, socketReply{Error: "malformed message", Status: http.StatusBadRequest}); err != nil {
				return
			}
			continue
		}

		reply := socketReply{ID: req.ID}
		a, err := s.analyzer.Analyze(ctx, req.FEN)
		if err != nil {
			reply.Error = err.Error()
			reply.Status = statusFor(err)
		} else {
			resp := newAnalysisResponse(a)
			reply.Analysis = &resp
		}
		if err := s.writeReply(conn, reply); err != nil {
			logger.Warn("websocket write failed", zap.Error(err))
			return
		}
	}
}

func (s *Server) writeReply(conn *websocket.Conn, reply socketReply) error {
	conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
	return conn.WriteJSON(reply)
}
