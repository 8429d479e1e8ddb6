package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jkmcrg/diybot/internal/chat"
	"go.uber.org/zap"
)

// wsInbound is a chat message from the client.
type wsInbound struct {
	Type    string              `json:"type"`
	Content string              `json:"content"`
	Context chat.SessionContext `json:"context"`
}

// wsOutbound is a reply to the client.
type wsOutbound struct {
	Type       string `json:"type"`
	Content    string `json:"content"`
	Timestamp  string `json:"timestamp"`
	AddedTools int    `json:"added_tools,omitempty"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Info("websocket upgrade failed", zap.Error(err))
		return
	}
	s.track(conn)
	defer s.untrack(conn)

	ctx := r.Context()
	for {
		var in wsInbound
		if err := conn.ReadJSON(&in); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("websocket read ended", zap.Error(err))
			}
			return
		}

		out := s.respond(r, in)
		if err := conn.WriteJSON(out); err != nil {
			s.log.Debug("websocket write failed", zap.Error(err))
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (s *Server) respond(r *http.Request, in wsInbound) wsOutbound {
	reply, err := s.app.Chat.Respond(r.Context(), chat.Turn{Message: in.Content, Context: in.Context})
	if err != nil {
		msg := err.Error()
		if !errors.Is(err, chat.ErrEmptyMessage) {
			s.log.Error("chat turn failed", zap.Error(err))
		}
		return wsOutbound{Type: "error", Content: msg, Timestamp: timestamp()}
	}
	return wsOutbound{
		Type:       "ai_response",
		Content:    reply.Content,
		Timestamp:  reply.Timestamp.UTC().Format(time.RFC3339),
		AddedTools: len(reply.Added),
	}
}

func (s *Server) track(c *websocket.Conn) {
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(c *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	_ = c.Close()
}
