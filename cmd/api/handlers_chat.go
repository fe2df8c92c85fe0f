package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/portfolio-api/internal/apperr"
	"github.com/PaulBabatuyi/portfolio-api/internal/chat"
	"github.com/PaulBabatuyi/portfolio-api/internal/data"
	"github.com/PaulBabatuyi/portfolio-api/internal/normalize"
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

func (s *Server) chatRequest(c echo.Context) (chat.Request, error) {
	var body chatRequest
	if err := bind(c, &body); err != nil {
		return chat.Request{}, err
	}
	return chat.Request{
		SessionID: body.SessionID,
		Message:   body.Message,
		Client:    clientInfo(c),
	}, nil
}

func clientInfo(c echo.Context) data.ClientInfo {
	return data.ClientInfo{
		UserAgent: normalize.Header(c.Request().UserAgent()),
		IPAddress: c.RealIP(),
	}
}

func (s *Server) handleChat(c echo.Context) error {
	req, err := s.chatRequest(c)
	if err != nil {
		return err
	}
	reply, err := s.chat.Reply(c.Request().Context(), req)
	if err != nil {
		s.metrics.ChatReplies.WithLabelValues("complete", "error").Inc()
		return err
	}
	s.metrics.ChatReplies.WithLabelValues("complete", "ok").Inc()
	return respond(c, http.StatusOK, envelope{
		"message":   reply,
		"sessionId": normalize.Text(req.SessionID),
	})
}

// handleChatStream relays the reply as server-sent events. Validation errors
// are still plain JSON because no event has been written yet; every later
// failure is sent as an error event on the open stream.
func (s *Server) handleChatStream(c echo.Context) error {
	req, err := s.chatRequest(c)
	if err != nil {
		return err
	}

	w := c.Response()
	started := false
	start := func() {
		if started {
			return
		}
		started = true
		w.Header().Set(echo.HeaderContentType, "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		w.Flush()
	}
	emit := func(fragment string) error {
		start()
		return writeEvent(w, envelope{"content": fragment})
	}

	_, err = s.chat.Stream(c.Request().Context(), req, emit)
	switch {
	case errors.Is(err, chat.ErrClientGone):
		s.metrics.ChatReplies.WithLabelValues("stream", "abandoned").Inc()
		s.log.Debug("chat stream abandoned by client", zap.String("request_id", requestID(c)))
		return nil
	case err != nil && !started && apperr.IsKind(err, apperr.KindValidation):
		return err
	case err != nil:
		s.metrics.ChatReplies.WithLabelValues("stream", "error").Inc()
		e := apperr.As(err)
		s.log.Error(e.Message, zap.Error(e.Cause), zap.String("request_id", requestID(c)))
		start()
		_ = writeEvent(w, envelope{"error": e.Message})
		return nil
	}

	s.metrics.ChatReplies.WithLabelValues("stream", "ok").Inc()
	start()
	_ = writeEvent(w, envelope{"done": true})
	return nil
}

// writeEvent writes one "data:" frame and flushes it to the client.
func writeEvent(w *echo.Response, payload envelope) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil {
		return err
	}
	w.Flush()
	return nil
}

func (s *Server) handleChatHistory(c echo.Context) error {
	msgs, err := s.chat.History(c.Request().Context(), c.Param("sessionId"))
	if err != nil {
		return err
	}
	if msgs == nil {
		msgs = []data.ChatMessage{}
	}
	return respondData(c, http.StatusOK, msgs)
}
