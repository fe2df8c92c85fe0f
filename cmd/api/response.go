package main

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/portfolio-api/internal/apperr"
)

// envelope is the JSON body of every API response.
type envelope map[string]any

// respond writes a success envelope with the given extra keys.
func respond(c echo.Context, status int, body envelope) error {
	if body == nil {
		body = envelope{}
	}
	body["success"] = true
	return c.JSON(status, body)
}

func respondData(c echo.Context, status int, v any) error {
	return respond(c, status, envelope{"data": v})
}

// bind decodes the request body into v, reporting malformed JSON as a
// validation error.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return apperr.Invalid("body", "Request body must be valid JSON")
	}
	return nil
}

// handleError renders any error returned by a handler or middleware as a
// failure envelope. Causes of server-side failures are logged, never sent.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		switch {
		case he.Code == http.StatusNotFound:
			msg = "Route not found"
		case he.Message != nil:
			if m, ok := he.Message.(string); ok {
				msg = m
			}
		}
		if he.Code >= http.StatusInternalServerError {
			s.log.Error("request failed", zap.Error(err), zap.String("request_id", requestID(c)))
		}
		s.write(c, he.Code, envelope{"success": false, "message": msg})
		return
	}

	e := apperr.As(err)
	status := e.HTTPStatus()
	if status >= http.StatusInternalServerError {
		s.log.Error(e.Message,
			zap.String("kind", string(e.Kind)),
			zap.Error(e.Cause),
			zap.String("request_id", requestID(c)),
		)
	}
	body := envelope{"success": false, "message": e.Message}
	if len(e.Fields) > 0 {
		body["errors"] = e.Fields
	}
	s.write(c, status, body)
}

func (s *Server) write(c echo.Context, status int, body envelope) {
	var err error
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		s.log.Warn("failed to write error response", zap.Error(err))
	}
}

func requestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}
