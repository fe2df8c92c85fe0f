package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/portfolio-api/internal/apperr"
	"github.com/PaulBabatuyi/portfolio-api/internal/normalize"
)

const maxPasskey = 256

type loginRequest struct {
	Passkey string `json:"passkey"`
}

// handleOwnerLogin exchanges the owner passkey for a fresh session token.
// The body is validated before the configuration check, so a malformed
// request is a 400 even when login is disabled.
func (s *Server) handleOwnerLogin(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	passkey := normalize.Text(req.Passkey)
	if n := normalize.Len(passkey); n < 1 || n > maxPasskey {
		return apperr.Invalid("passkey", "Passkey is required")
	}

	if !s.passkey.Configured() {
		s.metrics.LoginAttempts.WithLabelValues("unconfigured").Inc()
		return apperr.New(apperr.KindNotConfigured, "Owner login is not configured on the server")
	}
	if !s.passkey.Verify(passkey) {
		s.metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		s.log.Warn("owner login rejected", zap.String("remote_ip", c.RealIP()))
		return apperr.Unauthorized("Invalid owner credentials")
	}

	issued, err := s.sessions.Issue(c.Request().Context())
	if err != nil {
		s.metrics.LoginAttempts.WithLabelValues("error").Inc()
		return apperr.Internal("Failed to complete owner login", err)
	}
	s.metrics.LoginAttempts.WithLabelValues("success").Inc()

	return respond(c, http.StatusOK, envelope{
		"token":     issued.Token,
		"expiresAt": issued.ExpiresAt,
	})
}

func (s *Server) handleOwnerMe(c echo.Context) error {
	sess, ok := getSessionFromContext(c.Request().Context())
	if !ok {
		return apperr.Unauthorized("Unauthorized: missing owner token")
	}
	return respond(c, http.StatusOK, envelope{
		"authenticated": true,
		"expiresAt":     sess.ExpiresAt,
	})
}

// handleOwnerLogout revokes the session that authenticated this request.
func (s *Server) handleOwnerLogout(c echo.Context) error {
	sess, ok := getSessionFromContext(c.Request().Context())
	if !ok {
		return apperr.Unauthorized("Unauthorized: missing owner token")
	}
	if err := s.sessions.Revoke(c.Request().Context(), sess.TokenHash); err != nil {
		return apperr.Internal("Failed to logout owner session", err)
	}
	return respond(c, http.StatusOK, envelope{"message": "Logged out successfully"})
}
