package main

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/PaulBabatuyi/portfolio-api/internal/apperr"
	"github.com/PaulBabatuyi/portfolio-api/internal/auth"
	"github.com/PaulBabatuyi/portfolio-api/internal/data"
)

// context key type for storing the resolved owner session in context
type ownerContextKey struct{}

// getSessionFromContext extracts the owner session from the context, if present.
func getSessionFromContext(ctx context.Context) (*data.OwnerSession, bool) {
	v := ctx.Value(ownerContextKey{})
	if v == nil {
		return nil, false
	}
	sess, ok := v.(*data.OwnerSession)
	return sess, ok
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// requireOwner rejects the request unless it carries a live owner session,
// which is then attached to the request context for the handler.
func (s *Server) requireOwner(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			return apperr.Unauthorized("Unauthorized: missing owner token")
		}

		ctx := c.Request().Context()
		sess, err := s.sessions.Resolve(ctx, token)
		switch {
		case errors.Is(err, auth.ErrNoSession):
			return apperr.Unauthorized("Unauthorized: invalid or expired owner session")
		case err != nil:
			return apperr.Internal("Failed to validate owner session", err)
		}

		ctx = context.WithValue(ctx, ownerContextKey{}, sess)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}
