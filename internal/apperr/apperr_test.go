package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:    http.StatusBadRequest,
		KindUnauthorized:  http.StatusUnauthorized,
		KindNotFound:      http.StatusNotFound,
		KindUpstream:      http.StatusBadGateway,
		KindRateLimited:   http.StatusTooManyRequests,
		KindNotConfigured: http.StatusInternalServerError,
		KindInternal:      http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, New(kind, "x").HTTPStatus(), kind)
	}
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NotFound("Post not found"))
	e := As(wrapped)
	assert.Equal(t, KindNotFound, e.Kind)
	assert.Equal(t, "Post not found", e.Message)

	plain := As(errors.New("socket closed"))
	assert.Equal(t, KindInternal, plain.Kind)
	assert.Equal(t, "Internal server error", plain.Message)
	assert.NotContains(t, plain.Message, "socket")
}

func TestValidationMessage(t *testing.T) {
	one := Invalid("title", "Title is too long")
	assert.Equal(t, "Title is too long", one.Message)
	assert.Len(t, one.Fields, 1)

	many := Validation(FieldError{"a", "x"}, FieldError{"b", "y"})
	assert.Equal(t, "Validation failed", many.Message)
}

func TestIsAndWrap(t *testing.T) {
	cause := errors.New("boom")
	err := Upstream("Chat provider failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, errors.Is(err, New(KindUpstream, "")))
	assert.True(t, IsKind(err, KindUpstream))
	assert.False(t, IsKind(cause, KindUpstream))
	assert.Nil(t, Wrap(nil, KindInternal, "x"))
}
