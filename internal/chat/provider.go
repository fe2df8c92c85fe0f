// Package chat relays visitor conversations to a completion provider and
// keeps their history.
package chat

import (
	"context"
	"errors"
	"iter"

	"github.com/PaulBabatuyi/portfolio-api/internal/data"
)

// ErrNotConfigured is returned by Disabled.
var ErrNotConfigured = errors.New("chat provider is not configured")

// Provider produces assistant replies for a conversation, oldest message first.
type Provider interface {
	// Complete returns the whole reply.
	Complete(ctx context.Context, history []data.ChatMessage) (string, error)
	// Stream yields reply fragments. The sequence ends cleanly only when the
	// reply is complete; a failure is yielded once as the final element.
	Stream(ctx context.Context, history []data.ChatMessage) iter.Seq2[string, error]
}

// Disabled is the provider used when no API key is configured.
type Disabled struct{}

func (Disabled) Complete(context.Context, []data.ChatMessage) (string, error) {
	return "", ErrNotConfigured
}

func (Disabled) Stream(context.Context, []data.ChatMessage) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		yield("", ErrNotConfigured)
	}
}
