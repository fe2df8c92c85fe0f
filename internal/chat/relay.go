package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/PaulBabatuyi/portfolio-api/internal/apperr"
	"github.com/PaulBabatuyi/portfolio-api/internal/data"
	"github.com/PaulBabatuyi/portfolio-api/internal/normalize"
)

// Input limits, in characters.
const (
	MaxMessage   = 500
	MaxSessionID = 100
)

// ErrClientGone means the visitor disconnected before the reply completed.
// Nothing is persisted in that case.
var ErrClientGone = errors.New("chat client disconnected")

// HistoryStore persists conversations. Implemented by data.ChatsStore.
type HistoryStore interface {
	Append(ctx context.Context, sessionID string, msgs []data.ChatMessage, client data.ClientInfo, now time.Time) error
	History(ctx context.Context, sessionID string) ([]data.ChatMessage, error)
	Recent(ctx context.Context, sessionID string, limit int) ([]data.ChatMessage, error)
}

// Request is one visitor turn.
type Request struct {
	SessionID string
	Message   string
	Client    data.ClientInfo
}

// Relay forwards visitor messages to a Provider and records both sides.
type Relay struct {
	store        HistoryStore
	provider     Provider
	historyLimit int
	log          *zap.Logger
	now          func() time.Time
}

// NewRelay returns a Relay sending at most historyLimit messages, the new one
// included, to the provider.
func NewRelay(store HistoryStore, provider Provider, historyLimit int, log *zap.Logger) *Relay {
	if historyLimit < 1 {
		historyLimit = 10
	}
	return &Relay{
		store:        store,
		provider:     provider,
		historyLimit: historyLimit,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (r *Relay) validate(req *Request) error {
	req.SessionID = normalize.Text(req.SessionID)
	req.Message = normalize.Text(req.Message)

	var fields []apperr.FieldError
	if n := normalize.Len(req.Message); n < 1 || n > MaxMessage {
		fields = append(fields, apperr.FieldError{Field: "message", Message: "Message must be between 1 and 500 characters"})
	}
	if n := normalize.Len(req.SessionID); n < 1 || n > MaxSessionID {
		fields = append(fields, apperr.FieldError{Field: "sessionId", Message: "Session ID is required"})
	}
	if len(fields) > 0 {
		return apperr.Validation(fields...)
	}
	return nil
}

// prompt loads recent history and appends the visitor's new message.
func (r *Relay) prompt(ctx context.Context, req Request) ([]data.ChatMessage, data.ChatMessage, error) {
	history, err := r.store.Recent(ctx, req.SessionID, r.historyLimit-1)
	if err != nil {
		return nil, data.ChatMessage{}, apperr.Internal("Failed to load chat history", err)
	}
	user := data.ChatMessage{Role: data.RoleUser, Content: req.Message, Timestamp: r.now()}
	return append(history, user), user, nil
}

// Reply returns the assistant's full answer and records the exchange.
func (r *Relay) Reply(ctx context.Context, req Request) (string, error) {
	if err := r.validate(&req); err != nil {
		return "", err
	}
	msgs, user, err := r.prompt(ctx, req)
	if err != nil {
		return "", err
	}

	reply, err := r.provider.Complete(ctx, msgs)
	if err != nil {
		return "", r.providerErr(err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", apperr.Upstream("The assistant returned an empty response", nil)
	}

	if err := r.save(ctx, req, user, reply); err != nil {
		return "", err
	}
	return reply, nil
}

// Stream forwards reply fragments to emit as they arrive and returns the full
// reply. The exchange is saved only after a clean end of stream with a
// non-empty reply, even when ctx ended after the last fragment. If emit fails
// or ctx ends while the provider is still producing, ErrClientGone is returned
// and the partial reply is discarded.
func (r *Relay) Stream(ctx context.Context, req Request, emit func(fragment string) error) (string, error) {
	if err := r.validate(&req); err != nil {
		return "", err
	}
	msgs, user, err := r.prompt(ctx, req)
	if err != nil {
		return "", err
	}

	var full strings.Builder
	for fragment, err := range r.provider.Stream(ctx, msgs) {
		if err != nil {
			if ctx.Err() != nil {
				return "", ErrClientGone
			}
			return "", r.providerErr(err)
		}
		full.WriteString(fragment)
		if err := emit(fragment); err != nil {
			return "", ErrClientGone
		}
	}

	reply := full.String()
	if strings.TrimSpace(reply) == "" {
		return "", nil
	}
	// The visitor may leave right after the last fragment; saving still counts.
	if err := r.save(context.WithoutCancel(ctx), req, user, reply); err != nil {
		return "", err
	}
	return reply, nil
}

// History returns the stored conversation of a session.
func (r *Relay) History(ctx context.Context, sessionID string) ([]data.ChatMessage, error) {
	sessionID = normalize.Text(sessionID)
	if n := normalize.Len(sessionID); n < 1 || n > MaxSessionID {
		return nil, apperr.Invalid("sessionId", "Session ID is required")
	}
	msgs, err := r.store.History(ctx, sessionID)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch chat history", err)
	}
	return msgs, nil
}

func (r *Relay) save(ctx context.Context, req Request, user data.ChatMessage, reply string) error {
	assistant := data.ChatMessage{Role: data.RoleAssistant, Content: reply, Timestamp: r.now()}
	if err := r.store.Append(ctx, req.SessionID, []data.ChatMessage{user, assistant}, req.Client, r.now()); err != nil {
		return apperr.Internal("Failed to save chat history", err)
	}
	return nil
}

func (r *Relay) providerErr(err error) error {
	if errors.Is(err, ErrNotConfigured) {
		return apperr.Wrap(err, apperr.KindNotConfigured, "Chat provider is not configured")
	}
	r.log.Error("chat provider failed", zap.Error(err))
	return apperr.Upstream("Failed to get a response from the assistant", err)
}
