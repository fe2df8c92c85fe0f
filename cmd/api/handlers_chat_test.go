package main

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/portfolio-api/internal/chat"
	"github.com/PaulBabatuyi/portfolio-api/internal/data"
)

func TestChatReply(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/chat", map[string]string{"message": "hi", "sessionId": " v1 "}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Hello!", body["message"])
	assert.Equal(t, "v1", body["sessionId"])

	rec = env.do(t, http.MethodGet, "/api/chat/history/v1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode(t, rec)["data"].([]any)
	require.Len(t, history, 2)
	assert.Equal(t, data.RoleUser, history[0].(map[string]any)["role"])
	assert.Equal(t, "Hello!", history[1].(map[string]any)["content"])
}

func TestChatReply_Validation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/chat", map[string]string{"message": strings.Repeat("x", 501), "sessionId": "v1"}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["errors"])
}

func TestChatReply_NotConfigured(t *testing.T) {
	env := newTestEnv(t)
	env.srv.chat = chat.NewRelay(env.chats, chat.Disabled{}, 10, zap.NewNop())

	rec := env.do(t, http.MethodPost, "/api/chat", map[string]string{"message": "hi", "sessionId": "v1"}, "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Chat provider is not configured", decode(t, rec)["message"])
}

func TestChatStream(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/chat/stream", map[string]string{"message": "hi", "sessionId": "v1"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t,
		"data: {\"content\":\"Hel\"}\n\ndata: {\"content\":\"lo!\"}\n\ndata: {\"done\":true}\n\n",
		rec.Body.String())

	history, _ := env.chats.History(t.Context(), "v1")
	require.Len(t, history, 2)
	assert.Equal(t, "Hello!", history[1].Content)
}

func TestChatStream_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	env.provider.fragments = []string{"par"}
	env.provider.err = errors.New("stream reset by peer")

	rec := env.do(t, http.MethodPost, "/api/chat/stream", map[string]string{"message": "hi", "sessionId": "v1"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "data: {\"content\":\"par\"}\n\n")
	assert.Contains(t, rec.Body.String(), "data: {\"error\":\"Failed to get a response from the assistant\"}\n\n")
	assert.NotContains(t, rec.Body.String(), "done")
	assert.NotContains(t, rec.Body.String(), "reset by peer")

	history, _ := env.chats.History(t.Context(), "v1")
	assert.Empty(t, history, "a failed stream must not be recorded")
}

func TestChatStream_ValidationIsJSON(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/chat/stream", map[string]string{"message": "", "sessionId": "v1"}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])
}

func TestChatHistory_Empty(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/chat/history/unknown", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, decode(t, rec)["data"])
}
