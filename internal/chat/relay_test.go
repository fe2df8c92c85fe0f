package chat

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/portfolio-api/internal/apperr"
	"github.com/PaulBabatuyi/portfolio-api/internal/data"
)

type memStore struct {
	mu    sync.Mutex
	chats map[string][]data.ChatMessage
	err   error
}

func newMemStore() *memStore { return &memStore{chats: map[string][]data.ChatMessage{}} }

func (m *memStore) Append(_ context.Context, sid string, msgs []data.ChatMessage, _ data.ClientInfo, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.chats[sid] = append(m.chats[sid], msgs...)
	return nil
}

func (m *memStore) History(_ context.Context, sid string) ([]data.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]data.ChatMessage{}, m.chats[sid]...), m.err
}

func (m *memStore) Recent(ctx context.Context, sid string, limit int) ([]data.ChatMessage, error) {
	all, err := m.History(ctx, sid)
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, err
}

type scriptedProvider struct {
	fragments []string
	err       error
	seen      [][]data.ChatMessage
}

func (p *scriptedProvider) Complete(_ context.Context, history []data.ChatMessage) (string, error) {
	p.seen = append(p.seen, history)
	if p.err != nil {
		return "", p.err
	}
	return strings.Join(p.fragments, ""), nil
}

func (p *scriptedProvider) Stream(ctx context.Context, history []data.ChatMessage) iter.Seq2[string, error] {
	p.seen = append(p.seen, history)
	return func(yield func(string, error) bool) {
		for _, f := range p.fragments {
			if ctx.Err() != nil {
				yield("", ctx.Err())
				return
			}
			if !yield(f, nil) {
				return
			}
		}
		if p.err != nil {
			yield("", p.err)
		}
	}
}

func newTestRelay(p Provider) (*Relay, *memStore) {
	store := newMemStore()
	return NewRelay(store, p, 10, zap.NewNop()), store
}

func TestReply_PersistsExchange(t *testing.T) {
	p := &scriptedProvider{fragments: []string{"Hi ", "there"}}
	relay, store := newTestRelay(p)

	reply, err := relay.Reply(context.Background(), Request{SessionID: " s1 ", Message: " hello "})
	require.NoError(t, err)
	assert.Equal(t, "Hi there", reply)

	msgs := store.chats["s1"]
	require.Len(t, msgs, 2)
	assert.Equal(t, data.RoleUser, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, data.RoleAssistant, msgs[1].Role)
}

func TestReply_SendsBoundedHistory(t *testing.T) {
	p := &scriptedProvider{fragments: []string{"ok"}}
	relay, _ := newTestRelay(p)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		_, err := relay.Reply(ctx, Request{SessionID: "s", Message: "q"})
		require.NoError(t, err)
	}

	last := p.seen[len(p.seen)-1]
	assert.Len(t, last, 10)
	assert.Equal(t, data.RoleUser, last[len(last)-1].Role)
}

func TestReply_Validation(t *testing.T) {
	relay, _ := newTestRelay(&scriptedProvider{})
	ctx := context.Background()

	for _, req := range []Request{
		{SessionID: "s", Message: "   "},
		{SessionID: "s", Message: strings.Repeat("m", MaxMessage+1)},
		{SessionID: "", Message: "hi"},
		{SessionID: strings.Repeat("s", MaxSessionID+1), Message: "hi"},
	} {
		_, err := relay.Reply(ctx, req)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation), "%+v: %v", req, err)
	}
}

func TestReply_ProviderErrors(t *testing.T) {
	relay, store := newTestRelay(Disabled{})
	_, err := relay.Reply(context.Background(), Request{SessionID: "s", Message: "hi"})
	assert.True(t, apperr.IsKind(err, apperr.KindNotConfigured))

	relay, store = newTestRelay(&scriptedProvider{err: errors.New("429 from upstream")})
	_, err = relay.Reply(context.Background(), Request{SessionID: "s", Message: "hi"})
	require.True(t, apperr.IsKind(err, apperr.KindUpstream))
	assert.NotContains(t, apperr.As(err).Message, "429")
	assert.Empty(t, store.chats["s"])
}

func TestStream_CleanCompletion(t *testing.T) {
	relay, store := newTestRelay(&scriptedProvider{fragments: []string{"a", "b", "c"}})

	var got []string
	reply, err := relay.Stream(context.Background(), Request{SessionID: "s", Message: "hi"}, func(f string) error {
		got = append(got, f)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, "abc", reply)
	require.Len(t, store.chats["s"], 2)
	assert.Equal(t, "abc", store.chats["s"][1].Content)
}

func TestStream_ClientDisconnectDiscards(t *testing.T) {
	relay, store := newTestRelay(&scriptedProvider{fragments: []string{"a", "b", "c"}})

	n := 0
	_, err := relay.Stream(context.Background(), Request{SessionID: "s", Message: "hi"}, func(string) error {
		n++
		if n == 2 {
			return errors.New("broken pipe")
		}
		return nil
	})
	assert.ErrorIs(t, err, ErrClientGone)
	assert.Empty(t, store.chats["s"])
}

func TestStream_ContextCanceledDiscards(t *testing.T) {
	relay, store := newTestRelay(&scriptedProvider{fragments: []string{"a", "b", "c"}})
	ctx, cancel := context.WithCancel(context.Background())

	_, err := relay.Stream(ctx, Request{SessionID: "s", Message: "hi"}, func(string) error {
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, ErrClientGone)
	assert.Empty(t, store.chats["s"])
}

func TestStream_CompleteReplySavedAfterLateCancel(t *testing.T) {
	relay, store := newTestRelay(&scriptedProvider{fragments: []string{"a", "b"}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := 0
	reply, err := relay.Stream(ctx, Request{SessionID: "s", Message: "hi"}, func(string) error {
		n++
		if n == 2 {
			// visitor leaves while the final fragment is being written
			cancel()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ab", reply)
	require.Len(t, store.chats["s"], 2)
	assert.Equal(t, "ab", store.chats["s"][1].Content)
}

func TestStream_UpstreamFailureMidStream(t *testing.T) {
	relay, store := newTestRelay(&scriptedProvider{fragments: []string{"a"}, err: errors.New("reset")})

	_, err := relay.Stream(context.Background(), Request{SessionID: "s", Message: "hi"}, func(string) error { return nil })
	assert.True(t, apperr.IsKind(err, apperr.KindUpstream))
	assert.Empty(t, store.chats["s"])
}

func TestStream_EmptyReplyNotSaved(t *testing.T) {
	relay, store := newTestRelay(&scriptedProvider{fragments: []string{" "}})

	reply, err := relay.Stream(context.Background(), Request{SessionID: "s", Message: "hi"}, func(string) error { return nil })
	require.NoError(t, err)
	assert.Empty(t, reply)
	assert.Empty(t, store.chats["s"])
}

func TestHistory(t *testing.T) {
	relay, store := newTestRelay(&scriptedProvider{fragments: []string{"x"}})
	_, err := relay.Reply(context.Background(), Request{SessionID: "s", Message: "hi"})
	require.NoError(t, err)

	msgs, err := relay.History(context.Background(), "s")
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	empty, err := relay.History(context.Background(), "other")
	require.NoError(t, err)
	assert.Empty(t, empty)

	store.err = errors.New("down")
	_, err = relay.History(context.Background(), "s")
	assert.True(t, apperr.IsKind(err, apperr.KindInternal))
}

func TestContents_MapsRoles(t *testing.T) {
	out := contents([]data.ChatMessage{
		{Role: data.RoleSystem, Content: "sys"},
		{Role: data.RoleUser, Content: "q"},
		{Role: data.RoleAssistant, Content: "a"},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "user", out[0].Role)
	assert.Equal(t, "model", out[1].Role)
}
