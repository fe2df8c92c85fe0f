// Package poststest provides an in-memory post repository for tests.
package poststest

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PaulBabatuyi/portfolio-api/internal/data"
)

// MemRepo holds posts in memory and applies each mutation under one lock,
// standing in for single-document atomic updates.
type MemRepo struct {
	mu    sync.Mutex
	posts map[bson.ObjectID]*data.Post
	fail  error
}

// NewMemRepo returns an empty repository.
func NewMemRepo() *MemRepo {
	return &MemRepo{posts: map[bson.ObjectID]*data.Post{}}
}

// FailWith makes Insert and ListPublished return err until reset with nil.
func (m *MemRepo) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

// SetStatus changes a stored post's status.
func (m *MemRepo) SetStatus(id bson.ObjectID, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.posts[id]; ok {
		p.Status = status
	}
}

// Has reports whether a post with id is stored.
func (m *MemRepo) Has(id bson.ObjectID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.posts[id]
	return ok
}

func clonePost(p *data.Post) *data.Post {
	cp := *p
	cp.Images = append([]data.MediaAsset(nil), p.Images...)
	cp.LikesBySessions = append([]string(nil), p.LikesBySessions...)
	cp.Comments = append([]data.Comment(nil), p.Comments...)
	return &cp
}

func (m *MemRepo) Insert(_ context.Context, p *data.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	p.ID = bson.NewObjectID()
	m.posts[p.ID] = clonePost(p)
	return nil
}

func (m *MemRepo) FindByID(_ context.Context, id bson.ObjectID) (*data.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	return clonePost(p), nil
}

func (m *MemRepo) published(id bson.ObjectID) (*data.Post, error) {
	p, ok := m.posts[id]
	if !ok || p.Status != data.StatusPublished {
		return nil, data.ErrNotFound
	}
	return p, nil
}

func (m *MemRepo) UpdatePublished(_ context.Context, id bson.ObjectID, u data.PostUpdate, now time.Time) (*data.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.published(id)
	if err != nil {
		return nil, err
	}
	if u.Title.Set {
		p.Title = u.Title.Value
	}
	if u.Content.Set {
		p.Content = u.Content.Value
	}
	if u.Author.Set {
		p.Author = u.Author.Value
	}
	if u.Images.Set {
		p.Images = u.Images.Value
	}
	if u.Video.Set {
		p.Video = u.Video.Value
	}
	if u.CodeSnippet.Set {
		p.CodeSnippet = u.CodeSnippet.Value
	}
	if u.CodeLang.Set {
		p.CodeLang = u.CodeLang.Value
	}
	if u.Event.Set {
		p.Event = u.Event.Value
	}
	p.UpdatedAt = now
	return clonePost(p), nil
}

func (m *MemRepo) Delete(_ context.Context, id bson.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return data.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *MemRepo) SetLike(_ context.Context, id bson.ObjectID, sid string, liking bool) (*data.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.published(id)
	if err != nil {
		return nil, err
	}
	kept := make([]string, 0, len(p.LikesBySessions)+1)
	for _, s := range p.LikesBySessions {
		if s != sid {
			kept = append(kept, s)
		}
	}
	if liking {
		kept = append(kept, sid)
	}
	p.LikesBySessions = kept
	return clonePost(p), nil
}

func (m *MemRepo) AppendComment(_ context.Context, id bson.ObjectID, c data.Comment) (*data.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.published(id)
	if err != nil {
		return nil, err
	}
	p.Comments = append(p.Comments, c)
	return clonePost(p), nil
}

func (m *MemRepo) ListPublished(_ context.Context, limit int64) ([]*data.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	out := []*data.Post{}
	for _, p := range m.posts {
		if p.Status == data.StatusPublished {
			out = append(out, clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}
