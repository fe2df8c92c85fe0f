package data

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func newTestPost(t *testing.T, store *PostsStore, title string, createdAt time.Time) *Post {
	t.Helper()
	p := &Post{
		Title:     title,
		Author:    "Owner",
		Status:    StatusPublished,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := store.Insert(context.Background(), p); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	return p
}

func TestPostsLikeIsIdempotent(t *testing.T) {
	c := setupDB(t)
	store := NewPostsStore(c.PostsCollection())
	ctx := context.Background()
	p := newTestPost(t, store, "hello", time.Now().UTC())

	for i := 0; i < 2; i++ {
		got, err := store.SetLike(ctx, p.ID, "s1", true)
		if err != nil {
			t.Fatalf("SetLike failed: %v", err)
		}
		if len(got.LikesBySessions) != 1 || !got.LikedBy("s1") {
			t.Fatalf("like %d: expected exactly s1, got %v", i, got.LikesBySessions)
		}
	}

	// unliking a session that never liked is a no-op
	got, err := store.SetLike(ctx, p.ID, "never", false)
	if err != nil || len(got.LikesBySessions) != 1 {
		t.Fatalf("unlike of absent session: likes=%v err=%v", got, err)
	}

	got, err = store.SetLike(ctx, p.ID, "s1", false)
	if err != nil || len(got.LikesBySessions) != 0 {
		t.Fatalf("unlike: likes=%v err=%v", got, err)
	}

	if _, err := store.SetLike(ctx, bson.NewObjectID(), "s1", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing post, got %v", err)
	}
}

func TestPostsConcurrentLikes(t *testing.T) {
	c := setupDB(t)
	store := NewPostsStore(c.PostsCollection())
	p := newTestPost(t, store, "popular", time.Now().UTC())

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.SetLike(context.Background(), p.ID, fmt.Sprintf("session-%d", i), true)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("SetLike failed: %v", err)
		}
	}

	got, err := store.FindByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if len(got.LikesBySessions) != n {
		t.Fatalf("expected %d likes got %d", n, len(got.LikesBySessions))
	}
}

func TestPostsCommentsAppendInOrder(t *testing.T) {
	c := setupDB(t)
	store := NewPostsStore(c.PostsCollection())
	ctx := context.Background()
	p := newTestPost(t, store, "discuss", time.Now().UTC())

	var ids []bson.ObjectID
	for i := 0; i < 3; i++ {
		cm := Comment{ID: bson.NewObjectID(), Author: "Visitor", Text: fmt.Sprintf("c%d", i), SessionID: "s", Timestamp: time.Now().UTC()}
		got, err := store.AppendComment(ctx, p.ID, cm)
		if err != nil {
			t.Fatalf("AppendComment failed: %v", err)
		}
		ids = append(ids, cm.ID)
		if len(got.Comments) != i+1 {
			t.Fatalf("expected %d comments got %d", i+1, len(got.Comments))
		}
	}

	got, _ := store.FindByID(ctx, p.ID)
	for i, cm := range got.Comments {
		if cm.ID != ids[i] || cm.Text != fmt.Sprintf("c%d", i) {
			t.Fatalf("comment %d out of order: %+v", i, cm)
		}
	}
}

func TestPostsListOrderAndUpdate(t *testing.T) {
	c := setupDB(t)
	store := NewPostsStore(c.PostsCollection())
	ctx := context.Background()

	same := time.Now().UTC().Truncate(time.Millisecond)
	older := newTestPost(t, store, "older", same.Add(-time.Hour))
	first := newTestPost(t, store, "first", same)
	second := newTestPost(t, store, "second", same)
	draft := &Post{Title: "draft", Status: StatusDraft, CreatedAt: same.Add(time.Hour)}
	if err := store.Insert(ctx, draft); err != nil {
		t.Fatalf("Insert draft failed: %v", err)
	}

	posts, err := store.ListPublished(ctx, 100)
	if err != nil {
		t.Fatalf("ListPublished failed: %v", err)
	}
	want := []bson.ObjectID{second.ID, first.ID, older.ID}
	if len(posts) != len(want) {
		t.Fatalf("expected %d posts got %d", len(want), len(posts))
	}
	for i := range want {
		if posts[i].ID != want[i] {
			t.Fatalf("position %d: expected %s got %s", i, want[i].Hex(), posts[i].ID.Hex())
		}
	}

	// drafts are invisible to updates
	if _, err := store.UpdatePublished(ctx, draft.ID, PostUpdate{Title: SetTo("x")}, same); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating a draft, got %v", err)
	}

	lang := "go"
	updated, err := store.UpdatePublished(ctx, first.ID, PostUpdate{
		Content:  SetTo("body"),
		CodeLang: SetTo(&lang),
	}, same.Add(time.Minute))
	if err != nil {
		t.Fatalf("UpdatePublished failed: %v", err)
	}
	if updated.Title != "first" || updated.Content != "body" || updated.CodeLang == nil || *updated.CodeLang != "go" {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	if err := store.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
