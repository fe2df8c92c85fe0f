package data

import (
	"context"
	"os"
	"testing"

	"github.com/PaulBabatuyi/portfolio-api/internal/db"
)

func setupDB(t *testing.T) *db.Client {
	t.Helper()
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set; skipping integration test")
	}

	ctx := context.Background()
	c, err := db.New(ctx, uri, "portfolio_data_test")
	if err != nil {
		t.Fatalf("db.New failed: %v", err)
	}

	// ensure clean collections in case previous runs left data
	_ = c.OwnerSessionsCollection().Drop(ctx)
	_ = c.PostsCollection().Drop(ctx)
	_ = c.ChatsCollection().Drop(ctx)
	_ = c.ContactsCollection().Drop(ctx)
	_ = c.AnalyticsCollection().Drop(ctx)

	if err := c.CreateIndexes(ctx); err != nil {
		t.Fatalf("CreateIndexes failed: %v", err)
	}

	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}
