package db

import (
	"context"
	"os"
	"testing"
	"time"
)

// These tests are integration tests and require a running MongoDB instance.
// Set MONGODB_URI in the environment before running them.

func TestNewAndCreateIndexes(t *testing.T) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set; skipping integration test")
	}

	ctx := context.Background()
	c, err := New(ctx, uri, "portfolio_db_test")
	if err != nil {
		t.Fatalf("failed to connect to DB: %v", err)
	}
	defer func() {
		// drop the testing database and close connection
		_ = c.db.Drop(context.Background())
		_ = c.Close(context.Background())
	}()

	// should be able to create indexes without error, twice
	if err := c.CreateIndexes(ctx); err != nil {
		t.Fatalf("CreateIndexes failed: %v", err)
	}
	if err := c.CreateIndexes(ctx); err != nil {
		t.Fatalf("CreateIndexes is not idempotent: %v", err)
	}

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestNewFailsFastWhenUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the ping timeout")
	}

	start := time.Now()
	_, err := New(context.Background(), "mongodb://127.0.0.1:1/?directConnection=true", "portfolio")
	if err == nil {
		t.Fatal("expected an error for an unreachable server")
	}
	if elapsed := time.Since(start); elapsed > 15*time.Second {
		t.Fatalf("New took %s; expected to give up within the ping timeout", elapsed)
	}
}
