// Package db manages MongoDB connections and collections.
package db

import (
	"context" // For connection timeout/cancellation
	"fmt"     // Error formatting
	"time"    // Duration for timeouts

	"go.mongodb.org/mongo-driver/v2/bson"           // Index key documents
	"go.mongodb.org/mongo-driver/v2/mongo"          // MongoDB driver
	"go.mongodb.org/mongo-driver/v2/mongo/options"  // MongoDB options
	"go.mongodb.org/mongo-driver/v2/mongo/readpref" // MongoDB read preference
)

// Collection names.
const (
	OwnerSessionsCollection = "owner_sessions"
	PostsCollection         = "posts"
	ChatsCollection         = "chats"
	ContactsCollection      = "contacts"
	AnalyticsCollection     = "analytics"
)

// Client wraps mongo.Client and exposes collections.
type Client struct {
	// client is the underlying MongoDB connection (thread-safe, can be reused)
	client *mongo.Client

	// db is the portfolio database; every collection is reached through it
	db *mongo.Database
}

// New connects to MongoDB, pings the primary and returns a Client.
// Callers treat an error as fatal: the API never serves without its store.
func New(ctx context.Context, mongoURI, database string) (*Client, error) {
	// SetConnectTimeout: fail fast if MongoDB is unreachable
	opts := options.Client().
		ApplyURI(mongoURI).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// If ping doesn't complete in 5 seconds, fail
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Connect is lazy; the ping is the actual connection test
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Client{
		client: client,
		db:     client.Database(database), // Lazy-loaded: created on first write
	}, nil
}

// Ping reports whether the primary is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// OwnerSessionsCollection returns the owner sessions collection.
func (c *Client) OwnerSessionsCollection() *mongo.Collection {
	return c.db.Collection(OwnerSessionsCollection)
}

// PostsCollection returns the posts collection.
func (c *Client) PostsCollection() *mongo.Collection {
	return c.db.Collection(PostsCollection)
}

// ChatsCollection returns the chats collection.
func (c *Client) ChatsCollection() *mongo.Collection {
	return c.db.Collection(ChatsCollection)
}

// ContactsCollection returns the contacts collection.
func (c *Client) ContactsCollection() *mongo.Collection {
	return c.db.Collection(ContactsCollection)
}

// AnalyticsCollection returns the analytics collection.
func (c *Client) AnalyticsCollection() *mongo.Collection {
	return c.db.Collection(AnalyticsCollection)
}

// Close disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	// ctx can have timeout if you want to force shutdown after N seconds
	return c.client.Disconnect(ctx)
}

// CreateIndexes creates the indexes every store relies on.
func (c *Client) CreateIndexes(ctx context.Context) error {
	// ===== OWNER SESSIONS =====
	// tokenHash is the lookup key and must never repeat
	// expiresAt backs the lazy purge on login
	sessionIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "tokenHash", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "expiresAt", Value: 1}},
		},
	}
	if _, err := c.OwnerSessionsCollection().Indexes().CreateMany(ctx, sessionIndexes); err != nil {
		return fmt.Errorf("failed to create owner session indexes: %w", err)
	}

	// ===== POSTS =====
	// Matches the feed query: published only, newest first, _id as tie-break
	postsIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "createdAt", Value: -1},
			{Key: "_id", Value: -1},
		},
	}
	if _, err := c.PostsCollection().Indexes().CreateOne(ctx, postsIndex); err != nil {
		return fmt.Errorf("failed to create posts index: %w", err)
	}

	// ===== CHATS =====
	// One conversation document per visitor session
	chatsIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "sessionId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := c.ChatsCollection().Indexes().CreateOne(ctx, chatsIndex); err != nil {
		return fmt.Errorf("failed to create chats index: %w", err)
	}

	// ===== CONTACTS =====
	contactsIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	}
	if _, err := c.ContactsCollection().Indexes().CreateOne(ctx, contactsIndex); err != nil {
		return fmt.Errorf("failed to create contacts index: %w", err)
	}

	// ===== ANALYTICS =====
	analyticsIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "type", Value: 1}, {Key: "timestamp", Value: -1}},
	}
	if _, err := c.AnalyticsCollection().Indexes().CreateOne(ctx, analyticsIndex); err != nil {
		return fmt.Errorf("failed to create analytics index: %w", err)
	}

	return nil
}
