package data

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ChatsStore provides chat history operations.
type ChatsStore struct {
	// coll is reference to "chats" collection in MongoDB
	coll *mongo.Collection
}

// NewChatsStore returns a ChatsStore using given collection.
func NewChatsStore(coll *mongo.Collection) *ChatsStore {
	return &ChatsStore{coll: coll}
}

// ClientInfo identifies the visitor that produced a chat turn.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// Append atomically pushes msgs onto the session's conversation, creating the
// document on first use.
func (c *ChatsStore) Append(ctx context.Context, sessionID string, msgs []ChatMessage, client ClientInfo, now time.Time) error {
	filter := bson.M{"sessionId": sessionID}
	update := bson.M{
		"$push": bson.M{"messages": bson.M{"$each": msgs}},
		"$set": bson.M{
			"updatedAt": now,
			"userAgent": client.UserAgent,
			"ipAddress": client.IPAddress,
		},
		"$setOnInsert": bson.M{
			"createdAt": now,
			"resolved":  false,
		},
	}
	_, err := c.coll.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	return err
}

// History returns every stored message of a session, oldest first. An unknown
// session yields an empty slice.
func (c *ChatsStore) History(ctx context.Context, sessionID string) ([]ChatMessage, error) {
	return c.find(ctx, sessionID, options.FindOne())
}

// Recent returns at most limit of the newest messages of a session, oldest first.
func (c *ChatsStore) Recent(ctx context.Context, sessionID string, limit int) ([]ChatMessage, error) {
	// $slice with a negative count keeps the tail of the array
	opts := options.FindOne().SetProjection(bson.M{"messages": bson.M{"$slice": -limit}})
	return c.find(ctx, sessionID, opts)
}

func (c *ChatsStore) find(ctx context.Context, sessionID string, opts *options.FindOneOptionsBuilder) ([]ChatMessage, error) {
	var chat Chat
	err := c.coll.FindOne(ctx, bson.M{"sessionId": sessionID}, opts).Decode(&chat)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []ChatMessage{}, nil
		}
		return nil, err
	}
	if chat.Messages == nil {
		return []ChatMessage{}, nil
	}
	return chat.Messages, nil
}
