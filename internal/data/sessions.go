package data

import (
	"context" // Used for cancellation and timeouts
	"errors"  // Error inspection
	"time"    // Expiry comparisons

	"go.mongodb.org/mongo-driver/v2/bson"          // MongoDB document queries
	"go.mongodb.org/mongo-driver/v2/mongo"         // MongoDB driver
	"go.mongodb.org/mongo-driver/v2/mongo/options" // FindOneAndUpdate options
)

// OwnerSessionsStore performs owner session DB operations.
type OwnerSessionsStore struct {
	// coll is reference to "owner_sessions" collection in MongoDB
	coll *mongo.Collection
}

// NewOwnerSessionsStore returns an OwnerSessionsStore using the provided collection.
func NewOwnerSessionsStore(coll *mongo.Collection) *OwnerSessionsStore {
	return &OwnerSessionsStore{coll: coll}
}

// Insert persists a freshly issued session.
func (s *OwnerSessionsStore) Insert(ctx context.Context, sess *OwnerSession) error {
	result, err := s.coll.InsertOne(ctx, sess)
	if err != nil {
		return err
	}
	// MongoDB auto-generates the _id field; keep it on the struct
	sess.ID = result.InsertedID.(bson.ObjectID)
	return nil
}

// DeleteExpired removes every session whose expiry is at or before now.
func (s *OwnerSessionsStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	// {expiresAt: {$lte: now}}: a session is dead at its expiry instant
	result, err := s.coll.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lte": now}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// FindLiveAndTouch returns the unexpired session with the given hash and sets
// its lastUsedAt to now in the same atomic update. ErrNotFound covers both an
// unknown hash and an expired session.
func (s *OwnerSessionsStore) FindLiveAndTouch(ctx context.Context, tokenHash string, now time.Time) (*OwnerSession, error) {
	filter := bson.M{
		"tokenHash": tokenHash,
		"expiresAt": bson.M{"$gt": now}, // strictly in the future
	}
	update := bson.M{"$set": bson.M{"lastUsedAt": now}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var sess OwnerSession
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&sess)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}

// Delete removes the session with the given hash. Deleting a missing hash is not an error.
func (s *OwnerSessionsStore) Delete(ctx context.Context, tokenHash string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"tokenHash": tokenHash})
	return err
}
