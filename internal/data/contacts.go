package data

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ContactsStore persists contact form submissions.
type ContactsStore struct {
	coll *mongo.Collection
}

// NewContactsStore returns a ContactsStore using given collection.
func NewContactsStore(coll *mongo.Collection) *ContactsStore {
	return &ContactsStore{coll: coll}
}

// Insert stores a submission and fills in its ID.
func (c *ContactsStore) Insert(ctx context.Context, contact *Contact) error {
	result, err := c.coll.InsertOne(ctx, contact)
	if err != nil {
		return err
	}
	contact.ID = result.InsertedID.(bson.ObjectID)
	return nil
}

// Latest returns up to limit submissions, newest first.
func (c *ContactsStore) Latest(ctx context.Context, limit int64) ([]*Contact, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := c.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	contacts := []*Contact{}
	if err = cursor.All(ctx, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}
