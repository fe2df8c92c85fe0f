package data

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// AnalyticsStore appends tracking events.
type AnalyticsStore struct {
	coll *mongo.Collection
}

// NewAnalyticsStore returns an AnalyticsStore using given collection.
func NewAnalyticsStore(coll *mongo.Collection) *AnalyticsStore {
	return &AnalyticsStore{coll: coll}
}

// Insert stores ev and fills in its ID.
func (a *AnalyticsStore) Insert(ctx context.Context, ev *AnalyticsEvent) error {
	result, err := a.coll.InsertOne(ctx, ev)
	if err != nil {
		return err
	}
	ev.ID = result.InsertedID.(bson.ObjectID)
	return nil
}
