package data

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// PostsStore provides post database operations. Visitor mutations are single
// atomic document updates ($addToSet, $pull, $push); nothing is read-modify-written.
type PostsStore struct {
	// coll is reference to "posts" collection in MongoDB
	coll *mongo.Collection
}

// NewPostsStore returns a PostsStore using given collection.
func NewPostsStore(coll *mongo.Collection) *PostsStore {
	return &PostsStore{coll: coll}
}

// Insert stores a new post and fills in its ID.
func (p *PostsStore) Insert(ctx context.Context, post *Post) error {
	// Array fields must exist as arrays, not null, or $addToSet/$push fail later
	if post.Images == nil {
		post.Images = []MediaAsset{}
	}
	if post.LikesBySessions == nil {
		post.LikesBySessions = []string{}
	}
	if post.Comments == nil {
		post.Comments = []Comment{}
	}

	result, err := p.coll.InsertOne(ctx, post)
	if err != nil {
		return err
	}
	post.ID = result.InsertedID.(bson.ObjectID)
	return nil
}

// FindByID returns a post regardless of status.
func (p *PostsStore) FindByID(ctx context.Context, id bson.ObjectID) (*Post, error) {
	var post Post
	err := p.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// UpdatePublished applies u to a published post and returns the new document.
func (p *PostsStore) UpdatePublished(ctx context.Context, id bson.ObjectID, u PostUpdate, now time.Time) (*Post, error) {
	set := u.setDoc()
	set["updatedAt"] = now
	return p.findOneAndUpdate(ctx, publishedFilter(id), bson.M{"$set": set})
}

// Delete removes a post. It reports ErrNotFound when nothing was deleted.
func (p *PostsStore) Delete(ctx context.Context, id bson.ObjectID) error {
	result, err := p.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetLike adds (liking) or removes sessionID from the post's like-set.
// Both directions are idempotent.
func (p *PostsStore) SetLike(ctx context.Context, id bson.ObjectID, sessionID string, liking bool) (*Post, error) {
	op := "$pull"
	if liking {
		op = "$addToSet"
	}
	update := bson.M{op: bson.M{"likesBySessions": sessionID}}
	return p.findOneAndUpdate(ctx, publishedFilter(id), update)
}

// AppendComment pushes c onto the comment list of a published post.
func (p *PostsStore) AppendComment(ctx context.Context, id bson.ObjectID, c Comment) (*Post, error) {
	update := bson.M{"$push": bson.M{"comments": c}}
	return p.findOneAndUpdate(ctx, publishedFilter(id), update)
}

// ListPublished returns published posts newest first; equal creation times
// fall back to _id descending so the order is stable.
func (p *PostsStore) ListPublished(ctx context.Context, limit int64) ([]*Post, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)

	cursor, err := p.coll.Find(ctx, bson.M{"status": StatusPublished}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []*Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (p *PostsStore) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*Post, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var post Post
	err := p.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

func publishedFilter(id bson.ObjectID) bson.M {
	return bson.M{"_id": id, "status": StatusPublished}
}
