// Package posts implements the owner post feed and visitor interactions.
package posts

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/portfolio-api/internal/apperr"
	"github.com/PaulBabatuyi/portfolio-api/internal/data"
	"github.com/PaulBabatuyi/portfolio-api/internal/media"
	"github.com/PaulBabatuyi/portfolio-api/internal/normalize"
)

// Repository persists posts. Implemented by data.PostsStore.
type Repository interface {
	Insert(ctx context.Context, post *data.Post) error
	FindByID(ctx context.Context, id bson.ObjectID) (*data.Post, error)
	UpdatePublished(ctx context.Context, id bson.ObjectID, u data.PostUpdate, now time.Time) (*data.Post, error)
	Delete(ctx context.Context, id bson.ObjectID) error
	SetLike(ctx context.Context, id bson.ObjectID, sessionID string, liking bool) (*data.Post, error)
	AppendComment(ctx context.Context, id bson.ObjectID, c data.Comment) (*data.Post, error)
	ListPublished(ctx context.Context, limit int64) ([]*data.Post, error)
}

var (
	errPostNotFound = apperr.NotFound("Post not found")
	errEmptyPost    = apperr.Invalid("content", "Post must include at least one piece of content")
	errNoChanges    = apperr.Invalid("body", "No changes provided")
)

// Service applies post mutations.
type Service struct {
	repo        Repository
	media       media.Destroyer
	log         *zap.Logger
	displayName string
	now         func() time.Time
}

// NewService returns a Service. displayName is the default post author.
func NewService(repo Repository, destroyer media.Destroyer, log *zap.Logger, displayName string) *Service {
	if displayName == "" {
		displayName = "Owner"
	}
	return &Service{
		repo:        repo,
		media:       destroyer,
		log:         log,
		displayName: displayName,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ParseID converts a path id into an ObjectID.
func ParseID(raw string) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(raw)
	if err != nil {
		return bson.ObjectID{}, apperr.Invalid("id", "Invalid post id")
	}
	return id, nil
}

// Create validates and stores a new published post.
func (s *Service) Create(ctx context.Context, in CreateInput) (*data.Post, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	title := normalize.Text(in.Title)
	content := normalize.Text(in.Content)
	snippet := normalize.Text(in.CodeSnippet)
	images := normalizeImages(in.Images)
	var video *data.MediaAsset
	if in.Video != nil {
		video = normalizeMedia(*in.Video)
	}
	event := normalizeEvent(in.Event)

	if title == "" && content == "" && len(images) == 0 && video == nil && snippet == "" && event == nil {
		return nil, errEmptyPost
	}

	author := normalize.Text(in.Author)
	if author == "" {
		author = s.displayName
	}

	var lang *string
	if snippet != "" {
		l := normalize.Text(in.CodeLang)
		if l == "" {
			l = defaultCodeLang
		}
		lang = &l
	}

	now := s.now()
	post := &data.Post{
		Title:       title,
		Content:     content,
		Author:      author,
		Images:      images,
		Video:       video,
		CodeSnippet: optionalString(snippet),
		CodeLang:    lang,
		Event:       event,
		Status:      data.StatusPublished,
		IsUserPost:  true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, post); err != nil {
		return nil, apperr.Internal("Failed to create post", err)
	}
	return post, nil
}

// BuildUpdate turns a patch into the column assignments it implies.
// Clearing the snippet clears its language; a snippet without a language
// gets the placeholder language.
func BuildUpdate(in PatchInput) data.PostUpdate {
	var u data.PostUpdate

	if in.Title.Present {
		u.Title = data.SetTo(normalize.Text(in.Title.Value))
	}
	if in.Content.Present {
		u.Content = data.SetTo(normalize.Text(in.Content.Value))
	}
	if in.Images.Present {
		u.Images = data.SetTo(normalizeImages(in.Images.Value))
	}
	if in.Video.Present {
		var video *data.MediaAsset
		if !in.Video.Null {
			video = normalizeMedia(in.Video.Value)
		}
		u.Video = data.SetTo(video)
	}

	switch {
	case in.CodeSnippet.Present:
		snippet := normalize.Text(in.CodeSnippet.Value)
		if snippet == "" {
			u.CodeSnippet = data.SetTo[*string](nil)
			u.CodeLang = data.SetTo[*string](nil)
			break
		}
		lang := defaultCodeLang
		if l := normalize.Text(in.CodeLang.Value); in.CodeLang.Present && l != "" {
			lang = l
		}
		u.CodeSnippet = data.SetTo(&snippet)
		u.CodeLang = data.SetTo(&lang)
	case in.CodeLang.Present:
		u.CodeLang = data.SetTo(optionalString(normalize.Text(in.CodeLang.Value)))
	}

	if in.Event.Present {
		var event *data.Event
		if !in.Event.Null {
			event = normalizeEvent(&in.Event.Value)
		}
		u.Event = data.SetTo(event)
	}

	return u
}

// Update applies a partial patch to a published post.
func (s *Service) Update(ctx context.Context, id bson.ObjectID, in PatchInput) (*data.Post, error) {
	if err := validatePatch(in); err != nil {
		return nil, err
	}
	u := BuildUpdate(in)
	if u.Empty() {
		return nil, errNoChanges
	}

	post, err := s.repo.UpdatePublished(ctx, id, u, s.now())
	if err != nil {
		return nil, s.storeErr("Failed to update post", err)
	}
	return post, nil
}

// Delete removes a post after releasing its hosted media. Release failures
// are logged and never block the deletion.
func (s *Service) Delete(ctx context.Context, id bson.ObjectID) error {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.storeErr("Failed to delete post", err)
	}

	assets := make([]media.Asset, 0, len(post.Images)+1)
	for _, img := range post.Images {
		if img.PublicID != "" {
			assets = append(assets, media.Asset{PublicID: img.PublicID, ResourceType: media.ResourceImage})
		}
	}
	if post.Video != nil && post.Video.PublicID != "" {
		assets = append(assets, media.Asset{PublicID: post.Video.PublicID, ResourceType: media.ResourceVideo})
	}

	for _, f := range media.Release(ctx, s.media, assets) {
		s.log.Warn("media release failed",
			zap.String("post_id", id.Hex()),
			zap.String("public_id", f.Asset.PublicID),
			zap.String("resource_type", f.Asset.ResourceType),
			zap.Error(f.Err),
		)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.storeErr("Failed to delete post", err)
	}
	return nil
}

// ToggleLike adds or removes the visitor's session from the like-set.
func (s *Service) ToggleLike(ctx context.Context, id bson.ObjectID, in LikeInput) (*data.Post, error) {
	if err := validateLike(in); err != nil {
		return nil, err
	}
	post, err := s.repo.SetLike(ctx, id, normalize.Text(in.SessionID), in.IsLiking.Value)
	if err != nil {
		return nil, s.storeErr("Failed to update like", err)
	}
	return post, nil
}

// AddComment appends a visitor comment and returns the post with the new comment.
func (s *Service) AddComment(ctx context.Context, id bson.ObjectID, in CommentInput) (*data.Post, *data.Comment, error) {
	if err := validateComment(in); err != nil {
		return nil, nil, err
	}

	author := normalize.Text(in.Author)
	if author == "" {
		author = "Visitor"
	}
	comment := data.Comment{
		ID:        bson.NewObjectID(),
		Author:    author,
		Text:      normalize.Text(in.Text),
		SessionID: normalize.Text(in.SessionID),
		Timestamp: s.now(),
	}

	post, err := s.repo.AppendComment(ctx, id, comment)
	if err != nil {
		return nil, nil, s.storeErr("Failed to add comment", err)
	}

	// Concurrent appends may land after ours; find ours by identity.
	for i := len(post.Comments) - 1; i >= 0; i-- {
		if post.Comments[i].ID == comment.ID {
			return post, &post.Comments[i], nil
		}
	}
	return post, &comment, nil
}

// List returns the published feed, newest first.
func (s *Service) List(ctx context.Context, sessionID string) ([]*data.Post, error) {
	if normalize.Len(normalize.Text(sessionID)) > MaxSessionID {
		return nil, apperr.Invalid("sessionId", "sessionId must be at most 120 characters")
	}
	posts, err := s.repo.ListPublished(ctx, ListLimit)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch posts", err)
	}
	return posts, nil
}

func (s *Service) storeErr(msg string, err error) error {
	if errors.Is(err, data.ErrNotFound) {
		return errPostNotFound
	}
	return apperr.Internal(msg, err)
}
