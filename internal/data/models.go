// Package data provides the MongoDB models and stores of the API.
package data

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ErrNotFound is returned when a targeted document does not exist or is not visible.
var ErrNotFound = errors.New("document not found")

// OwnerSession maps to the owner_sessions collection. Only the digest of the
// bearer token is stored.
type OwnerSession struct {
	ID         bson.ObjectID `bson:"_id,omitempty"`
	TokenHash  string        `bson:"tokenHash"`
	ExpiresAt  time.Time     `bson:"expiresAt"`
	CreatedAt  time.Time     `bson:"createdAt"`
	LastUsedAt time.Time     `bson:"lastUsedAt"`
}

// Post statuses.
const (
	StatusPublished = "published"
	StatusDraft     = "draft"
)

// MediaAsset is a file held by the external media host.
type MediaAsset struct {
	URL      string `bson:"url" json:"url"`
	PublicID string `bson:"publicId" json:"publicId"`
}

// Event is an optional calendar entry attached to a post.
type Event struct {
	Title string `bson:"title" json:"title"`
	Date  string `bson:"date" json:"date"`
	Time  string `bson:"time" json:"time"`
}

// Comment is an entry in a post's append-only comment list.
type Comment struct {
	ID        bson.ObjectID `bson:"_id"`
	Author    string        `bson:"author"`
	Text      string        `bson:"text"`
	SessionID string        `bson:"sessionId"`
	Timestamp time.Time     `bson:"timestamp"`
}

// Post maps to the posts collection (content, like-set, comments).
type Post struct {
	ID              bson.ObjectID `bson:"_id,omitempty"`
	Title           string        `bson:"title"`
	Content         string        `bson:"content"`
	Author          string        `bson:"author"`
	Images          []MediaAsset  `bson:"images"`
	Video           *MediaAsset   `bson:"video"`
	CodeSnippet     *string       `bson:"codeSnippet"`
	CodeLang        *string       `bson:"codeLang"`
	Event           *Event        `bson:"event"`
	Status          string        `bson:"status"`
	IsUserPost      bool          `bson:"isUserPost"`
	LikesBySessions []string      `bson:"likesBySessions"`
	Comments        []Comment     `bson:"comments"`
	CreatedAt       time.Time     `bson:"createdAt"`
	UpdatedAt       time.Time     `bson:"updatedAt"`
}

// LikedBy reports whether sessionID is in the like-set.
func (p *Post) LikedBy(sessionID string) bool {
	if sessionID == "" {
		return false
	}
	for _, s := range p.LikesBySessions {
		if s == sessionID {
			return true
		}
	}
	return false
}

// Field is a single optional column assignment in an update.
type Field[T any] struct {
	Set   bool
	Value T
}

// SetTo returns a Field assigning v.
func SetTo[T any](v T) Field[T] { return Field[T]{Set: true, Value: v} }

// PostUpdate lists the owner-editable columns; unset fields are left untouched.
type PostUpdate struct {
	Title       Field[string]
	Content     Field[string]
	Author      Field[string]
	Images      Field[[]MediaAsset]
	Video       Field[*MediaAsset]
	CodeSnippet Field[*string]
	CodeLang    Field[*string]
	Event       Field[*Event]
}

// Empty reports whether the update touches nothing.
func (u PostUpdate) Empty() bool {
	return len(u.setDoc()) == 0
}

func (u PostUpdate) setDoc() bson.M {
	set := bson.M{}
	if u.Title.Set {
		set["title"] = u.Title.Value
	}
	if u.Content.Set {
		set["content"] = u.Content.Value
	}
	if u.Author.Set {
		set["author"] = u.Author.Value
	}
	if u.Images.Set {
		images := u.Images.Value
		if images == nil {
			images = []MediaAsset{}
		}
		set["images"] = images
	}
	if u.Video.Set {
		set["video"] = u.Video.Value
	}
	if u.CodeSnippet.Set {
		set["codeSnippet"] = u.CodeSnippet.Value
	}
	if u.CodeLang.Set {
		set["codeLang"] = u.CodeLang.Value
	}
	if u.Event.Set {
		set["event"] = u.Event.Value
	}
	return set
}

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatMessage is one turn in a chat conversation.
type ChatMessage struct {
	Role      string    `bson:"role" json:"role"`
	Content   string    `bson:"content" json:"content"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Chat maps to the chats collection, one document per visitor session.
type Chat struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	SessionID string        `bson:"sessionId"`
	Messages  []ChatMessage `bson:"messages"`
	Resolved  bool          `bson:"resolved"`
	UserAgent string        `bson:"userAgent"`
	IPAddress string        `bson:"ipAddress"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

// Contact maps to the contacts collection.
type Contact struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string        `bson:"name" json:"name"`
	Email     string        `bson:"email" json:"email"`
	Message   string        `bson:"message" json:"message"`
	UserAgent string        `bson:"userAgent" json:"userAgent,omitempty"`
	IPAddress string        `bson:"ipAddress" json:"ipAddress,omitempty"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
}

// Analytics event types.
const (
	EventPageView        = "page_view"
	EventClick           = "click"
	EventChatInteraction = "chat_interaction"
	EventContactForm     = "contact_form"
	EventDownload        = "download"
)

// AnalyticsEvent maps to the analytics collection.
type AnalyticsEvent struct {
	ID        bson.ObjectID  `bson:"_id,omitempty" json:"id"`
	Type      string         `bson:"type" json:"type"`
	Page      string         `bson:"page,omitempty" json:"page,omitempty"`
	Element   string         `bson:"element,omitempty" json:"element,omitempty"`
	SessionID string         `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
	Metadata  map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
	UserAgent string         `bson:"userAgent" json:"-"`
	IPAddress string         `bson:"ipAddress" json:"-"`
	Timestamp time.Time      `bson:"timestamp" json:"timestamp"`
}
