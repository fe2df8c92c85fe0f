package posts

import (
	"bytes"
	"encoding/json"
)

// Optional is a tri-state JSON field: absent, explicit null, or a value.
type Optional[T any] struct {
	Present bool
	Null    bool
	Value   T
}

// Some returns a present, non-null Optional.
func Some[T any](v T) Optional[T] { return Optional[T]{Present: true, Value: v} }

// Null returns a present Optional holding JSON null.
func Null[T any]() Optional[T] { return Optional[T]{Present: true, Null: true} }

// UnmarshalJSON is only invoked for keys that appear in the document, which is
// what separates "absent" from "null".
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Present = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

// MediaInput is an uploaded file reference sent by the client. A key that is
// sent must carry a non-empty string; an absent key is allowed.
type MediaInput struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`

	urlSent, publicIDSent bool
}

func (m *MediaInput) UnmarshalJSON(b []byte) error {
	var raw struct {
		URL      Optional[string] `json:"url"`
		PublicID Optional[string] `json:"publicId"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*m = MediaInput{
		URL:          raw.URL.Value,
		PublicID:     raw.PublicID.Value,
		urlSent:      raw.URL.Present,
		publicIDSent: raw.PublicID.Present,
	}
	return nil
}

// EventInput is the client form of an event.
type EventInput struct {
	Title string `json:"title"`
	Date  string `json:"date"`
	Time  string `json:"time"`
}

// CreateInput is the body of a create request.
type CreateInput struct {
	Title       string       `json:"title"`
	Content     string       `json:"content"`
	Author      string       `json:"author"`
	Images      []MediaInput `json:"images"`
	Video       *MediaInput  `json:"video"`
	CodeSnippet string       `json:"codeSnippet"`
	CodeLang    string       `json:"codeLang"`
	Event       *EventInput  `json:"event"`
}

// PatchInput is the body of a partial update. Absent fields are left as they
// are; null or empty values clear the field.
type PatchInput struct {
	Title       Optional[string]       `json:"title"`
	Content     Optional[string]       `json:"content"`
	Images      Optional[[]MediaInput] `json:"images"`
	Video       Optional[MediaInput]   `json:"video"`
	CodeSnippet Optional[string]       `json:"codeSnippet"`
	CodeLang    Optional[string]       `json:"codeLang"`
	Event       Optional[EventInput]   `json:"event"`
}

// LikeInput sets a visitor's like. IsLiking is the desired state and must be
// sent explicitly.
type LikeInput struct {
	SessionID string         `json:"sessionId"`
	IsLiking  Optional[bool] `json:"isLiking"`
}

// CommentInput appends a visitor comment.
type CommentInput struct {
	SessionID string `json:"sessionId"`
	Author    string `json:"author"`
	Text      string `json:"text"`
}
