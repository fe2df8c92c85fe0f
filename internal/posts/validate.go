package posts

import (
	"fmt"

	"github.com/PaulBabatuyi/portfolio-api/internal/apperr"
	"github.com/PaulBabatuyi/portfolio-api/internal/data"
	"github.com/PaulBabatuyi/portfolio-api/internal/normalize"
)

// Field limits, in characters.
const (
	MaxTitle       = 200
	MaxContent     = 5000
	MaxAuthor      = 120
	MaxImages      = 6
	MaxURL         = 2048
	MaxPublicID    = 255
	MaxCodeSnippet = 20000
	MaxCodeLang    = 50
	MaxEventTitle  = 200
	MaxEventField  = 64
	MaxSessionID   = 120
	MaxCommentText = 2000
)

// ListLimit caps the feed.
const ListLimit = 100

const defaultCodeLang = "plaintext"

type checker struct {
	errs []apperr.FieldError
}

func (c *checker) add(field, format string, args ...any) {
	c.errs = append(c.errs, apperr.FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// max records an error when the trimmed value is longer than limit.
func (c *checker) max(field, value string, limit int) {
	if normalize.Len(normalize.Text(value)) > limit {
		c.add(field, "%s must be at most %d characters", field, limit)
	}
}

// between records an error unless the trimmed value length is within [lo, hi].
func (c *checker) between(field, value string, lo, hi int) {
	n := normalize.Len(normalize.Text(value))
	if n < lo || n > hi {
		c.add(field, "%s must be between %d and %d characters", field, lo, hi)
	}
}

// media length-checks a file reference. Keys present in the request body must
// not be empty or null.
func (c *checker) media(field string, m MediaInput) {
	if m.urlSent {
		c.between(field+".url", m.URL, 1, MaxURL)
	} else {
		c.max(field+".url", m.URL, MaxURL)
	}
	if m.publicIDSent {
		c.between(field+".publicId", m.PublicID, 1, MaxPublicID)
	} else {
		c.max(field+".publicId", m.PublicID, MaxPublicID)
	}
}

func (c *checker) images(images []MediaInput) {
	if len(images) > MaxImages {
		c.add("images", "images must contain at most %d entries", MaxImages)
	}
	for i, img := range images {
		c.media(fmt.Sprintf("images[%d]", i), img)
	}
}

func (c *checker) event(e EventInput) {
	c.max("event.title", e.Title, MaxEventTitle)
	c.max("event.date", e.Date, MaxEventField)
	c.max("event.time", e.Time, MaxEventField)
}

func (c *checker) err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return apperr.Validation(c.errs...)
}

func validateCreate(in CreateInput) error {
	var c checker
	c.max("title", in.Title, MaxTitle)
	c.max("content", in.Content, MaxContent)
	if in.Author != "" {
		c.between("author", in.Author, 1, MaxAuthor)
	}
	c.images(in.Images)
	if in.Video != nil {
		c.media("video", *in.Video)
	}
	if normalize.Len(in.CodeSnippet) > MaxCodeSnippet {
		c.add("codeSnippet", "codeSnippet must be at most %d characters", MaxCodeSnippet)
	}
	c.max("codeLang", in.CodeLang, MaxCodeLang)
	if in.Event != nil {
		c.event(*in.Event)
	}
	return c.err()
}

func validatePatch(in PatchInput) error {
	var c checker
	c.max("title", in.Title.Value, MaxTitle)
	c.max("content", in.Content.Value, MaxContent)
	c.images(in.Images.Value)
	c.media("video", in.Video.Value)
	if normalize.Len(in.CodeSnippet.Value) > MaxCodeSnippet {
		c.add("codeSnippet", "codeSnippet must be at most %d characters", MaxCodeSnippet)
	}
	c.max("codeLang", in.CodeLang.Value, MaxCodeLang)
	c.event(in.Event.Value)
	return c.err()
}

func validateSessionID(sessionID string) *checker {
	var c checker
	c.between("sessionId", sessionID, 1, MaxSessionID)
	return &c
}

func validateLike(in LikeInput) error {
	c := validateSessionID(in.SessionID)
	if !in.IsLiking.Present || in.IsLiking.Null {
		c.add("isLiking", "isLiking must be a boolean")
	}
	return c.err()
}

func validateComment(in CommentInput) error {
	c := validateSessionID(in.SessionID)
	c.max("author", in.Author, MaxAuthor)
	c.between("text", in.Text, 1, MaxCommentText)
	return c.err()
}

// normalizeImages keeps entries carrying both a url and a public id.
func normalizeImages(in []MediaInput) []data.MediaAsset {
	out := []data.MediaAsset{}
	for _, img := range in {
		if a := normalizeMedia(img); a != nil {
			out = append(out, *a)
		}
	}
	return out
}

func normalizeMedia(m MediaInput) *data.MediaAsset {
	url, id := normalize.Text(m.URL), normalize.Text(m.PublicID)
	if url == "" || id == "" {
		return nil
	}
	return &data.MediaAsset{URL: url, PublicID: id}
}

// normalizeEvent returns nil unless at least one event field is set.
func normalizeEvent(e *EventInput) *data.Event {
	if e == nil {
		return nil
	}
	ev := data.Event{
		Title: normalize.Text(e.Title),
		Date:  normalize.Text(e.Date),
		Time:  normalize.Text(e.Time),
	}
	if ev.Title == "" && ev.Date == "" && ev.Time == "" {
		return nil
	}
	return &ev
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
