package posts

import (
	"time"

	"github.com/PaulBabatuyi/portfolio-api/internal/data"
	"github.com/PaulBabatuyi/portfolio-api/internal/normalize"
)

// CommentView is the public form of a comment. The visitor session id is not exposed.
type CommentView struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// View is the public form of a post as seen by one visitor session.
type View struct {
	ID                    string            `json:"id"`
	Title                 *string           `json:"title"`
	Content               string            `json:"content"`
	Author                string            `json:"author"`
	Timestamp             time.Time         `json:"timestamp"`
	Likes                 int               `json:"likes"`
	LikedByCurrentSession bool              `json:"likedByCurrentSession"`
	Comments              []CommentView     `json:"comments"`
	IsUserPost            bool              `json:"isUserPost"`
	Images                []string          `json:"images"`
	ImageAssets           []data.MediaAsset `json:"imageAssets"`
	Video                 *string           `json:"video"`
	VideoAsset            *data.MediaAsset  `json:"videoAsset"`
	CodeSnippet           *string           `json:"codeSnippet"`
	CodeLang              *string           `json:"codeLang"`
	Event                 *data.Event       `json:"event"`
	CreatedAt             time.Time         `json:"createdAt"`
	UpdatedAt             time.Time         `json:"updatedAt"`
}

// NewView projects p for the viewer identified by sessionID (may be empty).
func NewView(p *data.Post, sessionID string) View {
	v := View{
		ID:                    p.ID.Hex(),
		Title:                 optionalString(p.Title),
		Content:               p.Content,
		Author:                p.Author,
		Timestamp:             p.CreatedAt,
		Likes:                 len(p.LikesBySessions),
		LikedByCurrentSession: p.LikedBy(normalize.Text(sessionID)),
		Comments:              make([]CommentView, 0, len(p.Comments)),
		IsUserPost:            true,
		Images:                make([]string, 0, len(p.Images)),
		ImageAssets:           []data.MediaAsset{},
		VideoAsset:            p.Video,
		CodeSnippet:           p.CodeSnippet,
		CodeLang:              p.CodeLang,
		Event:                 p.Event,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
	for _, c := range p.Comments {
		v.Comments = append(v.Comments, NewCommentView(c))
	}
	for _, img := range p.Images {
		v.Images = append(v.Images, img.URL)
	}
	if len(p.Images) > 0 {
		v.ImageAssets = p.Images
	}
	if p.Video != nil {
		url := p.Video.URL
		v.Video = &url
	}
	return v
}

// NewCommentView returns the public form of c.
func NewCommentView(c data.Comment) CommentView {
	return CommentView{ID: c.ID.Hex(), Author: c.Author, Text: c.Text, Timestamp: c.Timestamp}
}

// NewViews projects a feed for one viewer.
func NewViews(posts []*data.Post, sessionID string) []View {
	out := make([]View, 0, len(posts))
	for _, p := range posts {
		out = append(out, NewView(p, sessionID))
	}
	return out
}
