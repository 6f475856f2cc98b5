package domain

import "time"

// Post is a blog article. Content is the raw, line-oriented markup that the
// renderer turns into nodes.
type Post struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt,omitempty"`
	Content     string    `json:"content,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Published   bool      `json:"published"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PostSummary is the list view of a post, without content.
type PostSummary struct {
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	Excerpt      string    `json:"excerpt,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	PublishedAt  time.Time `json:"published_at,omitempty"`
	CommentCount int       `json:"comment_count"`
}

// Summary drops the content and attaches a comment count.
func (p Post) Summary(comments int) PostSummary {
	return PostSummary{
		Slug:         p.Slug,
		Title:        p.Title,
		Excerpt:      p.Excerpt,
		Tags:         p.Tags,
		PublishedAt:  p.PublishedAt,
		CommentCount: comments,
	}
}
