package seed

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/folio/internal/domain"
)

// Result is what a seed file maps to
type Result struct {
	Dashboards []domain.Dashboard
	Posts      []domain.Post
	// Skipped lists entries rejected by validation, with the reason
	Skipped []string
}

// Mapper converts seed entries to domain entities
type Mapper struct {
	now func() time.Time
}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{now: time.Now}
}

// Map converts a parsed seed file. Invalid entries are skipped, not fatal;
// a file with nothing usable is an error.
func (m *Mapper) Map(file *File) (*Result, error) {
	if file == nil {
		return nil, fmt.Errorf("no seed file")
	}
	now := m.now().UTC()
	res := &Result{}
	seen := make(map[string]struct{})

	for _, p := range file.Dashboards {
		active := true
		if p.Active != nil {
			active = *p.Active
		}
		id := strings.TrimSpace(p.DashboardID)
		d := domain.Dashboard{
			ID:          "seed:" + id,
			DashboardID: id,
			Title:       strings.TrimSpace(p.Title),
			Description: p.Description,
			IsActive:    active,
			IsFeatured:  p.Featured,
			SortOrder:   p.SortOrder,
			EmbedURL:    strings.TrimSpace(p.EmbedURL),
			Charts:      p.Charts,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := d.Validate(); err != nil {
			res.Skipped = append(res.Skipped, fmt.Sprintf("dashboard %q: %v", p.DashboardID, err))
			continue
		}
		if _, dup := seen[d.DashboardID]; dup {
			res.Skipped = append(res.Skipped, fmt.Sprintf("dashboard %q: duplicate", d.DashboardID))
			continue
		}
		seen[d.DashboardID] = struct{}{}
		res.Dashboards = append(res.Dashboards, d)
	}

	for _, p := range file.Posts {
		post, err := mapPost(p, now)
		if err != nil {
			res.Skipped = append(res.Skipped, fmt.Sprintf("post %q: %v", p.Slug, err))
			continue
		}
		res.Posts = append(res.Posts, post)
	}

	if len(res.Dashboards) == 0 && len(res.Posts) == 0 {
		return nil, fmt.Errorf("no valid entries found in seed file")
	}
	return res, nil
}

func mapPost(p PostProps, now time.Time) (domain.Post, error) {
	slug := strings.TrimSpace(p.Slug)
	if !domain.IsValidIdentifier(slug) {
		return domain.Post{}, fmt.Errorf("slug must match [a-zA-Z0-9_-]+")
	}
	if strings.TrimSpace(p.Title) == "" {
		return domain.Post{}, fmt.Errorf("title is required")
	}
	published, err := parseDate(p.PublishedAt)
	if err != nil {
		return domain.Post{}, err
	}
	return domain.Post{
		ID:          "seed:" + slug,
		Slug:        slug,
		Title:       strings.TrimSpace(p.Title),
		Excerpt:     p.Excerpt,
		Content:     p.Content,
		Tags:        p.Tags,
		Published:   !p.Draft,
		PublishedAt: published,
		UpdatedAt:   now,
	}, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("published_at %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}
