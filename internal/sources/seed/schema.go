package seed

import "github.com/MrSnakeDoc/folio/internal/domain"

// File represents the top-level structure of the seed catalog (seed.yaml)
type File struct {
	Dashboards []DashboardProps `yaml:"dashboards"`
	Posts      []PostProps      `yaml:"posts"`
}

// DashboardProps contains the dashboard fields authored in the seed file
type DashboardProps struct {
	DashboardID string           `yaml:"dashboard_id"`
	Title       string           `yaml:"title"`
	Description string           `yaml:"description,omitempty"`
	Active      *bool            `yaml:"active,omitempty"` // defaults to true
	Featured    bool             `yaml:"featured,omitempty"`
	SortOrder   int              `yaml:"sort_order,omitempty"`
	EmbedURL    string           `yaml:"embed_url,omitempty"`
	Charts      domain.ChartList `yaml:"charts,omitempty"`
}

// PostProps contains the post fields authored in the seed file.
// Content is inline; ContentFile is a path relative to the seed file.
type PostProps struct {
	Slug        string   `yaml:"slug"`
	Title       string   `yaml:"title"`
	Excerpt     string   `yaml:"excerpt,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
	Draft       bool     `yaml:"draft,omitempty"`
	PublishedAt string   `yaml:"published_at,omitempty"` // YYYY-MM-DD or RFC 3339
	Content     string   `yaml:"content,omitempty"`
	ContentFile string   `yaml:"content_file,omitempty"`
}
