package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Dashboard is a catalog entry that article placeholders refer to.
//
// It is authored through the admin API and read-only for the renderer.
// A Dashboard is uniquely identified by its DashboardID, the human-assigned
// key used in {{embed_query:<dashboard_id>}} tokens.
type Dashboard struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is the storage-assigned primary key.
	ID string `json:"id" yaml:"id,omitempty"`

	// DashboardID is the human-assigned key referenced by placeholders.
	// Example: eth_staking_overview
	DashboardID string `json:"dashboard_id" yaml:"dashboard_id"`

	// ─────────────────────────────
	// Presentation
	// ─────────────────────────────

	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// ─────────────────────────────
	// Catalog flags & ordering
	// ─────────────────────────────

	IsActive   bool `json:"is_active" yaml:"is_active"`
	IsFeatured bool `json:"is_featured" yaml:"is_featured"`
	SortOrder  int  `json:"sort_order" yaml:"sort_order"`

	// ─────────────────────────────
	// Embeds
	// ─────────────────────────────

	// EmbedURL is the legacy single-embed field. It is only used when
	// Charts holds no usable entry.
	EmbedURL string `json:"embed_url,omitempty" yaml:"embed_url,omitempty"`

	// Charts holds zero or more chart embeds, bare URLs or structured.
	Charts ChartList `json:"charts,omitempty" yaml:"charts,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// ChartsToRender returns the canonical chart list used for rendering.
//
// The structured list wins entirely when it has at least one entry with a
// non-empty URL; the legacy EmbedURL becomes a single implicit chart otherwise.
func (d Dashboard) ChartsToRender() []Chart {
	charts := d.Charts.Normalize()
	if len(charts) > 0 {
		return charts
	}
	if legacy := strings.TrimSpace(d.EmbedURL); legacy != "" {
		return []Chart{{URL: legacy}}
	}
	return nil
}

// HasEmbeds reports whether the dashboard carries at least one non-empty embed URL.
func (d Dashboard) HasEmbeds() bool {
	return len(d.ChartsToRender()) > 0
}

// Renderable reports whether placeholders may expand this dashboard.
func (d Dashboard) Renderable() bool {
	return d.IsActive && d.HasEmbeds()
}

// ChartTitle computes the display title of the n-th chart (1-based) out of total.
func (d Dashboard) ChartTitle(c Chart, n, total int) string {
	if c.Title != "" {
		return c.Title
	}
	if total > 1 {
		return fmt.Sprintf("%s - Chart %d", d.Title, n)
	}
	return d.Title
}

// Validate checks the fields the admin API requires before persisting.
func (d Dashboard) Validate() error {
	if !IsValidIdentifier(d.DashboardID) {
		return fmt.Errorf("%w: dashboard_id %q must match [a-zA-Z0-9_-]+", ErrValidation, d.DashboardID)
	}
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if u := strings.TrimSpace(d.EmbedURL); u != "" {
		if err := ValidateEmbedURL(u); err != nil {
			return fmt.Errorf("%w: embed_url: %w", ErrValidation, err)
		}
	}
	for i, c := range d.Charts.Normalize() {
		if err := ValidateEmbedURL(c.URL); err != nil {
			return fmt.Errorf("%w: charts[%d]: %w", ErrValidation, i, err)
		}
	}
	return nil
}

// IsValidIdentifier reports whether s is a legal dashboard identifier.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// SortDashboards orders ds the way the catalog serves them: featured first,
// then ascending SortOrder, then Title.
func SortDashboards(ds []Dashboard) {
	sort.SliceStable(ds, func(i, j int) bool {
		a, b := ds[i], ds[j]
		if a.IsFeatured != b.IsFeatured {
			return a.IsFeatured
		}
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.Title < b.Title
	})
}
