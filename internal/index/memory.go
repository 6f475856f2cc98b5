package index

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/folio/internal/domain"
	"github.com/MrSnakeDoc/folio/internal/store"
)

// MemoryIndex provides in-memory storage and lookup for dashboards and posts.
// It serves the catalog when Postgres is not configured.
type MemoryIndex struct {
	mu         sync.RWMutex
	dashboards map[string]domain.Dashboard // DashboardID -> Dashboard
	posts      map[string]domain.Post      // Slug -> Post
	views      map[string]int64            // Slug -> views
	lastReload time.Time                   // Timestamp of last dashboards reload
}

// NewMemoryIndex creates a new memory index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		dashboards: make(map[string]domain.Dashboard),
		posts:      make(map[string]domain.Post),
		views:      make(map[string]int64),
	}
}

// UpdateDashboards replaces all dashboards in the index
func (idx *MemoryIndex) UpdateDashboards(dashboards []domain.Dashboard) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	// Clear and rebuild
	idx.dashboards = make(map[string]domain.Dashboard, len(dashboards))
	for _, d := range dashboards {
		idx.dashboards[d.DashboardID] = d
	}
	idx.lastReload = time.Now()
}

// GetDashboard retrieves a dashboard by its human identifier
func (idx *MemoryIndex) GetDashboard(dashboardID string) (domain.Dashboard, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	d, ok := idx.dashboards[dashboardID]
	return d, ok
}

// AllDashboards returns every dashboard in catalog order
func (idx *MemoryIndex) AllDashboards() []domain.Dashboard {
	idx.mu.RLock()
	out := make([]domain.Dashboard, 0, len(idx.dashboards))
	for _, d := range idx.dashboards {
		out = append(out, d)
	}
	idx.mu.RUnlock()

	domain.SortDashboards(out)
	return out
}

// ListWithEmbeds returns the renderable dashboards in catalog order.
// It satisfies resolver.DashboardSource.
func (idx *MemoryIndex) ListWithEmbeds(ctx context.Context) ([]domain.Dashboard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all := idx.AllDashboards()
	out := all[:0]
	for _, d := range all {
		if d.Renderable() {
			out = append(out, d)
		}
	}
	return out, nil
}

// ListDashboards returns every dashboard, inactive ones included, in catalog order
func (idx *MemoryIndex) ListDashboards(ctx context.Context) ([]domain.Dashboard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return idx.AllDashboards(), nil
}

// UpsertDashboard validates d and stores it, keyed by DashboardID.
// An existing entry keeps its storage ID and creation time.
func (idx *MemoryIndex) UpsertDashboard(_ context.Context, d domain.Dashboard) (domain.Dashboard, error) {
	if err := d.Validate(); err != nil {
		return domain.Dashboard{}, err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := idx.dashboards[d.DashboardID]; ok {
		d.ID = existing.ID
		d.CreatedAt = existing.CreatedAt
	} else {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.Dashboard{}, fmt.Errorf("failed to generate id: %w", err)
		}
		d.ID = id.String()
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	idx.dashboards[d.DashboardID] = d
	return d, nil
}

// AddDashboard adds or updates a single dashboard
func (idx *MemoryIndex) AddDashboard(d domain.Dashboard) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.dashboards[d.DashboardID] = d
}

// DeleteDashboard removes a dashboard from the index
func (idx *MemoryIndex) DeleteDashboard(dashboardID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.dashboards, dashboardID)
}

// Count returns the number of dashboards in the index
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.dashboards)
}

// GetLastReload returns the timestamp of the last dashboards reload
func (idx *MemoryIndex) GetLastReload() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastReload
}

// ─────────────────────────────────────────────────────────────────
// Post methods
// ─────────────────────────────────────────────────────────────────

// UpdatePosts replaces all posts in the index
func (idx *MemoryIndex) UpdatePosts(posts []domain.Post) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	// Clear and rebuild
	idx.posts = make(map[string]domain.Post, len(posts))
	for _, p := range posts {
		idx.posts[p.Slug] = p
	}
}

// GetPost returns the published post with the given slug
func (idx *MemoryIndex) GetPost(_ context.Context, slug string) (domain.Post, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	p, ok := idx.posts[slug]
	if !ok || !p.Published {
		return domain.Post{}, store.ErrNotFound
	}
	return p, nil
}

// ListPosts returns published posts, newest first. A limit <= 0 means no limit.
func (idx *MemoryIndex) ListPosts(_ context.Context, limit int) ([]domain.Post, error) {
	idx.mu.RLock()
	out := make([]domain.Post, 0, len(idx.posts))
	for _, p := range idx.posts {
		if p.Published {
			out = append(out, p)
		}
	}
	idx.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].PublishedAt.After(out[j].PublishedAt)
		}
		return out[i].Slug < out[j].Slug
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// PostCount returns the number of posts in the index
func (idx *MemoryIndex) PostCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.posts)
}

// IncrementViews increments the view counter for a post
func (idx *MemoryIndex) IncrementViews(_ context.Context, slug string) (int64, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.views[slug]++
	return idx.views[slug], nil
}
