package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MrSnakeDoc/folio/internal/domain"
	"github.com/MrSnakeDoc/folio/internal/store"
)

const dashboardColumns = `id, dashboard_id, title, COALESCE(description, ''), is_active, is_featured,
	sort_order, COALESCE(embed_url, ''), charts, created_at, updated_at`

// ListWithEmbeds returns active dashboards that carry at least one embed URL,
// featured first, then by sort order, then by title.
func (s *Store) ListWithEmbeds(ctx context.Context) ([]domain.Dashboard, error) {
	query := `SELECT ` + dashboardColumns + `
FROM dashboards
WHERE is_active
  AND (COALESCE(embed_url, '') <> '' OR jsonb_array_length(charts) > 0)
ORDER BY is_featured DESC, sort_order ASC, title ASC`

	all, err := s.queryDashboards(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list dashboards with embeds: %w", err)
	}
	// charts may hold only empty entries; drop those without reordering.
	out := all[:0]
	for _, d := range all {
		if d.Renderable() {
			out = append(out, d)
		}
	}
	return out, nil
}

// ListDashboards returns every dashboard in catalog order, inactive ones included.
func (s *Store) ListDashboards(ctx context.Context) ([]domain.Dashboard, error) {
	query := `SELECT ` + dashboardColumns + `
FROM dashboards
ORDER BY is_featured DESC, sort_order ASC, title ASC`

	out, err := s.queryDashboards(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list dashboards: %w", err)
	}
	return out, nil
}

// GetDashboard returns the dashboard with the given human identifier.
func (s *Store) GetDashboard(ctx context.Context, dashboardID string) (domain.Dashboard, error) {
	query := `SELECT ` + dashboardColumns + ` FROM dashboards WHERE dashboard_id = $1`

	d, err := scanDashboard(s.pool.QueryRow(ctx, query, dashboardID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Dashboard{}, fmt.Errorf("dashboard %q: %w", dashboardID, store.ErrNotFound)
	}
	if err != nil {
		return domain.Dashboard{}, fmt.Errorf("get dashboard %q: %w", dashboardID, err)
	}
	return d, nil
}

// UpsertDashboard validates d and inserts or updates it by DashboardID.
// The returned dashboard carries the storage id and timestamps.
func (s *Store) UpsertDashboard(ctx context.Context, d domain.Dashboard) (domain.Dashboard, error) {
	if err := d.Validate(); err != nil {
		return domain.Dashboard{}, err
	}
	if d.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.Dashboard{}, fmt.Errorf("generate id: %w", err)
		}
		d.ID = id.String()
	}
	charts := d.Charts
	if charts == nil {
		charts = domain.ChartList{}
	}
	chartsJSON, err := json.Marshal(charts)
	if err != nil {
		return domain.Dashboard{}, fmt.Errorf("marshal charts: %w", err)
	}
	now := s.now().UTC()

	query := `
INSERT INTO dashboards (
	id, dashboard_id, title, description, is_active, is_featured,
	sort_order, embed_url, charts, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
ON CONFLICT (dashboard_id) DO UPDATE SET
	title = EXCLUDED.title,
	description = EXCLUDED.description,
	is_active = EXCLUDED.is_active,
	is_featured = EXCLUDED.is_featured,
	sort_order = EXCLUDED.sort_order,
	embed_url = EXCLUDED.embed_url,
	charts = EXCLUDED.charts,
	updated_at = EXCLUDED.updated_at
RETURNING id, created_at, updated_at`

	err = s.pool.QueryRow(ctx, query,
		d.ID, d.DashboardID, d.Title, d.Description, d.IsActive, d.IsFeatured,
		d.SortOrder, d.EmbedURL, chartsJSON, now,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return domain.Dashboard{}, fmt.Errorf("upsert dashboard %q: %w", d.DashboardID, err)
	}
	return d, nil
}

func (s *Store) queryDashboards(ctx context.Context, query string, args ...any) ([]domain.Dashboard, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Dashboard, 0)
	for rows.Next() {
		d, err := scanDashboard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanDashboard(row pgx.Row) (domain.Dashboard, error) {
	var (
		d      domain.Dashboard
		charts []byte
	)
	err := row.Scan(
		&d.ID, &d.DashboardID, &d.Title, &d.Description, &d.IsActive, &d.IsFeatured,
		&d.SortOrder, &d.EmbedURL, &charts, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return domain.Dashboard{}, err
	}
	if len(charts) > 0 {
		if err := json.Unmarshal(charts, &d.Charts); err != nil {
			return domain.Dashboard{}, fmt.Errorf("decode charts of %q: %w", d.DashboardID, err)
		}
	}
	return d, nil
}
