package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/folio/internal/domain"
	"github.com/MrSnakeDoc/folio/internal/store"
)

var dashboardCols = []string{
	"id", "dashboard_id", "title", "description", "is_active", "is_featured",
	"sort_order", "embed_url", "charts", "created_at", "updated_at",
}

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	s, err := NewWithPool(mock)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s, mock
}

func TestNewWithPoolRequiresPool(t *testing.T) {
	_, err := NewWithPool(nil)
	require.Error(t, err)
}

func TestListWithEmbedsKeepsOrderAndDecodesCharts(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)
	now := time.Unix(1700000000, 0).UTC()

	mock.ExpectQuery(`FROM dashboards\s+WHERE is_active`).
		WillReturnRows(pgxmock.NewRows(dashboardCols).
			AddRow("1", "featured", "Zeta", "", true, true, 5, "", []byte(`["https://dune.com/embeds/1/1",{"url":"https://dune.com/embeds/1/2","title":"Volume"}]`), now, now).
			AddRow("2", "empty_charts", "Alpha", "", true, false, 0, "", []byte(`[""]`), now, now).
			AddRow("3", "legacy", "Beta", "desc", true, false, 1, "https://dune.com/embeds/3/1", []byte(`[]`), now, now))

	got, err := s.ListWithEmbeds(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, got, 2)
	require.Equal(t, "featured", got[0].DashboardID)
	require.Equal(t, "legacy", got[1].DashboardID)

	charts := got[0].ChartsToRender()
	require.Len(t, charts, 2)
	require.Equal(t, "Volume", charts[1].Title)
	require.Equal(t, "desc", got[1].Description)
}

func TestListWithEmbedsQueryError(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM dashboards`).WillReturnError(errors.New("connection reset"))

	_, err := s.ListWithEmbeds(context.Background())
	require.ErrorContains(t, err, "connection reset")
}

func TestGetDashboardNotFound(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM dashboards WHERE dashboard_id = \$1`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetDashboard(context.Background(), "nope")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertDashboard(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)
	now := s.now().UTC()

	d := domain.Dashboard{
		DashboardID: "eth_gas",
		Title:       "Gas",
		IsActive:    true,
		Charts:      domain.ChartList{domain.StructuredChart{URL: "https://dune.com/embeds/1/1", Title: "Base fee"}},
	}

	mock.ExpectQuery(`INSERT INTO dashboards`).
		WithArgs(pgxmock.AnyArg(), "eth_gas", "Gas", "", true, false, 0, "",
			[]byte(`[{"url":"https://dune.com/embeds/1/1","title":"Base fee"}]`), now).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("0190-uuid", now, now))

	got, err := s.UpsertDashboard(context.Background(), d)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	require.Equal(t, "0190-uuid", got.ID)
	require.Equal(t, now, got.UpdatedAt)
}

func TestUpsertDashboardRejectsInvalidEmbed(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)

	_, err := s.UpsertDashboard(context.Background(), domain.Dashboard{
		DashboardID: "bad",
		Title:       "Bad",
		EmbedURL:    "https://dune.com/dashboard/abc",
	})
	require.ErrorIs(t, err, domain.ErrValidation)
	require.ErrorIs(t, err, domain.ErrInvalidEmbedURL)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPost(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)
	published := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM posts WHERE slug = \$1 AND published`).
		WithArgs("hello").
		WillReturnRows(pgxmock.NewRows([]string{"id", "slug", "title", "excerpt", "content", "tags", "published", "published_at", "updated_at"}).
			AddRow("p1", "hello", "Hello", "", "# Hi", []string{"defi"}, true, &published, published))

	p, err := s.GetPost(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "# Hi", p.Content)
	require.Equal(t, published, p.PublishedAt)
	require.Equal(t, []string{"defi"}, p.Tags)
}

func TestGetPostNotFound(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM posts`).WithArgs("gone").WillReturnError(pgx.ErrNoRows)

	_, err := s.GetPost(context.Background(), "gone")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestListPostsWithLimit(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)
	now := time.Unix(1700000000, 0).UTC()

	mock.ExpectQuery(`FROM posts\s+WHERE published\s+ORDER BY published_at DESC NULLS LAST, slug ASC LIMIT \$1`).
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows([]string{"id", "slug", "title", "excerpt", "content", "tags", "published", "published_at", "updated_at"}).
			AddRow("p2", "newer", "Newer", "x", "", []string{}, true, &now, now).
			AddRow("p1", "older", "Older", "", "", []string{}, true, &now, now))

	got, err := s.ListPosts(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "newer", got[0].Slug)
}

func TestCountComments(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM comments`).
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(4)))

	n, err := s.CountComments(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, 4, n)
}

func TestEnsureSchemaAndReady(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS dashboards`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery(`to_regclass`).WillReturnRows(pgxmock.NewRows([]string{"ok"}).AddRow(true))

	require.NoError(t, s.EnsureSchema(context.Background()))
	ok, err := s.SchemaReady(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}
