package blog

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/folio/internal/cache"
	"github.com/MrSnakeDoc/folio/internal/domain"
	"github.com/MrSnakeDoc/folio/internal/index"
	"github.com/MrSnakeDoc/folio/internal/logger"
	"github.com/MrSnakeDoc/folio/internal/render"
	"github.com/MrSnakeDoc/folio/internal/resolver"
	"github.com/MrSnakeDoc/folio/internal/store"
)

type stubResolver struct {
	result resolver.Result
	block  bool
	calls  atomic.Int32
}

func (s *stubResolver) Resolve(ctx context.Context, ids []string) resolver.Result {
	s.calls.Add(1)
	if s.block {
		<-ctx.Done()
		return resolver.Result{}
	}
	return s.result
}

type countingComments struct {
	calls atomic.Int32
	err   error
}

func (c *countingComments) CountComments(context.Context, string) (int, error) {
	c.calls.Add(1)
	return 3, c.err
}

func gasDashboard() domain.Dashboard {
	return domain.Dashboard{
		ID:          "seed:gas",
		DashboardID: "gas",
		Title:       "Gas",
		IsActive:    true,
		Charts: domain.ChartList{
			domain.LegacyURL("https://dune.com/embeds/1/1"),
			domain.LegacyURL("https://dune.com/embeds/1/2"),
		},
	}
}

func newIndex(t *testing.T) *index.MemoryIndex {
	t.Helper()
	idx := index.NewMemoryIndex()
	idx.UpdatePosts([]domain.Post{
		{ID: "p1", Slug: "hello", Title: "Hello", Published: true,
			PublishedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			Content:     "# Hello\n{{embed_query:gas}}\nbye"},
		{ID: "p2", Slug: "draft", Title: "Draft", Published: false},
	})
	return idx
}

func TestRenderResolvesPlaceholders(t *testing.T) {
	res := &stubResolver{result: resolver.Result{gasDashboard()}}
	svc := New(Options{Resolver: res, Logger: logger.NewNop()})

	out := svc.Render(context.Background(), "intro\n{{embed_query:gas}}")

	require.False(t, out.Pending)
	counts := out.Nodes.Counts()
	require.Equal(t, 2, counts[render.KindEmbed])
	require.Equal(t, 1, counts[render.KindParagraph])
	require.EqualValues(t, 1, res.calls.Load())
}

func TestRenderWithoutPlaceholdersSkipsResolver(t *testing.T) {
	res := &stubResolver{}
	svc := New(Options{Resolver: res})

	out := svc.Render(context.Background(), "just text")
	require.False(t, out.Pending)
	require.Zero(t, res.calls.Load())
}

func TestRenderPendingAfterWaitBudget(t *testing.T) {
	res := &stubResolver{block: true}
	svc := New(Options{Resolver: res, RenderWait: 20 * time.Millisecond})
	t.Cleanup(svc.Close)

	out := svc.Render(context.Background(), "{{embed_query:gas}}")

	require.True(t, out.Pending)
	require.Len(t, out.Nodes, 1)
	loading, ok := out.Nodes[0].(render.LoadingNode)
	require.True(t, ok)
	require.Equal(t, "gas", loading.DashboardID)
}

func TestEmbedUnknownDashboardWarns(t *testing.T) {
	svc := New(Options{Resolver: &stubResolver{result: resolver.Result{}}})

	out := svc.Embed(context.Background(), "nope")

	require.False(t, out.Pending)
	require.Len(t, out.Nodes, 1)
	require.Equal(t, render.KindWarning, out.Nodes[0].Kind())
}

func TestPost(t *testing.T) {
	idx := newIndex(t)
	comments := &countingComments{}
	svc := New(Options{
		Posts:    idx,
		Comments: comments,
		Views:    idx,
		Resolver: &stubResolver{result: resolver.Result{gasDashboard()}},
	})

	page, err := svc.Post(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "Hello", page.Post.Title)
	require.EqualValues(t, 1, page.Views)
	require.Equal(t, 3, page.Comments)
	require.Equal(t, 2, page.Rendered.Nodes.Counts()[render.KindEmbed])

	page, err = svc.Post(context.Background(), "hello")
	require.NoError(t, err)
	require.EqualValues(t, 2, page.Views)
	require.EqualValues(t, 1, comments.calls.Load(), "comment count should come from cache")

	_, err = svc.Post(context.Background(), "draft")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestListPostsCachesCommentCounts(t *testing.T) {
	idx := newIndex(t)
	comments := &countingComments{}
	memCache := cache.NewMemory(time.Minute)
	svc := New(Options{Posts: idx, Comments: comments, Cache: memCache, Resolver: &stubResolver{}})

	for i := 0; i < 3; i++ {
		list, err := svc.ListPosts(context.Background(), 0)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, 3, list[0].CommentCount)
	}
	require.EqualValues(t, 1, comments.calls.Load())

	require.NoError(t, memCache.Invalidate(context.Background(), cache.CommentCountKey("p1")))
	_, err := svc.ListPosts(context.Background(), 0)
	require.NoError(t, err)
	require.EqualValues(t, 2, comments.calls.Load())
}

func TestListPostsCommentErrorDegrades(t *testing.T) {
	comments := &countingComments{err: errors.New("db down")}
	svc := New(Options{Posts: newIndex(t), Comments: comments, Resolver: &stubResolver{}})

	list, err := svc.ListPosts(context.Background(), 0)
	require.NoError(t, err)
	require.Zero(t, list[0].CommentCount)
}

// catalogSource answers after delay, with err when set.
type catalogSource struct {
	delay time.Duration
	err   error
	list  []domain.Dashboard
	calls atomic.Int32
}

func (c *catalogSource) ListWithEmbeds(ctx context.Context) ([]domain.Dashboard, error) {
	c.calls.Add(1)
	select {
	case <-time.After(c.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.list, nil
}

// pollEmbed calls Embed the way a hydrating page does, each time with a
// request context that ends right after the call, until it stops pending.
func pollEmbed(t *testing.T, svc *Service, id string) Rendered {
	t.Helper()
	var out Rendered
	require.Eventually(t, func() bool {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		out = svc.Embed(ctx, id)
		return !out.Pending
	}, 3*time.Second, 10*time.Millisecond)
	return out
}

func TestEmbedHydratesAfterRetriesGiveUp(t *testing.T) {
	src := &catalogSource{err: errors.New("backend unavailable")}
	svc := New(Options{
		Resolver: resolver.New(src, resolver.RetryPolicy{
			MaxAttempts:    3,
			BaseDelay:      20 * time.Millisecond,
			AttemptTimeout: 100 * time.Millisecond,
		}, logger.NewNop()),
		RenderWait: 5 * time.Millisecond,
	})
	t.Cleanup(svc.Close)

	first := svc.Embed(context.Background(), "gas")
	require.True(t, first.Pending)
	require.Equal(t, render.KindLoading, first.Nodes[0].Kind())

	out := pollEmbed(t, svc, "gas")
	require.Len(t, out.Nodes, 1)
	require.Equal(t, render.KindWarning, out.Nodes[0].Kind())
	require.EqualValues(t, 3, src.calls.Load(), "all polls should share one resolution")
}

func TestEmbedHydratesSlowCatalog(t *testing.T) {
	src := &catalogSource{delay: 60 * time.Millisecond, list: []domain.Dashboard{gasDashboard()}}
	svc := New(Options{
		Resolver:   resolver.New(src, resolver.DefaultRetryPolicy(), logger.NewNop()),
		RenderWait: 5 * time.Millisecond,
	})
	t.Cleanup(svc.Close)

	require.True(t, svc.Embed(context.Background(), "gas").Pending)

	out := pollEmbed(t, svc, "gas")
	require.Equal(t, 2, out.Nodes.Counts()[render.KindEmbed])
	require.EqualValues(t, 1, src.calls.Load())
}

func TestSettledResolutionRefreshesAfterTTL(t *testing.T) {
	idx := index.NewMemoryIndex()
	svc := New(Options{
		Resolver:   resolver.New(idx, resolver.DefaultRetryPolicy(), logger.NewNop()),
		SessionTTL: time.Minute,
	})
	t.Cleanup(svc.Close)

	out := svc.Embed(context.Background(), "gas")
	require.Equal(t, render.KindWarning, out.Nodes[0].Kind())

	idx.UpdateDashboards([]domain.Dashboard{gasDashboard()})
	out = svc.Embed(context.Background(), "gas")
	require.Equal(t, render.KindWarning, out.Nodes[0].Kind(), "settled result is reused within the TTL")

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	out = svc.Embed(context.Background(), "gas")
	require.False(t, out.Pending)
	require.Equal(t, 2, out.Nodes.Counts()[render.KindEmbed])
	require.Equal(t, 1, svc.Sessions(), "expired sessions are swept")
}

func TestPostContentChangeSupersedesResolution(t *testing.T) {
	idx := newIndex(t)
	res := &stubResolver{result: resolver.Result{gasDashboard()}}
	svc := New(Options{Posts: idx, Resolver: res})
	t.Cleanup(svc.Close)

	page, err := svc.Post(context.Background(), "hello")
	require.NoError(t, err)
	first := page.Rendered.Version

	idx.UpdatePosts([]domain.Post{{ID: "p1", Slug: "hello", Published: true,
		Content: "{{embed_query:gas}}\n{{embed_query:gas}}"}})

	page, err = svc.Post(context.Background(), "hello")
	require.NoError(t, err)
	require.Greater(t, page.Rendered.Version, first)
	require.Equal(t, 4, page.Rendered.Nodes.Counts()[render.KindEmbed])
	require.Equal(t, 1, svc.Sessions())
}

func TestCloseAbandonsResolutions(t *testing.T) {
	res := &stubResolver{block: true}
	svc := New(Options{Resolver: res, RenderWait: 5 * time.Millisecond})

	require.True(t, svc.Embed(context.Background(), "gas").Pending)
	svc.Close()
	require.Zero(t, svc.Sessions())
}

func TestInvalidateDropsSettledSessions(t *testing.T) {
	idx := index.NewMemoryIndex()
	svc := New(Options{Resolver: resolver.New(idx, resolver.DefaultRetryPolicy(), logger.NewNop())})
	t.Cleanup(svc.Close)

	require.Equal(t, render.KindWarning, svc.Embed(context.Background(), "gas").Nodes[0].Kind())

	idx.UpdateDashboards([]domain.Dashboard{gasDashboard()})
	svc.Invalidate()
	require.Zero(t, svc.Sessions())

	out := svc.Embed(context.Background(), "gas")
	require.Equal(t, 2, out.Nodes.Counts()[render.KindEmbed])
}
