package resolver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/folio/internal/domain"
	"github.com/MrSnakeDoc/folio/internal/logger"
)

// gatedResolver holds each resolution until the test releases it. It ignores
// cancellation so a superseded resolution can still settle late.
type gatedResolver struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
	calls int
}

func newGatedResolver() *gatedResolver {
	return &gatedResolver{gates: map[string]chan struct{}{}}
}

func (g *gatedResolver) gate(id string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[id]
	if !ok {
		ch = make(chan struct{})
		g.gates[id] = ch
	}
	return ch
}

func (g *gatedResolver) Resolve(_ context.Context, ids []string) Result {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()

	<-g.gate(ids[0])
	out := Result{}
	for _, id := range ids {
		out = append(out, domain.Dashboard{DashboardID: id, Title: id})
	}
	return out
}

func (g *gatedResolver) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func waitCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestSessionWithoutPlaceholdersSettlesImmediately(t *testing.T) {
	g := newGatedResolver()
	s := NewSession(g, logger.NewNop())

	v := s.SetContent(context.Background(), "just prose")
	snap := s.Snapshot()

	require.Equal(t, uint64(1), v)
	require.False(t, snap.Pending)
	require.Empty(t, snap.Dashboards)
	require.Equal(t, 0, g.Calls())
	require.NotEmpty(t, s.ID())
}

func TestSessionPendingUntilResolved(t *testing.T) {
	g := newGatedResolver()
	s := NewSession(g, logger.NewNop())
	defer s.Close()

	s.SetContent(context.Background(), "{{embed_query:alpha}}")
	require.True(t, s.Snapshot().Pending)

	close(g.gate("alpha"))
	snap := s.Wait(waitCtx(t))

	require.False(t, snap.Pending)
	require.Len(t, snap.Dashboards, 1)
	require.Equal(t, "alpha", snap.Dashboards[0].DashboardID)
}

func TestSessionSameContentKeepsVersion(t *testing.T) {
	g := newGatedResolver()
	s := NewSession(g, logger.NewNop())
	defer s.Close()

	v1 := s.SetContent(context.Background(), "{{embed_query:alpha}}")
	v2 := s.SetContent(context.Background(), "{{embed_query:alpha}}")

	require.Equal(t, v1, v2)
	close(g.gate("alpha"))
	s.Wait(waitCtx(t))
	require.Equal(t, 1, g.Calls())
}

func TestSessionDropsSupersededResolution(t *testing.T) {
	g := newGatedResolver()
	s := NewSession(g, logger.NewNop())
	defer s.Close()

	vA := s.SetContent(context.Background(), "{{embed_query:alpha}}")
	vB := s.SetContent(context.Background(), "{{embed_query:beta}}")
	require.Greater(t, vB, vA)

	require.Eventually(t, func() bool { return g.Calls() == 2 }, time.Second, 5*time.Millisecond)

	// A settles late; its result must not land on B's state.
	close(g.gate("alpha"))
	time.Sleep(20 * time.Millisecond)

	snap := s.Snapshot()
	require.Equal(t, vB, snap.Version)
	require.True(t, snap.Pending)
	require.Empty(t, snap.Dashboards)

	close(g.gate("beta"))
	snap = s.Wait(waitCtx(t))

	require.Equal(t, vB, snap.Version)
	require.False(t, snap.Pending)
	require.Len(t, snap.Dashboards, 1)
	require.Equal(t, "beta", snap.Dashboards[0].DashboardID)
}

func TestSessionWaitFollowsNewestVersion(t *testing.T) {
	g := newGatedResolver()
	s := NewSession(g, logger.NewNop())
	defer s.Close()

	s.SetContent(context.Background(), "{{embed_query:alpha}}")

	ctx := waitCtx(t)
	done := make(chan Snapshot, 1)
	go func() { done <- s.Wait(ctx) }()

	s.SetContent(context.Background(), "{{embed_query:gamma}}")
	close(g.gate("alpha"))
	close(g.gate("gamma"))

	snap := <-done
	require.Equal(t, "{{embed_query:gamma}}", snap.Content)
	require.False(t, snap.Pending)
	require.Equal(t, "gamma", snap.Dashboards[0].DashboardID)
}

func TestSessionWaitHonoursContext(t *testing.T) {
	g := newGatedResolver()
	s := NewSession(g, logger.NewNop())
	defer func() {
		close(g.gate("alpha"))
		s.Close()
	}()

	s.SetContent(context.Background(), "{{embed_query:alpha}}")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	snap := s.Wait(ctx)

	require.True(t, snap.Pending)
}

func TestSessionWithRealResolverGivesUpEmpty(t *testing.T) {
	src := &fakeSource{fails: 100}
	r := New(src, RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, AttemptTimeout: time.Second}, logger.NewNop())
	s := NewSession(r, logger.NewNop())
	defer s.Close()

	s.SetContent(context.Background(), "intro\n{{embed_query:alpha}}\n")
	snap := s.Wait(waitCtx(t))

	require.False(t, snap.Pending)
	require.Empty(t, snap.Dashboards)
	require.Equal(t, 3, src.Calls())
}

// cancelAwareResolver blocks until its context ends.
type cancelAwareResolver struct{}

func (cancelAwareResolver) Resolve(ctx context.Context, _ []string) Result {
	<-ctx.Done()
	return Result{}
}

func TestSessionAbandonedResolutionStaysPending(t *testing.T) {
	s := NewSession(cancelAwareResolver{}, logger.NewNop())
	defer s.Close()

	parent, cancel := context.WithCancel(context.Background())
	s.SetContent(parent, "{{embed_query:alpha}}")
	cancel()

	snap := s.Wait(waitCtx(t))
	require.True(t, snap.Pending)
	require.Empty(t, snap.Dashboards)
	require.True(t, snap.SettledAt.IsZero())
}

func TestSessionRecordsSettleTime(t *testing.T) {
	g := newGatedResolver()
	s := NewSession(g, logger.NewNop())
	defer s.Close()

	before := time.Now()
	s.SetContent(context.Background(), "{{embed_query:alpha}}")
	require.True(t, s.Snapshot().SettledAt.IsZero())

	close(g.gate("alpha"))
	snap := s.Wait(waitCtx(t))
	require.False(t, snap.Pending)
	require.False(t, snap.SettledAt.Before(before))
}
