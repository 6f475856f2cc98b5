// Package resolver fetches the dashboards referenced by article placeholders.
//
// A Resolver performs one bulk catalog fetch per attempt, filters the result
// to the requested identifiers and degrades to an empty result after the
// retry budget is spent. A Session ties resolutions to a content version so
// a superseded resolution never overwrites newer state.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MrSnakeDoc/folio/internal/domain"
	"github.com/MrSnakeDoc/folio/internal/logger"
	"github.com/MrSnakeDoc/folio/internal/metrics"
)

const fetchKey = "dashboards_with_embeds"

// errCallExpired marks a shared catalog call that ran out of its own time.
var errCallExpired = errors.New("catalog call expired")

// DashboardSource is the external catalog.
//
// ListWithEmbeds returns every active dashboard carrying at least one embed
// URL, sorted featured-first, then by ascending sort order, then by title.
type DashboardSource interface {
	ListWithEmbeds(ctx context.Context) ([]domain.Dashboard, error)
}

// Result holds resolved dashboards in catalog order.
// Callers must not re-sort it: placeholder rendering relies on the catalog order.
type Result []domain.Dashboard

// Lookup returns the first dashboard whose DashboardID equals id.
func (r Result) Lookup(id string) (domain.Dashboard, bool) {
	for _, d := range r {
		if d.DashboardID == id {
			return d, true
		}
	}
	return domain.Dashboard{}, false
}

// DashboardResolver is implemented by Resolver and by test fakes.
type DashboardResolver interface {
	Resolve(ctx context.Context, ids []string) Result
}

// Resolver resolves placeholder identifiers against a DashboardSource.
type Resolver struct {
	source DashboardSource
	policy RetryPolicy
	logger logger.Logger
	group  singleflight.Group

	// wait blocks for d or until ctx ends; false means ctx ended first.
	wait func(ctx context.Context, d time.Duration) bool
}

// New creates a resolver. A zero-valued policy field falls back to its default.
func New(source DashboardSource, policy RetryPolicy, log logger.Logger) *Resolver {
	return &Resolver{
		source: source,
		policy: policy.normalized(),
		logger: log,
		wait:   sleepContext,
	}
}

// Resolve returns the dashboards for ids, in catalog order.
//
// An empty ids slice returns immediately without touching the source. After
// the last failed attempt, or when ctx ends, the result is empty: callers
// treat that as "no dashboards available yet", never as a hard failure.
func (r *Resolver) Resolve(ctx context.Context, ids []string) Result {
	if len(ids) == 0 {
		return Result{}
	}

	for attempt := 1; ; attempt++ {
		all, err := r.fetch(ctx)
		if err == nil {
			metrics.ObserveResolveAttempt("ok")
			return filter(all, ids)
		}
		metrics.ObserveResolveAttempt(outcome(err))

		if ctx.Err() != nil {
			r.logger.Debug("resolution abandoned",
				logger.Int("attempt", attempt),
				logger.Error(ctx.Err()))
			return Result{}
		}

		if !r.policy.CanRetry(attempt) {
			metrics.ObserveResolveGiveUp()
			r.logger.Warn("dashboard resolution failed, giving up",
				logger.Int("attempts", attempt),
				logger.Strings("ids", ids),
				logger.Error(err))
			return Result{}
		}

		delay := r.policy.Backoff(attempt)
		r.logger.Warn("dashboard fetch failed, retrying",
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", delay),
			logger.Error(err))

		if !r.wait(ctx, delay) {
			return Result{}
		}
	}
}

// fetch performs one bulk catalog call bounded by the attempt timeout.
// Concurrent callers share a single in-flight call; nothing is kept afterwards.
// A caller that joined a shared call which then ran out of time fetches again,
// so every attempt gets its full timeout.
func (r *Resolver) fetch(ctx context.Context) ([]domain.Dashboard, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.policy.AttemptTimeout)
	defer cancel()

	for {
		ch := r.group.DoChan(fetchKey, func() (interface{}, error) {
			callCtx, callCancel := context.WithTimeout(context.WithoutCancel(ctx), r.policy.AttemptTimeout)
			defer callCancel()
			list, err := r.source.ListWithEmbeds(callCtx)
			if err != nil && callCtx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", errCallExpired, err)
			}
			return list, err
		})

		select {
		case res := <-ch:
			if res.Err != nil {
				if res.Shared && errors.Is(res.Err, errCallExpired) && attemptCtx.Err() == nil {
					continue
				}
				return nil, res.Err
			}
			list, _ := res.Val.([]domain.Dashboard)
			return list, nil
		case <-attemptCtx.Done():
			return nil, attemptCtx.Err()
		}
	}
}

// filter keeps the requested dashboards without changing their relative order.
func filter(all []domain.Dashboard, ids []string) Result {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	out := make(Result, 0, len(ids))
	for _, d := range all {
		if _, ok := wanted[d.DashboardID]; ok {
			out = append(out, d)
		}
	}
	return out
}

func outcome(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "error"
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
