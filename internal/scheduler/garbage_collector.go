package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/folio/internal/cache"
	"github.com/MrSnakeDoc/folio/internal/index"
	"github.com/MrSnakeDoc/folio/internal/logger"
	redisstore "github.com/MrSnakeDoc/folio/internal/store/redis"
)

const (
	// DefaultGCThreshold is the duration after which deactivated dashboards are deleted
	DefaultGCThreshold = 30 * 24 * time.Hour // 30 days
)

// GarbageCollector drops dashboards deactivated for too long and sweeps
// expired entries from the in-process cache
type GarbageCollector struct {
	store     *redisstore.Store
	index     *index.MemoryIndex
	cache     *cache.Memory
	logger    logger.Logger
	interval  time.Duration
	threshold time.Duration
	stopCh    chan struct{}
	now       func() time.Time
}

// NewGarbageCollector creates a new garbage collector.
// store and memCache may be nil.
func NewGarbageCollector(
	store *redisstore.Store,
	idx *index.MemoryIndex,
	memCache *cache.Memory,
	log logger.Logger,
	interval time.Duration,
	threshold time.Duration,
) *GarbageCollector {
	if threshold == 0 {
		threshold = DefaultGCThreshold
	}

	return &GarbageCollector{
		store:     store,
		index:     idx,
		cache:     memCache,
		logger:    log,
		interval:  interval,
		threshold: threshold,
		stopCh:    make(chan struct{}),
		now:       time.Now,
	}
}

// Start begins the periodic garbage collection process
func (gc *GarbageCollector) Start(ctx context.Context) error {
	// Run immediately on start
	if err := gc.Collect(ctx); err != nil {
		gc.logger.Warn("initial garbage collection failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(gc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := gc.Collect(ctx); err != nil {
					gc.logger.Error("garbage collection failed",
						logger.Error(err))
				}
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the garbage collector
func (gc *GarbageCollector) Stop() {
	close(gc.stopCh)
}

// Collect removes stale dashboards and expired cache entries
func (gc *GarbageCollector) Collect(ctx context.Context) error {
	gc.logger.Debug("running garbage collection")

	deleted := gc.collectDashboards(ctx, gc.now())

	swept := 0
	if gc.cache != nil {
		swept = gc.cache.Sweep()
	}

	if deleted > 0 || swept > 0 {
		gc.logger.Info("garbage collection completed",
			logger.Int("dashboards_deleted", deleted),
			logger.Int("cache_entries_swept", swept))
	} else {
		gc.logger.Debug("nothing to garbage collect")
	}

	return nil
}

// collectDashboards removes seed dashboards deactivated longer than the threshold
func (gc *GarbageCollector) collectDashboards(ctx context.Context, now time.Time) int {
	deletedCount := 0

	for _, d := range gc.index.AllDashboards() {
		// Admin-managed dashboards are never collected
		if d.IsActive || !isSeeded(d) {
			continue
		}

		if d.UpdatedAt.IsZero() {
			continue
		}

		inactiveFor := now.Sub(d.UpdatedAt)
		if inactiveFor < gc.threshold {
			continue
		}

		gc.index.DeleteDashboard(d.DashboardID)

		// Delete from Redis store (best effort)
		if gc.store != nil {
			if err := gc.store.DeleteDashboard(ctx, d.DashboardID); err != nil {
				gc.logger.Warn("failed to delete dashboard from redis",
					logger.String("dashboard_id", d.DashboardID),
					logger.Error(err))
			}
		}

		gc.logger.Info("garbage collected inactive dashboard",
			logger.String("dashboard_id", d.DashboardID),
			logger.String("inactive_for", inactiveFor.String()))

		deletedCount++
	}

	return deletedCount
}
