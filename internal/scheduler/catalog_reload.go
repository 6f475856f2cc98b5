package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/folio/internal/domain"
	"github.com/MrSnakeDoc/folio/internal/index"
	"github.com/MrSnakeDoc/folio/internal/logger"
	"github.com/MrSnakeDoc/folio/internal/sources/seed"
	redisstore "github.com/MrSnakeDoc/folio/internal/store/redis"
)

const seedIDPrefix = "seed:"

// CatalogReloader handles periodic reloading of the seed catalog
type CatalogReloader struct {
	loader        *seed.Loader
	mapper        *seed.Mapper
	store         *redisstore.Store
	index         *index.MemoryIndex
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
	now           func() time.Time
}

// NewCatalogReloader creates a new catalog reloader
func NewCatalogReloader(
	seedFile string,
	store *redisstore.Store,
	idx *index.MemoryIndex,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *CatalogReloader {
	return &CatalogReloader{
		loader:        seed.NewLoader(seedFile),
		mapper:        seed.NewMapper(),
		store:         store,
		index:         idx,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
		now:           time.Now,
	}
}

// Start begins the periodic reload process
func (cr *CatalogReloader) Start(ctx context.Context) error {
	// Load immediately on start
	if err := cr.Reload(ctx); err != nil {
		return fmt.Errorf("initial catalog reload failed: %w", err)
	}

	// Start periodic reload
	ticker := time.NewTicker(cr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := cr.Reload(ctx); err != nil {
					cr.logger.Error("failed to reload catalog",
						logger.Error(err))
				}
			case <-cr.manualTrigger:
				cr.logger.Info("manual catalog reload triggered")
				if err := cr.Reload(ctx); err != nil {
					cr.logger.Error("failed to reload catalog",
						logger.Error(err))
				}
			case <-cr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (cr *CatalogReloader) Stop() {
	close(cr.stopCh)
}

// Reload loads the seed file and updates index + store.
// Dashboards added through the admin API are kept; seed dashboards that
// disappeared from the file are deactivated so the collector can drop them later.
func (cr *CatalogReloader) Reload(ctx context.Context) error {
	cr.logger.Info("reloading catalog from seed", logger.String("file", cr.loader.Path()))

	file, err := cr.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load seed: %w", err)
	}

	res, err := cr.mapper.Map(file)
	if err != nil {
		return fmt.Errorf("failed to map seed: %w", err)
	}

	for _, reason := range res.Skipped {
		cr.logger.Warn("skipped seed entry", logger.String("reason", reason))
	}

	cr.logger.Info("loaded catalog from seed",
		logger.Int("dashboards", len(res.Dashboards)),
		logger.Int("posts", len(res.Posts)))

	// Build map of new dashboard IDs for quick lookup
	fresh := make(map[string]bool, len(res.Dashboards))
	for _, d := range res.Dashboards {
		fresh[d.DashboardID] = true
	}

	dashboards := res.Dashboards
	var deactivated int
	for _, existing := range cr.index.AllDashboards() {
		if fresh[existing.DashboardID] {
			continue
		}
		if !isSeeded(existing) {
			// Added through the admin API
			dashboards = append(dashboards, existing)
			continue
		}
		if existing.IsActive {
			existing.IsActive = false
			existing.UpdatedAt = cr.now()
			deactivated++
		}
		dashboards = append(dashboards, existing)
	}

	if deactivated > 0 {
		cr.logger.Info("deactivating dashboards removed from seed",
			logger.Int("count", deactivated))
	}

	// Update memory index
	cr.index.UpdateDashboards(dashboards)
	cr.index.UpdatePosts(res.Posts)

	// Update Redis store (best effort)
	if cr.store != nil {
		if err := cr.store.ReplaceDashboards(ctx, dashboards); err != nil {
			cr.logger.Warn("failed to save dashboards to redis",
				logger.Error(err))
			// Don't fail - memory index is the primary source
		} else {
			cr.logger.Info("dashboards saved to redis")
		}
	}

	return nil
}

func isSeeded(d domain.Dashboard) bool {
	return strings.HasPrefix(d.ID, seedIDPrefix)
}
