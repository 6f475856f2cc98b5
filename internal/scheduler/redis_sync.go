package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/folio/internal/index"
	"github.com/MrSnakeDoc/folio/internal/logger"
	redisstore "github.com/MrSnakeDoc/folio/internal/store/redis"
)

// RedisSyncer syncs the dashboard snapshot from Redis to the memory index on startup,
// so dashboards added through the admin API survive a restart
type RedisSyncer struct {
	store  *redisstore.Store
	index  *index.MemoryIndex
	logger logger.Logger
}

// NewRedisSyncer creates a new Redis syncer
func NewRedisSyncer(
	store *redisstore.Store,
	idx *index.MemoryIndex,
	log logger.Logger,
) *RedisSyncer {
	return &RedisSyncer{
		store:  store,
		index:  idx,
		logger: log,
	}
}

// Sync loads dashboards from Redis and updates memory index
func (rs *RedisSyncer) Sync(ctx context.Context) error {
	rs.logger.Info("syncing dashboards from redis to memory")

	dashboards, err := rs.store.GetAllDashboards(ctx)
	if err != nil {
		return err
	}

	if len(dashboards) == 0 {
		rs.logger.Info("no dashboards found in redis")
		return nil
	}

	rs.index.UpdateDashboards(dashboards)

	rs.logger.Info("synced dashboards from redis",
		logger.Int("count", len(dashboards)))

	return nil
}
