package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/folio/internal/domain"
	"github.com/MrSnakeDoc/folio/internal/store"
)

const (
	// DefaultDashboardTTL is the default TTL for dashboard snapshot entries (48 hours)
	DefaultDashboardTTL = 48 * time.Hour
	// DefaultCacheTTL is the default TTL for cache entries (5 minutes)
	DefaultCacheTTL = 5 * time.Minute
)

// Store handles Redis operations for the dashboard snapshot and counters
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// SaveDashboard stores a dashboard in Redis
func (s *Store) SaveDashboard(ctx context.Context, d domain.Dashboard) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal dashboard: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, DashboardKey(d.DashboardID), data, DefaultDashboardTTL)
	pipe.SAdd(ctx, AllDashboardsKey(), d.DashboardID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save dashboard: %w", err)
	}
	return nil
}

// GetDashboard retrieves a dashboard from Redis by its human identifier
func (s *Store) GetDashboard(ctx context.Context, dashboardID string) (domain.Dashboard, error) {
	data, err := s.client.Get(ctx, DashboardKey(dashboardID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Dashboard{}, fmt.Errorf("dashboard %s: %w", dashboardID, store.ErrNotFound)
		}
		return domain.Dashboard{}, fmt.Errorf("failed to get dashboard: %w", err)
	}

	var d domain.Dashboard
	if err := json.Unmarshal(data, &d); err != nil {
		return domain.Dashboard{}, fmt.Errorf("failed to unmarshal dashboard: %w", err)
	}
	return d, nil
}

// GetAllDashboards retrieves every snapshotted dashboard, in no particular order
func (s *Store) GetAllDashboards(ctx context.Context) ([]domain.Dashboard, error) {
	ids, err := s.client.SMembers(ctx, AllDashboardsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard IDs: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Dashboard{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = DashboardKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboards: %w", err)
	}

	out := make([]domain.Dashboard, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Expired entry still listed in the set
			continue
		}
		var d domain.Dashboard
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// DeleteDashboard removes a dashboard from Redis
func (s *Store) DeleteDashboard(ctx context.Context, dashboardID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, DashboardKey(dashboardID))
	pipe.SRem(ctx, AllDashboardsKey(), dashboardID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete dashboard: %w", err)
	}
	return nil
}

// ReplaceDashboards makes the snapshot hold exactly the given dashboards (bulk operation)
func (s *Store) ReplaceDashboards(ctx context.Context, dashboards []domain.Dashboard) error {
	existing, err := s.client.SMembers(ctx, AllDashboardsKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to get dashboard IDs: %w", err)
	}

	keep := make(map[string]struct{}, len(dashboards))
	pipe := s.client.Pipeline()
	for _, d := range dashboards {
		data, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("failed to marshal dashboard %s: %w", d.DashboardID, err)
		}
		keep[d.DashboardID] = struct{}{}
		pipe.Set(ctx, DashboardKey(d.DashboardID), data, DefaultDashboardTTL)
		pipe.SAdd(ctx, AllDashboardsKey(), d.DashboardID)
	}
	for _, id := range existing {
		if _, ok := keep[id]; ok {
			continue
		}
		pipe.Del(ctx, DashboardKey(id))
		pipe.SRem(ctx, AllDashboardsKey(), id)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save dashboards: %w", err)
	}
	return nil
}
