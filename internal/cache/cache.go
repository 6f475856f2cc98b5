// Package cache defines the TTL cache handed to consumers at startup.
//
// The process builds one Cache (Redis when configured, Memory otherwise) and
// passes it explicitly to whatever needs it; nothing looks it up globally.
package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Cache is a string cache with per-entry TTL.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value for ttl. A ttl <= 0 uses the cache default.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Invalidate removes key. Removing a missing key is not an error.
	Invalidate(ctx context.Context, key string) error
}

// Keys used by consumers.
func CommentCountKey(postID string) string { return "comments:" + postID }

const SchemaStatusKey = "schema:status"

// GetOrLoad returns the cached value for key, or calls load and caches its
// result. Cache failures fall through to load.
func GetOrLoad(ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (string, error)) (string, error) {
	if v, ok, err := c.Get(ctx, key); err == nil && ok {
		return v, nil
	}
	v, err := load(ctx)
	if err != nil {
		return "", err
	}
	_ = c.Set(ctx, key, v, ttl)
	return v, nil
}

// GetOrLoadInt is GetOrLoad for integer values.
func GetOrLoadInt(ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (int, error)) (int, error) {
	v, err := GetOrLoad(ctx, c, key, ttl, func(ctx context.Context) (string, error) {
		n, err := load(ctx)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(n), nil
	})
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		_ = c.Invalidate(ctx, key)
		return 0, err
	}
	return n, nil
}

type entry struct {
	value   string
	expires time.Time
}

// Memory is an in-process Cache. Expired entries are invisible to Get and
// removed by Sweep.
type Memory struct {
	mu         sync.Mutex
	items      map[string]entry
	defaultTTL time.Duration
	now        func() time.Time
}

// NewMemory creates an empty cache with the given default TTL.
func NewMemory(defaultTTL time.Duration) *Memory {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &Memory{
		items:      make(map[string]entry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[key]
	if !ok || !m.now().Before(e.expires) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	m.mu.Lock()
	m.items[key] = entry{value: value, expires: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for k, e := range m.items {
		if !now.Before(e.expires) {
			delete(m.items, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
