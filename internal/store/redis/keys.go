package redis

import "fmt"

const (
	// KeyPrefixDashboard is the prefix for dashboard snapshot keys
	KeyPrefixDashboard = "folio:dashboard:"
	// KeyPrefixCache is the prefix for cache keys
	KeyPrefixCache = "folio:cache:"
	// KeyPrefixViews is the prefix for post view counters
	KeyPrefixViews = "folio:views:"
	// KeyAllDashboards is the key for the set of all snapshotted dashboard IDs
	KeyAllDashboards = "folio:dashboards:all"
)

// DashboardKey returns the Redis key for a dashboard by its human identifier
func DashboardKey(dashboardID string) string {
	return KeyPrefixDashboard + dashboardID
}

// CacheKey returns the Redis key for a cache entry
func CacheKey(key string) string {
	return KeyPrefixCache + key
}

// ViewsKey returns the Redis key for a post view counter
func ViewsKey(slug string) string {
	return KeyPrefixViews + slug
}

// AllDashboardsKey returns the key for the set of all dashboard IDs
func AllDashboardsKey() string {
	return KeyAllDashboards
}

// ExtractDashboardID extracts the dashboard ID from a Redis key
func ExtractDashboardID(key string) (string, error) {
	if len(key) <= len(KeyPrefixDashboard) {
		return "", fmt.Errorf("invalid dashboard key: %s", key)
	}
	return key[len(KeyPrefixDashboard):], nil
}
