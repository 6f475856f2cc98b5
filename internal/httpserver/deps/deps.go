package deps

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/folio/internal/blog"
	"github.com/MrSnakeDoc/folio/internal/cache"
	"github.com/MrSnakeDoc/folio/internal/domain"
	"github.com/MrSnakeDoc/folio/internal/index"
	"github.com/MrSnakeDoc/folio/internal/logger"
	redisstore "github.com/MrSnakeDoc/folio/internal/store/redis"
)

// DashboardAdmin is the writable catalog behind the admin API.
type DashboardAdmin interface {
	ListDashboards(ctx context.Context) ([]domain.Dashboard, error)
	UpsertDashboard(ctx context.Context, d domain.Dashboard) (domain.Dashboard, error)
}

// SchemaChecker reports whether the database schema is in place.
type SchemaChecker interface {
	SchemaReady(ctx context.Context) (bool, error)
}

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time   // for testing, defaults to time.Now
	DevMode        bool               // embed debug panels
	AllowedHosts   []string           // Host headers allowed to access the server
	AdminCIDRS     []string           // IPs allowed to access admin and probe endpoints
	TrustProxy     bool               // true if running behind a trusted reverse proxy (e.g., cloudflared)
	AdminRateLimit int                // admin requests per minute per IP
	Blog           *blog.Service      // post listing and rendering
	Dashboards     DashboardAdmin     // Postgres store or the memory index
	Schema         SchemaChecker      // nil without Postgres
	Cache          cache.Cache        // shared TTL cache
	RedisClient    *redis.Client      // nil without Redis
	Snapshot       *redisstore.Store  // dashboard snapshot, nil unless the memory index is the catalog
	MemoryIndex    *index.MemoryIndex // In-memory catalog
	ReloadTrigger  chan struct{}      // Channel to trigger manual catalog reload (nil with Postgres)
}
