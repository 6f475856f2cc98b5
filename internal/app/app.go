package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/folio/internal/blog"
	"github.com/MrSnakeDoc/folio/internal/cache"
	"github.com/MrSnakeDoc/folio/internal/config"
	"github.com/MrSnakeDoc/folio/internal/httpserver"
	"github.com/MrSnakeDoc/folio/internal/httpserver/deps"
	"github.com/MrSnakeDoc/folio/internal/index"
	"github.com/MrSnakeDoc/folio/internal/logger"
	"github.com/MrSnakeDoc/folio/internal/redis"
	"github.com/MrSnakeDoc/folio/internal/resolver"
	"github.com/MrSnakeDoc/folio/internal/scheduler"
	"github.com/MrSnakeDoc/folio/internal/store/postgres"
	redisstore "github.com/MrSnakeDoc/folio/internal/store/redis"
	"github.com/MrSnakeDoc/folio/internal/utils"
	"github.com/MrSnakeDoc/folio/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	pg          *postgres.Store
	memIndex    *index.MemoryIndex
	blog        *blog.Service
	reloader    *scheduler.CatalogReloader
	gc          *scheduler.GarbageCollector
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	ctx := context.Background()

	// Postgres is the catalog when configured - fail fast if unreachable
	var pg *postgres.Store
	if cfg.PostgresDSN != "" {
		loggerClient.Info("connecting to postgres")
		store, err := postgres.Open(ctx, postgres.Config{
			DSN:             cfg.PostgresDSN,
			MaxConns:        cfg.PostgresMaxConns,
			MinConns:        cfg.PostgresMinConns,
			MaxConnLifetime: cfg.PostgresMaxConnLife,
		})
		if err != nil {
			loggerClient.Errorf("Failed to connect to Postgres: %v", err)
			os.Exit(1)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			loggerClient.Errorf("Failed to apply schema: %v", err)
			os.Exit(1)
		}
		pg = store
		loggerClient.Info("Postgres initialized successfully")
	}

	// Redis is optional: without it the cache and counters stay in-process
	var redisClient *goredis.Client
	opts := redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}
	if opts.Enabled() {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(ctx, opts, loggerClient)
		if err != nil {
			loggerClient.Warn("continuing without redis", logger.Error(err))
		} else {
			redisClient = client
			loggerClient.Info("Redis initialized successfully")
		}
	}

	memIndex := index.NewMemoryIndex()

	// Shared TTL cache, handed explicitly to its consumers
	var (
		sharedCache cache.Cache
		memCache    *cache.Memory
		store       *redisstore.Store
	)
	if redisClient != nil {
		sharedCache = redisstore.NewCache(redisClient, cfg.CacheTTL)
		store = redisstore.NewStore(redisClient)
	} else {
		memCache = cache.NewMemory(cfg.CacheTTL)
		sharedCache = memCache
	}

	// Catalog source: Postgres, or the seed-backed memory index
	var (
		source        resolver.DashboardSource = memIndex
		admin         deps.DashboardAdmin      = memIndex
		posts         blog.PostStore           = memIndex
		comments      blog.CommentCounter
		schema        deps.SchemaChecker
		snapshot      *redisstore.Store
		reloader      *scheduler.CatalogReloader
		reloadTrigger chan struct{}
	)
	if pg != nil {
		source, admin, posts, comments, schema = pg, pg, pg, pg, pg
	} else {
		snapshot = store
		if store != nil {
			// Restore admin-added dashboards before the seed is layered on top
			syncer := scheduler.NewRedisSyncer(store, memIndex, loggerClient)
			if err := syncer.Sync(ctx); err != nil {
				loggerClient.Warn("failed to sync from redis on startup, will load from seed",
					logger.Error(err))
			}
		}

		reloadTrigger = make(chan struct{}, 1)
		reloader = scheduler.NewCatalogReloader(
			cfg.SeedFile,
			store,
			memIndex,
			loggerClient,
			cfg.ReloadInterval,
			reloadTrigger,
		)
	}

	var views blog.ViewCounter = memIndex
	if store != nil {
		views = store
	}

	res := resolver.New(source, resolver.RetryPolicy{
		MaxAttempts:    cfg.ResolveMaxAttempts,
		BaseDelay:      cfg.ResolveBaseDelay,
		AttemptTimeout: cfg.ResolveAttemptTimeout,
	}, loggerClient.Named("resolver"))

	blogSvc := blog.New(blog.Options{
		Posts:      posts,
		Comments:   comments,
		Views:      views,
		Cache:      sharedCache,
		Resolver:   res,
		Logger:     loggerClient.Named("blog"),
		RenderWait: cfg.RenderWait,
		SessionTTL: cfg.SessionTTL,
	})

	gc := scheduler.NewGarbageCollector(
		snapshot,
		memIndex,
		memCache,
		loggerClient,
		cfg.GCInterval,
		scheduler.DefaultGCThreshold,
	)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		DevMode:        cfg.DevMode,
		AllowedHosts:   cfg.AllowedHosts,
		AdminCIDRS:     cfg.AdminCIDRS,
		TrustProxy:     cfg.TrustProxy,
		AdminRateLimit: cfg.AdminRateLimit,
		Blog:           blogSvc,
		Dashboards:     admin,
		Schema:         schema,
		Cache:          sharedCache,
		RedisClient:    redisClient,
		Snapshot:       snapshot,
		MemoryIndex:    memIndex,
		ReloadTrigger:  reloadTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		pg:          pg,
		memIndex:    memIndex,
		blog:        blogSvc,
		reloader:    reloader,
		gc:          gc,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Folio v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Folio %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start catalog reloader (loads the seed and starts periodic refresh)
	if a.reloader != nil {
		if err := a.reloader.Start(ctx); err != nil {
			return fmt.Errorf("failed to start catalog reloader: %w", err)
		}
		a.logger.Info("catalog reloader started",
			logger.Duration("interval", a.cfg.ReloadInterval))
	}

	// Start garbage collector
	if err := a.gc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start garbage collector: %w", err)
	}
	a.logger.Info("garbage collector started",
		logger.Duration("interval", a.cfg.GCInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.reloader != nil {
		a.reloader.Stop()
	}
	a.gc.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	a.blog.Close()

	if a.redisClient != nil {
		utils.MustClose(a.redisClient)
		a.logger.Info("✅ Redis closed")
	}

	if a.pg != nil {
		a.pg.Close()
		a.logger.Info("✅ Postgres closed")
	}

	a.logger.Info("✅ Folio stopped cleanly")
	return nil
}
