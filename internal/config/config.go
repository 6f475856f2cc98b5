package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request handler timeout (ex: 30s)
	RenderWait      time.Duration // how long a page render waits for placeholder resolution before emitting loading skeletons
	SessionTTL      time.Duration // how long a settled placeholder resolution is reused across requests

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)
	DevMode   bool   // true => embed debug panels, relaxed host checks

	// Postgres (optional, empty DSN => seed catalog only)
	PostgresDSN         string
	PostgresMaxConns    int32
	PostgresMinConns    int32
	PostgresMaxConnLife time.Duration

	// Seed catalog
	SeedFile       string        // path to the seed.yaml catalog
	ReloadInterval time.Duration // interval to reload the seed catalog (default: 1h)
	GCInterval     time.Duration // interval to run garbage collection (default: 10m)

	// Cache
	CacheTTL time.Duration // default entry TTL (default: 5m)

	// Resolver
	ResolveAttemptTimeout time.Duration // per-attempt bulk fetch timeout
	ResolveMaxAttempts    int
	ResolveBaseDelay      time.Duration // linear backoff unit

	// Redis (optional, empty address => in-process cache)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts   []string // restrict access to specific Host headers (required outside dev mode)
	AdminCIDRS     []string // optional, restrict admin routes to specific IPs (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy     bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	AdminRateLimit int      // admin requests per minute per IP
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("FOLIO_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("FOLIO_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("FOLIO_REQUEST_TIMEOUT", 30*time.Second),
		RenderWait:      mustDuration("FOLIO_RENDER_WAIT", 2*time.Second),
		SessionTTL:      mustDuration("FOLIO_RENDER_SESSION_TTL", 30*time.Second),

		// Logging
		LogLevel:  getenv("FOLIO_LOG_LEVEL", "info"),
		PrettyLog: mustBool("FOLIO_PRETTY_LOG", true),
		DevMode:   mustBool("FOLIO_DEV", false),

		// Postgres
		PostgresDSN:         getenv("FOLIO_POSTGRES_DSN", ""),
		PostgresMaxConns:    int32(getenvInt("FOLIO_POSTGRES_MAX_CONNS", 10)),
		PostgresMinConns:    int32(getenvInt("FOLIO_POSTGRES_MIN_CONNS", 1)),
		PostgresMaxConnLife: mustDuration("FOLIO_POSTGRES_MAX_CONN_LIFETIME", time.Hour),

		// Seed catalog
		SeedFile:       getenv("FOLIO_SEED_FILE", ""),
		ReloadInterval: mustDuration("FOLIO_RELOAD_INTERVAL", time.Hour),
		GCInterval:     mustDuration("FOLIO_GC_INTERVAL", 10*time.Minute),

		CacheTTL: mustDuration("FOLIO_CACHE_TTL", 5*time.Minute),

		// Resolver
		ResolveAttemptTimeout: mustDuration("FOLIO_RESOLVE_ATTEMPT_TIMEOUT", 10*time.Second),
		ResolveMaxAttempts:    getenvInt("FOLIO_RESOLVE_MAX_ATTEMPTS", 3),
		ResolveBaseDelay:      mustDuration("FOLIO_RESOLVE_BASE_DELAY", time.Second),

		// Redis settings
		RedisAddr:             getenv("FOLIO_REDIS_ADDR", ""),
		RedisUser:             getenv("FOLIO_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("FOLIO_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("FOLIO_REDIS_PASSWORD", ""),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AdminCIDRS:     parseAllowedIPs(getenv("FOLIO_ADMIN_CIDRS", "")),
		TrustProxy:     mustBool("FOLIO_TRUST_PROXY", true),
		AdminRateLimit: getenvInt("FOLIO_ADMIN_RATE_LIMIT", 30),
	}

	// Without Postgres the seed file is the only catalog
	if cfg.PostgresDSN == "" && cfg.SeedFile == "" {
		cfg.SeedFile = requireEnv("FOLIO_SEED_FILE")
	}

	if cfg.RedisAddr != "" {
		cfg.RedisDB = requireEnvInt("FOLIO_REDIS_DB")
		// Validate Redis password configuration
		if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
			panic("❌ FATAL: FOLIO_REDIS_PASSWORD is required when FOLIO_REDIS_PASSWORD_REQUIRED=true")
		}
	}

	if cfg.DevMode {
		cfg.AllowedHosts = splitAndTrim(getenv("FOLIO_ALLOWED_HOSTS", ""))
	} else {
		cfg.AllowedHosts = requireEnvSlice("FOLIO_ALLOWED_HOSTS")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		if cfg.PostgresDSN != "" {
			cfgCopy.PostgresDSN = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func requireEnvSlice(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return splitAndTrim(v)
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
