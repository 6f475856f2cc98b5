package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/folio/internal/httpserver/deps"
)

type componentStatus struct {
	OK               bool   `json:"ok"`
	DashboardsLoaded *int   `json:"dashboards_loaded,omitempty"`
	PostsLoaded      *int   `json:"posts_loaded,omitempty"`
	LastReload       string `json:"last_reload,omitempty"`
	Mode             string `json:"mode,omitempty"`
	Impact           string `json:"impact,omitempty"`
	Error            string `json:"error,omitempty"`
}

type infraResponse struct {
	ServingMode    string                     `json:"serving_mode"`
	Components     map[string]componentStatus `json:"components"`
	RenderSessions int                        `json:"render_sessions"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		components := map[string]componentStatus{
			"catalog":  checkCatalog(d),
			"database": checkDatabase(r.Context(), d),
			"redis":    checkRedis(d),
		}

		response := infraResponse{
			ServingMode: determineServingMode(components),
			Components:  components,
		}
		if d.Blog != nil {
			response.RenderSessions = d.Blog.Sessions()
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

func determineServingMode(components map[string]componentStatus) string {
	db := components["database"]
	catalog := components["catalog"]

	// Neither catalog source is usable
	if !db.OK && !catalog.OK {
		return "critical"
	}

	// Redis down = degraded (in-process cache only, no shared counters)
	if redis, exists := components["redis"]; exists && !redis.OK {
		return "degraded"
	}

	return "optimal"
}

func checkCatalog(d deps.Deps) componentStatus {
	if d.MemoryIndex == nil {
		return componentStatus{OK: false, Error: "index not initialized"}
	}

	dashboards := d.MemoryIndex.Count()
	posts := d.MemoryIndex.PostCount()
	lastReload := d.MemoryIndex.GetLastReload()
	lastReloadStr := "never"
	if !lastReload.IsZero() {
		lastReloadStr = lastReload.Format("2006-01-02 15:04:05")
	}

	return componentStatus{
		OK:               dashboards > 0 || posts > 0,
		DashboardsLoaded: &dashboards,
		PostsLoaded:      &posts,
		LastReload:       lastReloadStr,
		Mode:             "seed",
	}
}

func checkDatabase(ctx context.Context, d deps.Deps) componentStatus {
	if d.Schema == nil {
		return componentStatus{
			OK:     false,
			Mode:   "disabled",
			Impact: "seed-catalog-only",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	ready, err := d.Schema.SchemaReady(ctx)
	if err != nil {
		return componentStatus{OK: false, Mode: "degraded", Error: err.Error()}
	}
	if !ready {
		return componentStatus{OK: false, Mode: "degraded", Error: "schema missing"}
	}
	return componentStatus{OK: true, Mode: "postgres"}
}

func checkRedis(d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "in-process-cache",
			Error:  "client not initialized",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := d.RedisClient.Ping(ctx).Err()
	if err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "in-process-cache",
			Error:  "timeout",
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "shared-cache",
		Error:  "none",
	}
}
