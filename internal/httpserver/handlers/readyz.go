package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/MrSnakeDoc/folio/internal/cache"
	"github.com/MrSnakeDoc/folio/internal/httpserver/deps"
	"github.com/MrSnakeDoc/folio/internal/logger"
)

const schemaStatusTTL = 30 * time.Second

type readyzResponse struct {
	Ready      bool   `json:"ready"`
	Catalog    int    `json:"catalog"`
	Schema     string `json:"schema"`
	LastReload string `json:"last_reload,omitempty"`
}

// Readyz reports whether the service can render posts: the catalog is loaded
// from the seed, or the database schema is in place.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := readyzResponse{Schema: "none"}

		if d.MemoryIndex != nil {
			resp.Catalog = d.MemoryIndex.Count()
			if last := d.MemoryIndex.GetLastReload(); !last.IsZero() {
				resp.LastReload = last.Format(time.RFC3339)
			}
		}

		if d.Schema != nil {
			ready, err := schemaReady(r.Context(), d)
			switch {
			case err != nil:
				d.Logger.Warn("schema check failed", logger.Error(err))
				resp.Schema = "unknown"
			case ready:
				resp.Schema = "ready"
			default:
				resp.Schema = "missing"
			}
			resp.Ready = ready && err == nil
		} else {
			resp.Ready = d.MemoryIndex != nil && !d.MemoryIndex.GetLastReload().IsZero()
		}

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}

// schemaReady caches the schema status briefly so probes don't hit the database each time
func schemaReady(ctx context.Context, d deps.Deps) (bool, error) {
	load := func(ctx context.Context) (string, error) {
		ok, err := d.Schema.SchemaReady(ctx)
		return strconv.FormatBool(ok), err
	}
	if d.Cache == nil {
		v, err := load(ctx)
		return v == "true", err
	}
	v, err := cache.GetOrLoad(ctx, d.Cache, cache.SchemaStatusKey, schemaStatusTTL, load)
	return v == "true", err
}
