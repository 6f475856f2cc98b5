package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/folio/internal/httpserver/deps"
	"github.com/MrSnakeDoc/folio/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/folio/internal/httpserver/mw"
)

func init() { Register(registerAdmin) }

func registerAdmin(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(mw.AllowOnlyCIDRS(d.AdminCIDRS, d.TrustProxy, d.Logger))
		r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))
		r.Use(mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.AdminRateLimit,
			RefillPerIPPerMin: d.AdminRateLimit,
			MaxEntries:        1024,
			IdleTTL:           15 * time.Minute,
			TrustProxy:        d.TrustProxy,
		}))

		r.Post("/api/preview", handlers.Preview(d))
		r.Get("/api/admin/dashboards", handlers.ListDashboards(d))
		r.Post("/api/admin/dashboards", handlers.UpsertDashboard(d))
	})
}
