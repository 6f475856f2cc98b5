package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/folio/internal/domain"
	"github.com/MrSnakeDoc/folio/internal/httpserver/deps"
	"github.com/MrSnakeDoc/folio/internal/logger"
	"github.com/MrSnakeDoc/folio/internal/render"
	"github.com/MrSnakeDoc/folio/internal/render/embed"
)

// EmbedFragment serves the expansion of one dashboard placeholder as an HTML
// fragment. While the dashboard is still resolving it answers 202 so the
// loading skeleton polls again.
func EmbedFragment(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "dashboardID")
		if !domain.IsValidIdentifier(id) {
			http.Error(w, "invalid dashboard id", http.StatusBadRequest)
			return
		}

		out := d.Blog.Embed(r.Context(), id)
		if out.Pending {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusAccepted)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if err := render.WriteHTML(w, out.Nodes, htmlOptions(d)); err != nil {
			d.Logger.Debug("failed to write embed fragment",
				logger.String("dashboard_id", id),
				logger.Error(err))
		}
	}
}

// EmbedScript serves the client-side embed controller.
func EmbedScript() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(embed.Script)
	}
}
