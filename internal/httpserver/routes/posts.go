package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/folio/internal/httpserver/deps"
	"github.com/MrSnakeDoc/folio/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/folio/internal/httpserver/mw"
)

func init() { Register(registerPosts) }

func registerPosts(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))

		r.Get("/posts/{slug}", handlers.PostPage(d))
		r.Get("/api/posts", handlers.ListPosts(d))
		r.Get("/api/posts/{slug}/nodes", handlers.PostNodes(d))
		r.Get(handlers.HydratePath+"{dashboardID}", handlers.EmbedFragment(d))
		r.Get("/static/embed.js", handlers.EmbedScript())
	})
}
