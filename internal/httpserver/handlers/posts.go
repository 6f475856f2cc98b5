package handlers

import (
	"embed"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/folio/internal/domain"
	"github.com/MrSnakeDoc/folio/internal/httpserver/deps"
	"github.com/MrSnakeDoc/folio/internal/logger"
	"github.com/MrSnakeDoc/folio/internal/render"
)

//go:embed templates/*.html
var templateFS embed.FS

var postTemplate = template.Must(template.ParseFS(templateFS, "templates/post.html"))

type postView struct {
	Post     domain.Post
	Body     template.HTML
	Version  uint64
	Views    int64
	Comments int
}

// PostPage serves a post as a full HTML page.
func PostPage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		page, err := d.Blog.Post(r.Context(), slug)
		if err != nil {
			writeError(w, d, err)
			return
		}

		// Body is produced by the node writer, which escapes text and sanitizes inline markup
		view := postView{
			Post:     page.Post,
			Body:     template.HTML(render.HTML(page.Rendered.Nodes, htmlOptions(d))),
			Version:  page.Rendered.Version,
			Views:    page.Views,
			Comments: page.Comments,
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := postTemplate.Execute(w, view); err != nil {
			d.Logger.Debug("failed to write page",
				logger.String("slug", slug),
				logger.Error(err))
		}
	}
}

type postListResponse struct {
	Posts []domain.PostSummary `json:"posts"`
}

// ListPosts serves published post summaries. ?limit=N bounds the list.
func ListPosts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
				return
			}
			limit = n
		}

		posts, err := d.Blog.ListPosts(r.Context(), limit)
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, postListResponse{Posts: posts})
	}
}

type nodesResponse struct {
	Slug    string       `json:"slug,omitempty"`
	Version uint64       `json:"version"`
	Pending bool         `json:"pending"`
	Nodes   render.Nodes `json:"nodes"`
	HTML    string       `json:"html,omitempty"`
}

// PostNodes serves the rendered node sequence of a post.
func PostNodes(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		page, err := d.Blog.Post(r.Context(), slug)
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, nodesResponse{
			Slug:    slug,
			Version: page.Rendered.Version,
			Pending: page.Rendered.Pending,
			Nodes:   page.Rendered.Nodes,
		})
	}
}
