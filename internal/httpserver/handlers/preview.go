package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/folio/internal/httpserver/deps"
	"github.com/MrSnakeDoc/folio/internal/render"
)

const maxPreviewBytes = 1 << 20

type previewRequest struct {
	Content string `json:"content"`
}

// Preview renders arbitrary content, as the editor shows it before publishing.
func Preview(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req previewRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPreviewBytes))
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
			return
		}

		out := d.Blog.Render(r.Context(), req.Content)
		writeJSON(w, http.StatusOK, nodesResponse{
			Version: out.Version,
			Pending: out.Pending,
			Nodes:   out.Nodes,
			HTML:    render.HTML(out.Nodes, htmlOptions(d)),
		})
	}
}
