package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/folio/internal/domain"
	"github.com/MrSnakeDoc/folio/internal/httpserver/deps"
	"github.com/MrSnakeDoc/folio/internal/logger"
	"github.com/MrSnakeDoc/folio/internal/render"
	"github.com/MrSnakeDoc/folio/internal/render/embed"
	"github.com/MrSnakeDoc/folio/internal/store"
)

// HydratePath is the route prefix loading skeletons poll.
const HydratePath = "/embeds/"

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status: not found → 404, validation → 422, others → 500.
func writeError(w http.ResponseWriter, d deps.Deps, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, store.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrValidation):
		status, msg = http.StatusUnprocessableEntity, err.Error()
	default:
		d.Logger.Error("request failed", logger.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func htmlOptions(d deps.Deps) render.HTMLOptions {
	opts := embed.DefaultOptions()
	opts.Dev = d.DevMode
	return render.HTMLOptions{
		Embed:       opts,
		HydratePath: HydratePath,
	}
}
