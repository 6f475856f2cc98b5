package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/folio/internal/domain"
	"github.com/MrSnakeDoc/folio/internal/httpserver/deps"
	"github.com/MrSnakeDoc/folio/internal/logger"
)

const maxDashboardBytes = 64 << 10

type dashboardListResponse struct {
	Dashboards []domain.Dashboard `json:"dashboards"`
}

// ListDashboards serves the full catalog, inactive dashboards included.
func ListDashboards(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := d.Dashboards.ListDashboards(r.Context())
		if err != nil {
			writeError(w, d, err)
			return
		}
		if list == nil {
			list = []domain.Dashboard{}
		}
		writeJSON(w, http.StatusOK, dashboardListResponse{Dashboards: list})
	}
}

// UpsertDashboard creates or updates a dashboard. Embed URLs are validated
// with the same rule the renderer applies; a rejected URL answers 422.
func UpsertDashboard(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.Dashboard
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDashboardBytes))
		if err := dec.Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
			return
		}

		saved, err := d.Dashboards.UpsertDashboard(r.Context(), in)
		if err != nil {
			writeError(w, d, err)
			return
		}

		// Keep the Redis snapshot in step so the dashboard survives a restart (best effort)
		if d.Snapshot != nil {
			if err := d.Snapshot.SaveDashboard(r.Context(), saved); err != nil {
				d.Logger.Warn("failed to save dashboard to redis",
					logger.String("dashboard_id", saved.DashboardID),
					logger.Error(err))
			}
		}

		if d.Blog != nil {
			d.Blog.Invalidate()
		}

		d.Logger.Info("dashboard saved",
			logger.String("dashboard_id", saved.DashboardID),
			logger.Int("charts", len(saved.ChartsToRender())))
		writeJSON(w, http.StatusOK, saved)
	}
}
