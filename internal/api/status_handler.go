package api

import (
	"log/slog"
	"net/http"
)

// GetStatus handles GET /api/status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.service.Status())
}

// RefreshAll handles POST /api/refresh
func (h *Handler) RefreshAll(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RefreshAll(r.Context()); err != nil {
		h.logger.Warn("refresh of all views failed",
			slog.String("error", err.Error()),
		)
		h.respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, h.service.ListViews())
}
