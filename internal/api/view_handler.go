package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kirychukyurii/partview/internal/model"
)

// openViewRequest is the body of POST /api/views
type openViewRequest struct {
	Kind  model.ScopeKind `json:"kind"`
	Data  string          `json:"data"`
	Title string          `json:"title,omitempty"`
}

// ListViews handles GET /api/views
func (h *Handler) ListViews(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.service.ListViews())
}

// OpenView handles POST /api/views
func (h *Handler) OpenView(w http.ResponseWriter, r *http.Request) {
	var req openViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	summary, err := h.service.OpenView(&model.Scope{Kind: req.Kind, Data: req.Data}, req.Title)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, summary)
}

// GetView handles GET /api/views/{id}
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetView(chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, view)
}

// CloseView handles DELETE /api/views/{id}
func (h *Handler) CloseView(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CloseView(chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RefreshView handles POST /api/views/{id}/refresh
func (h *Handler) RefreshView(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RefreshView(chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// ResetView handles POST /api/views/{id}/reset
func (h *Handler) ResetView(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ResetView(chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
