package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kirychukyurii/partview/internal/model"
)

// ListPartitions handles GET /api/partitions
func (h *Handler) ListPartitions(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.MainView()
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, view)
}

// GetPartition handles GET /api/partitions/{name}
func (h *Handler) GetPartition(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		h.respondError(w, http.StatusBadRequest, "partition name is required")
		return
	}

	partition, err := h.service.PartitionInfo(name)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, partition)
}

// OpenFromPartition handles POST /api/partitions/{name}/views/{kind}
func (h *Handler) OpenFromPartition(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	kind, err := model.ParseScopeKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.service.OpenFromPartition(name, kind)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, summary)
}
