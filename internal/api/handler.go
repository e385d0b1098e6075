package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirychukyurii/partview/internal/service"
)

// Handler holds the HTTP handlers and dependencies
type Handler struct {
	service  service.ViewService
	logger   *slog.Logger
	basePath string
}

// NewHandler creates a new HTTP handler
func NewHandler(service service.ViewService, basePath string, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		logger:   logger,
		basePath: basePath,
	}
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.loggingMiddleware)
	r.Use(middleware.Recoverer)

	routesHandler := h.createRoutes()

	// If base path is configured, mount routes on that path
	if h.basePath != "" {
		r.Mount(h.basePath, routesHandler)
	} else {
		r.Mount("/", routesHandler)
	}

	return r
}

// createRoutes creates the API and metrics routes
func (h *Handler) createRoutes() http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		// Partition routes (main view)
		r.Get("/partitions", h.ListPartitions)
		r.Get("/partitions/{name}", h.GetPartition)
		r.Post("/partitions/{name}/views/{kind}", h.OpenFromPartition)

		// View routes
		r.Get("/views", h.ListViews)
		r.Post("/views", h.OpenView)
		r.Get("/views/{id}", h.GetView)
		r.Delete("/views/{id}", h.CloseView)
		r.Post("/views/{id}/refresh", h.RefreshView)
		r.Post("/views/{id}/reset", h.ResetView)

		r.Post("/refresh", h.RefreshAll)
		r.Get("/status", h.GetStatus)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// loggingMiddleware logs HTTP requests
func (h *Handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.logger.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr),
		)
		next.ServeHTTP(w, r)
	})
}

// errorResponse represents an error response
type errorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes a JSON response
func (h *Handler) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response",
			slog.String("error", err.Error()),
		)
	}
}

// respondError writes an error response
func (h *Handler) respondError(w http.ResponseWriter, statusCode int, message string) {
	h.respondJSON(w, statusCode, errorResponse{Error: message})
}

// respondServiceError maps view service errors to HTTP status codes
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrViewNotFound), errors.Is(err, service.ErrPartitionNotFound):
		h.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidScope), errors.Is(err, service.ErrMainView):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotStarted):
		h.respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.Error("view service request failed",
			slog.String("error", err.Error()),
		)
		h.respondError(w, http.StatusInternalServerError, err.Error())
	}
}
