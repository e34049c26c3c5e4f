package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "sigmon/internal/errors"
	"sigmon/internal/middleware"
)

// SaveConfigurationRequest names the snapshot of the live selection
type SaveConfigurationRequest struct {
	Name string `json:"name" validate:"required,max=64,configname"`
}

// ConfigurationHandler manages named selections
type ConfigurationHandler struct {
	service      ConfigurationService
	validator    *middleware.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewConfigurationHandler creates a new configuration handler
func NewConfigurationHandler(service ConfigurationService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ConfigurationHandler {
	return &ConfigurationHandler{
		service:      service,
		validator:    middleware.NewValidationMiddleware(logger, errorHandler),
		logger:       logger.With(slog.String("component", "configuration_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the configuration routes
func (h *ConfigurationHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.List)
	r.With(middleware.ContentTypeValidator("application/json")).Post("/", h.Save)
	r.Route("/{name}", func(r chi.Router) {
		r.Post("/load", h.Load)
		r.Delete("/", h.Delete)
	})
	return r
}

// List handles GET /api/configurations
func (h *ConfigurationHandler) List(w http.ResponseWriter, r *http.Request) {
	list := h.service.ListConfigurations()
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   list,
		"count":  len(list),
	})
}

// Save handles POST /api/configurations
func (h *ConfigurationHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveConfigurationRequest
	if !h.validator.DecodeAndValidate(w, r, &req) {
		return
	}

	cfg, err := h.service.SaveConfiguration(r.Context(), req.Name)
	if err != nil {
		h.errorHandler.HandleError(w, r, translateError(err))
		return
	}

	h.logger.InfoContext(r.Context(), "configuration saved",
		slog.String("name", cfg.Name),
		slog.String("request_id", middleware.GetReqID(r.Context())))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   cfg,
	})
}

// Load handles POST /api/configurations/{name}/load
func (h *ConfigurationHandler) Load(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sel, err := h.service.LoadConfiguration(r.Context(), name)
	if err != nil {
		h.errorHandler.HandleError(w, r, h.notFound(name, err))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   sel,
	})
}

// Delete handles DELETE /api/configurations/{name}
func (h *ConfigurationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.service.DeleteConfiguration(r.Context(), name); err != nil {
		h.errorHandler.HandleError(w, r, h.notFound(name, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ConfigurationHandler) notFound(name string, err error) error {
	translated := translateError(err)
	if apiErr, ok := translated.(*apierrors.APIError); ok && apiErr.ErrorCode == apierrors.CodeConfigurationNotFound {
		return apierrors.ConfigurationNotFoundError(name)
	}
	return translated
}
