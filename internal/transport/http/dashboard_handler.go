package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "sigmon/internal/errors"
	"sigmon/internal/middleware"
	"sigmon/pkg/contracts/domain"
)

const (
	contentTypePNG  = "image/png"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"
)

// DashboardHandler serves the render model and its artifacts for the live
// selection
type DashboardHandler struct {
	service      DashboardService
	validator    *middleware.ValidationMiddleware
	query        *middleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validator:    middleware.NewValidationMiddleware(logger, errorHandler),
		query:        middleware.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/", h.GetDashboard)
		r.Get("/options", h.GetOptions)
		r.Get("/selection", h.GetSelection)
		r.With(middleware.ContentTypeValidator("application/json")).Put("/selection", h.PutSelection)
		r.Get("/map", h.GetMap)
	})

	r.With(h.ModeCtx).Get("/charts/{mode}.png", h.GetChart)
	r.Get("/comparison.xlsx", h.GetComparison)
	r.Get("/rows.csv", h.GetRows)
	return r
}

type modeKey struct{}

// ModeCtx resolves the {mode} URL slug (route, static) into a domain.Mode
func (h *DashboardHandler) ModeCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "mode")
		mode, ok := domain.ModeFromSlug(slug)
		if !ok {
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(http.StatusNotFound, apierrors.CodeNotFound,
				fmt.Sprintf("unknown mode %q", slug), map[string]string{"allowed": "route, static"}))
			return
		}
		next.ServeHTTP(w, r.WithContext(withMode(r, mode)))
	})
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	model, err := h.service.Render(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, translateError(err))
		return
	}

	h.logger.DebugContext(r.Context(), "dashboard rendered",
		slog.Bool("halted", model.Halted),
		slog.Int("markers", len(model.Map.Markers)),
		slog.String("request_id", middleware.GetReqID(r.Context())))
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   model,
	})
}

// GetOptions handles GET /api/dashboard/options
func (h *DashboardHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.service.Options(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, translateError(err))
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   opts,
	})
}

// GetSelection handles GET /api/dashboard/selection
func (h *DashboardHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   h.service.Selection(),
	})
}

// PutSelection handles PUT /api/dashboard/selection
func (h *DashboardHandler) PutSelection(w http.ResponseWriter, r *http.Request) {
	var sel domain.Selection
	if !h.validator.DecodeAndValidate(w, r, &sel) {
		return
	}

	applied := h.service.SetSelection(r.Context(), sel)
	h.logger.InfoContext(r.Context(), "selection updated",
		slog.String("month", applied.Month),
		slog.Int("regions", len(applied.Regions)),
		slog.Int("route_locations", len(applied.Route.Locations)),
		slog.Int("static_locations", len(applied.Static.Locations)))
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   applied,
	})
}

// GetMap handles GET /api/dashboard/map. ?mode=route|static keeps only
// that mode's markers.
func (h *DashboardHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	slug, ok := h.query.ValidateEnum(w, r, "mode", []string{"all", "route", "static"}, "all")
	if !ok {
		return
	}

	m, err := h.service.Map(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, translateError(err))
		return
	}

	if mode, found := domain.ModeFromSlug(slug); found {
		markers := make([]domain.MapMarker, 0, len(m.Markers))
		for _, mk := range m.Markers {
			if mk.Mode == mode {
				markers = append(markers, mk)
			}
		}
		m.Markers = markers
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   m,
		"count":  len(m.Markers),
	})
}

// GetChart handles GET /api/dashboard/charts/{mode}.png
func (h *DashboardHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	mode := modeFromContext(r)
	png, err := h.service.ChartPNG(r.Context(), mode)
	if err != nil {
		h.errorHandler.HandleError(w, r, translateError(err))
		return
	}
	writeBinary(w, contentTypePNG, "", png)
}

// GetComparison handles GET /api/dashboard/comparison.xlsx
func (h *DashboardHandler) GetComparison(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.ComparisonXLSX(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, translateError(err))
		return
	}
	writeBinary(w, contentTypeXLSX, exportName("comparison", "xlsx"), data)
}

// GetRows handles GET /api/dashboard/rows.csv
func (h *DashboardHandler) GetRows(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	n, err := h.service.LongRowsCSV(r.Context(), &buf)
	if err != nil {
		h.errorHandler.HandleError(w, r, translateError(err))
		return
	}
	w.Header().Set("X-Row-Count", strconv.Itoa(n))
	writeBinary(w, contentTypeCSV, exportName("rows", "csv"), buf.Bytes())
}

func writeBinary(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	if filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func exportName(kind, ext string) string {
	return fmt.Sprintf("qoe-%s-%s.%s", kind, time.Now().Format("20060102-150405"), ext)
}
