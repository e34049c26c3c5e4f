package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"sigmon/internal/config"
	apierrors "sigmon/internal/errors"
	"sigmon/internal/middleware"
)

// SheetRequest selects a remote worksheet
type SheetRequest struct {
	SpreadsheetID string `json:"spreadsheet_id" validate:"required,max=128"`
	Worksheet     string `json:"worksheet" validate:"required,max=100"`
}

// DatasetHandler handles loading of measurement tables
type DatasetHandler struct {
	service      DatasetService
	validator    *middleware.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	maxUpload    int64
}

// NewDatasetHandler creates a new dataset handler. maxUpload bounds the
// multipart body of file uploads.
func NewDatasetHandler(service DatasetService, maxUpload int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	if maxUpload <= 0 {
		maxUpload = config.MaxUploadSize
	}
	return &DatasetHandler{
		service:      service,
		validator:    middleware.NewValidationMiddleware(logger, errorHandler),
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
		maxUpload:    maxUpload,
	}
}

// Routes returns the dataset routes
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetDataset)
	r.Post("/upload", h.Upload)

	r.Route("/sheets", func(r chi.Router) {
		r.Get("/", h.ListSpreadsheets)
		r.With(middleware.ContentTypeValidator("application/json")).Post("/", h.LoadSheet)
	})

	r.Route("/credentials", func(r chi.Router) {
		r.Get("/", h.CredentialStatus)
		r.Post("/", h.RegisterCredential)
	})
	return r
}

// Upload handles POST /api/dataset/upload
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	name, data, ok := h.readFormFile(w, r, h.maxUpload)
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "dataset upload received",
		slog.String("file", name),
		slog.Int("size", len(data)),
		slog.String("request_id", middleware.GetReqID(r.Context())))

	result, err := h.service.LoadUpload(r.Context(), name, data)
	if err != nil {
		h.errorHandler.HandleError(w, r, translateError(err))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
	})
}

// LoadSheet handles POST /api/dataset/sheets
func (h *DatasetHandler) LoadSheet(w http.ResponseWriter, r *http.Request) {
	var req SheetRequest
	if !h.validator.DecodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.LoadSheet(r.Context(), req.SpreadsheetID, req.Worksheet)
	if err != nil {
		h.errorHandler.HandleError(w, r, translateError(err))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
	})
}

// ListSpreadsheets handles GET /api/dataset/sheets
func (h *DatasetHandler) ListSpreadsheets(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListSpreadsheets(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, translateError(err))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   list,
		"count":  len(list),
	})
}

// RegisterCredential handles POST /api/dataset/credentials
func (h *DatasetHandler) RegisterCredential(w http.ResponseWriter, r *http.Request) {
	_, data, ok := h.readFormFile(w, r, config.MaxCredentialSize)
	if !ok {
		return
	}

	status, err := h.service.RegisterCredential(r.Context(), data)
	if err != nil {
		h.errorHandler.HandleError(w, r, translateError(err))
		return
	}

	h.logger.InfoContext(r.Context(), "credential registered",
		slog.String("state", string(status.State)),
		slog.String("client_email", status.ClientEmail))
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   status,
	})
}

// CredentialStatus handles GET /api/dataset/credentials
func (h *DatasetHandler) CredentialStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   h.service.CredentialStatus(),
	})
}

// GetDataset handles GET /api/dataset
func (h *DatasetHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	table, err := h.service.Dataset()
	if err != nil {
		h.errorHandler.HandleError(w, r, translateError(err))
		return
	}

	rows := make([]map[string]string, 0, len(table.Records))
	for _, rec := range table.Records {
		rows = append(rows, rec.Cells)
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"source":    table.Source,
			"columns":   table.Columns,
			"rows":      rows,
			"operators": table.Operators,
			"warnings":  table.Warnings,
			"halted":    table.Halted,
			"loaded_at": table.LoadedAt,
		},
		"count": len(rows),
	})
}

// readFormFile reads the multipart "file" field. On failure the error
// response has already been written.
func (h *DatasetHandler) readFormFile(w http.ResponseWriter, r *http.Request, limit int64) (string, []byte, bool) {
	// Multipart framing adds overhead on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, limit+config.MultipartMemoryBase/8)
	if err := r.ParseMultipartForm(config.MultipartMemoryBase); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return "", nil, false
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return "", nil, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewValidationErrors([]apierrors.ValidationError{{
			Field:   "file",
			Message: "file is required",
		}}))
		return "", nil, false
	}
	defer file.Close()

	if header.Size > limit {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(http.StatusRequestEntityTooLarge,
			apierrors.CodePayloadTooLarge, apierrors.ErrPayloadTooLarge.Message,
			fmt.Sprintf("%d bytes exceeds %d", header.Size, limit)))
		return "", nil, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return "", nil, false
	}
	return header.Filename, data, true
}
