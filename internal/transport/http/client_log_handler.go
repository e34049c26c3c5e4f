package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"sigmon/internal/errors"
	"sigmon/internal/infrastructure"
	"sigmon/internal/middleware"
)

const maxClientLogBody = 16 << 10

// ClientLogHandler forwards browser-side dashboard logs (render failures,
// websocket reconnects) into the server log
type ClientLogHandler struct {
	logger *slog.Logger
}

// NewClientLogHandler creates a new client log handler
func NewClientLogHandler(logger *slog.Logger) *ClientLogHandler {
	return &ClientLogHandler{
		logger: logger.With(slog.String("handler", "client_log")),
	}
}

// LogRequest represents a client log entry
type LogRequest struct {
	Level   string                 `json:"level"`
	Message string                 `json:"message"`
	View    string                 `json:"view,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// Handle handles POST /api/log/client
func (h *ClientLogHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req LogRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxClientLogBody)).Decode(&req); err != nil {
		errors.WriteError(w, errors.InvalidRequestWithError(err))
		return
	}

	level := infrastructure.ParseLogLevel(req.Level)
	attrs := []slog.Attr{
		slog.String("source", "browser"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	}
	if req.View != "" {
		attrs = append(attrs, slog.String("view", req.View))
	}
	if req.Data != nil {
		attrs = append(attrs, slog.Any("data", req.Data))
	}

	h.logger.LogAttrs(r.Context(), level, req.Message, attrs...)

	render.JSON(w, r, map[string]interface{}{
		"success": true,
	})
}
