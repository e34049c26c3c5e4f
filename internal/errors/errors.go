package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError represents validation errors
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Error codes
const (
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeValidationFailed      = "VALIDATION_FAILED"
	CodeNotFound              = "NOT_FOUND"
	CodeConfigurationNotFound = "CONFIGURATION_NOT_FOUND"
	CodeNoDataset             = "NO_DATASET"
	CodeMissingColumn         = "MISSING_COLUMN"
	CodeUnsupportedFormat     = "UNSUPPORTED_FORMAT"
	CodePayloadTooLarge       = "PAYLOAD_TOO_LARGE"
	CodeCredentialUnavailable = "CREDENTIAL_UNAVAILABLE"
	CodeCredentialInvalid     = "CREDENTIAL_INVALID"
	CodeRemoteService         = "REMOTE_SERVICE_ERROR"
	CodeRateLimitExceeded     = "RATE_LIMIT_EXCEEDED"
	CodeInternal              = "INTERNAL_SERVER_ERROR"
	CodeRenderFailed          = "RENDER_FAILED"
	CodeServiceUnavailable    = "SERVICE_UNAVAILABLE"
)

// Predefined error types for common scenarios
var (
	// 400 Bad Request
	ErrInvalidRequest   = New(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format")
	ErrValidationFailed = New(http.StatusBadRequest, CodeValidationFailed, "Request validation failed")

	// 404 Not Found
	ErrNotFound = New(http.StatusNotFound, CodeNotFound, "Resource not found")

	// 409 Conflict
	ErrNoDataset = New(http.StatusConflict, CodeNoDataset, "No dataset loaded; upload a file or load a worksheet first")

	// 412 Precondition Failed
	ErrCredentialUnavailable = New(http.StatusPreconditionFailed, CodeCredentialUnavailable,
		"No spreadsheet credential available; upload a service account key file to use remote worksheets")

	// 413 Request Entity Too Large
	ErrPayloadTooLarge = New(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Uploaded file exceeds the maximum allowed size")

	// 415 Unsupported Media Type
	ErrUnsupportedFormat = New(http.StatusUnsupportedMediaType, CodeUnsupportedFormat, "Unsupported file format; upload a CSV or XLSX file")

	// 429 Too Many Requests
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, CodeRateLimitExceeded, "Rate limit exceeded")

	// 500 Internal Server Error
	ErrInternalServer = New(http.StatusInternalServerError, CodeInternal, "Internal server error")

	// 503 Service Unavailable
	ErrServiceUnavailable = New(http.StatusServiceUnavailable, CodeServiceUnavailable, "Service temporarily unavailable")
)

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err.Error())
}

// NotFoundError creates a not found error with details
func NotFoundError(resource string) *APIError {
	return NewWithDetails(http.StatusNotFound, CodeNotFound, fmt.Sprintf("%s not found", resource), resource)
}

// ConfigurationNotFoundError reports an unknown saved configuration name.
func ConfigurationNotFoundError(name string) *APIError {
	return NewWithDetails(http.StatusNotFound, CodeConfigurationNotFound,
		fmt.Sprintf("configuration %q not found", name), map[string]string{"name": name})
}

// MissingColumnError reports a required column absent from an uploaded table.
func MissingColumnError(column string) *APIError {
	return NewWithDetails(http.StatusUnprocessableEntity, CodeMissingColumn,
		fmt.Sprintf("required column %q is missing", column), map[string]string{"column": column})
}

// CredentialInvalidError reports a credential that could not be used.
func CredentialInvalidError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeCredentialInvalid, "Credential file is not a usable service account key", err.Error())
}

// RemoteServiceError wraps a spreadsheet service failure. kind is one of
// auth, not_found or network.
func RemoteServiceError(kind string, err error) *APIError {
	return NewWithDetails(http.StatusBadGateway, CodeRemoteService, "Spreadsheet service request failed",
		map[string]string{"kind": kind, "error": err.Error()})
}

// RenderError reports a failure producing an artifact (chart, workbook).
func RenderError(artifact string, err error) *APIError {
	return NewWithDetails(http.StatusInternalServerError, CodeRenderFailed,
		fmt.Sprintf("failed to render %s", artifact), err.Error())
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(err *APIError) *ErrorResponse {
	return &ErrorResponse{
		Success: false,
		Error:   err,
	}
}

// Render implements the render.Renderer interface
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return e.Error.Render(w, r)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// NewValidationErrors creates validation errors from multiple fields
func NewValidationErrors(errors []ValidationError) *APIError {
	return NewWithDetails(
		http.StatusBadRequest,
		CodeValidationFailed,
		"Request validation failed",
		ValidationErrors{Errors: errors},
	)
}

// WriteError writes an error response to the HTTP response writer
func WriteError(w http.ResponseWriter, err *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	json.NewEncoder(w).Encode(NewErrorResponse(err))
}
