// Package http implements the HTTP handlers of the dashboard API. Handlers
// stay thin: they decode and validate requests, call a service and render
// the result with go-chi/render.
//
// # Routes
//
//	/api/dataset         DatasetHandler        upload, remote worksheets, credentials
//	/api/dashboard       DashboardHandler      render model, selection, charts, map, exports
//	/api/configurations  ConfigurationHandler  named selections
//	/api/health          HealthHandler         health, readiness, liveness, version
//	/metrics             MetricsHandler        Prometheus scrape
//
// # Error Handling
//
// Service errors are translated to internal/errors API errors and rendered
// as RFC 7807 problems by the shared ErrorHandler:
//
//	{
//	    "type": "/errors/dataset/none-loaded",
//	    "title": "Conflict",
//	    "status": 409,
//	    "detail": "No dataset loaded; upload a file or load a worksheet first",
//	    "instance": "/api/dashboard",
//	    "error_code": "NO_DATASET"
//	}
//
// A table with a missing required column is not an error: it loads with a
// warning and the render model reports every mode as halted.
//
// # Testing
//
// Handlers are tested through a chi router with httptest and a testify
// mock standing in for the services.
package http
