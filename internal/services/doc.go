// Package services implements the business logic layer of the dashboard.
// It sits between the HTTP handlers and the session, loaders, pipeline and
// render packages.
//
// # Available Services
//
//	- DashboardService: loads tables from uploads or Google Sheets, keeps the
//	  live selection, runs the pipeline and produces charts, map models and
//	  exports, and manages named configurations
//	- HealthService: liveness, readiness, version and runtime statistics
//
// # Events
//
// State changes are pushed through an EventPublisher, normally the websocket
// hub, so every open dashboard re-renders after a load or configuration
// change.
//
// # Error Handling
//
// Services return sentinel errors (ErrNoDataset, ErrUploadTooLarge,
// ErrUnknownMode, ErrRemoteDisabled) or pass through the typed errors of the
// dataset, sheets and session packages. Handlers translate them into
// problem responses.
//
// # Testing
//
// Collaborators are mocked with testify:
//
//	pub := &mockPublisher{}
//	pub.On("Publish", mock.Anything, ws.EventDatasetLoaded, mock.Anything).Return()
//	svc := NewDashboardService(DashboardConfig{Publisher: pub, Logger: logger})
package services
