package app

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigmon/internal/config"
	"sigmon/internal/shared/testutil"
)

func newTestApplication(t *testing.T) *Application {
	t.Helper()

	cfg := config.Default()
	cfg.Paths.ExecutableDir = t.TempDir()
	cfg.Sheets.CredentialsFile = "missing-credentials.json"
	cfg.Security.RateLimit.Enabled = false

	logger, _ := testutil.NewTestLogger(t)
	webFS := fstest.MapFS{
		"index.html": &fstest.MapFile{Data: []byte(`<!DOCTYPE html><html><body>QoE</body></html>`)},
		"app.js":     &fstest.MapFile{Data: []byte(`console.log("qoe")`)},
	}

	app, err := New(cfg, logger, webFS)
	require.NoError(t, err)
	t.Cleanup(func() {
		app.WebSocketHub.Stop()
		app.Loader.Close()
		app.Dashboard.Close()
		_ = app.OTelProviders.Shutdown(context.Background())
	})
	return app
}

func serve(app *Application, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, name, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/dataset/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestNew(t *testing.T) {
	app := newTestApplication(t)

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Session)
	assert.NotNil(t, app.Loader)
	assert.NotNil(t, app.Dashboard)
	assert.NotNil(t, app.HealthService)
	assert.NotNil(t, app.Metrics, "metrics are enabled by default")
	assert.True(t, app.WebSocketHub.Running())

	assert.Equal(t, ":8080", app.Server.Addr)
	assert.Equal(t, app.Config.Server.ReadTimeout, app.Server.ReadTimeout)
	assert.Equal(t, app.Config.Server.MaxHeaderBytes, app.Server.MaxHeaderBytes)
}

func TestNewWithoutMetrics(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.ExecutableDir = t.TempDir()
	cfg.Telemetry.MetricsEnabled = false
	logger, _ := testutil.NewTestLogger(t)

	app, err := New(cfg, logger, nil)
	require.NoError(t, err)
	defer func() {
		app.WebSocketHub.Stop()
		app.Loader.Close()
		app.Dashboard.Close()
	}()

	assert.Nil(t, app.Metrics)

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestApplication_setupRouter(t *testing.T) {
	app := newTestApplication(t)

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"health", http.MethodGet, "/api/health", http.StatusOK},
		{"readiness", http.MethodGet, "/api/health/ready", http.StatusOK},
		{"liveness", http.MethodGet, "/api/health/live", http.StatusOK},
		{"stats", http.MethodGet, "/api/health/stats", http.StatusOK},
		{"version", http.MethodGet, "/api/version", http.StatusOK},
		{"credential status", http.MethodGet, "/api/dataset/credentials", http.StatusOK},
		{"dashboard without dataset", http.MethodGet, "/api/dashboard", http.StatusConflict},
		{"configurations", http.MethodGet, "/api/configurations", http.StatusOK},
		{"unknown chart mode", http.MethodGet, "/api/dashboard/charts/walk.png", http.StatusNotFound},
		{"unknown api route", http.MethodGet, "/api/nothing-here", http.StatusNotFound},
		{"prometheus", http.MethodGet, "/metrics", http.StatusOK},
		{"websocket without upgrade", http.MethodGet, "/ws", http.StatusBadRequest},
		{"front end index", http.MethodGet, "/", http.StatusOK},
		{"front end asset", http.MethodGet, "/app.js", http.StatusOK},
		{"client-side route", http.MethodGet, "/dashboard/route", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(app, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestApplication_RequestIDAndSecurityHeaders(t *testing.T) {
	app := newTestApplication(t)

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestApplication_DashboardFlow(t *testing.T) {
	app := newTestApplication(t)

	rec := serve(app, uploadRequest(t, "drive.csv", testutil.MeasurementsCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var loaded struct {
		Status string `json:"status"`
		Data   struct {
			Rows   int  `json:"rows"`
			Halted bool `json:"halted"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loaded))
	assert.Equal(t, "success", loaded.Status)
	assert.Equal(t, 4, loaded.Data.Rows)
	assert.False(t, loaded.Data.Halted)

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body["status"])

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/api/dashboard/charts/route.png", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/api/dashboard/comparison.xlsx", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	// Save the current selection, then restore it by name.
	req := httptest.NewRequest(http.MethodPost, "/api/configurations", strings.NewReader(`{"name":"bandung-route"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = serve(app, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(app, httptest.NewRequest(http.MethodPost, "/api/configurations/bandung-route/load", nil))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(app, httptest.NewRequest(http.MethodDelete, "/api/configurations/bandung-route", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(app, httptest.NewRequest(http.MethodPost, "/api/configurations/bandung-route/load", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplication_UploadRejectsUnknownFormat(t *testing.T) {
	app := newTestApplication(t)

	rec := serve(app, uploadRequest(t, "drive.pdf", "%PDF-1.4"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code, rec.Body.String())
}

func TestApplication_getCORSConfig(t *testing.T) {
	app := newTestApplication(t)

	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("GO_ENV", "")
	cfg := app.getCORSConfig()
	assert.Equal(t, []string{"http://localhost:8080"}, cfg.AllowedOrigins)
	assert.True(t, cfg.AllowCredentials)
	assert.Contains(t, cfg.ExposedHeaders, "X-Row-Count")

	t.Setenv("ENVIRONMENT", "development")
	cfg = app.getCORSConfig()
	assert.Contains(t, cfg.AllowedOrigins, "http://localhost:3000")
}

func TestApplication_performStartupHealthCheck(t *testing.T) {
	app := newTestApplication(t)

	paths := config.PathsFor(app.Config.Paths.ExecutableDir)
	require.NoError(t, paths.EnsureDirectories())
	assert.NoError(t, app.performStartupHealthCheck(context.Background()))

	// Directories that were never created cannot be written.
	app.Config.Paths.ExecutableDir = t.TempDir()
	err := app.performStartupHealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not writable")
}

func TestApplication_StartStop(t *testing.T) {
	app := newTestApplication(t)
	app.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, app.Start(ctx, cancel))

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	assert.NoError(t, app.Stop(stopCtx))
	assert.False(t, app.WebSocketHub.Running())
}
