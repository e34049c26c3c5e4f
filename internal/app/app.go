package app

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"sigmon/internal/config"
	"sigmon/internal/errors"
	"sigmon/internal/infrastructure"
	customMiddleware "sigmon/internal/middleware"
	"sigmon/internal/services"
	"sigmon/internal/session"
	"sigmon/internal/sheets"
	handlers "sigmon/internal/transport/http"
	ws "sigmon/internal/websocket"
	"sigmon/pkg/contracts"
)

const AppName = "SIGMON QoE Dashboard"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.DashboardMetrics
	Session       *session.Session
	WebSocketHub  *ws.Hub
	Loader        *sheets.Loader
	Dashboard     *services.DashboardService
	HealthService *services.HealthService
	WebFS         fs.FS // Dashboard front end; nil disables static serving
}

// NewApplication loads configuration from the environment and builds the
// application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("build", contracts.GetFullVersionString()))

	paths := config.PathsFor(cfg.Paths.ExecutableDir)
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	var webFS fs.FS
	webDir := cfg.Paths.WebDir
	if !filepath.IsAbs(webDir) {
		webDir = filepath.Join(cfg.Paths.ExecutableDir, webDir)
	}
	if info, err := os.Stat(webDir); err == nil && info.IsDir() {
		webFS = os.DirFS(webDir)
	} else {
		logger.Info("Web directory not found, serving API only", slog.String("path", webDir))
	}

	return New(cfg, logger, webFS)
}

// New wires every component from an already loaded configuration.
func New(cfg *config.Config, logger *slog.Logger, webFS fs.FS) (*Application, error) {
	otelCfg := infrastructure.DefaultOTelConfig()
	if cfg.Telemetry.ServiceName != "" {
		otelCfg.ServiceName = cfg.Telemetry.ServiceName
	}
	otelCfg.EnableTracing = cfg.Telemetry.TracingEnabled
	if otelCfg.EnableTracing {
		otelCfg.TraceExporter = "stdout"
	}
	otelCfg.EnableMetrics = cfg.Telemetry.MetricsEnabled

	otelProviders, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		WebFS:         webFS,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	if a.OTelProviders.Meter != nil {
		metrics, err := infrastructure.CreateDashboardMetrics(a.OTelProviders.Meter)
		if err != nil {
			return fmt.Errorf("failed to create dashboard metrics: %w", err)
		}
		a.Metrics = metrics
	}

	a.Session = session.New(a.Logger)

	hub := ws.NewHub(a.Logger, a.Metrics)
	hub.Start()
	a.WebSocketHub = hub

	// Credential chain: deployment secret, then local key file, then a key
	// uploaded through the API.
	uploads := &sheets.UploadProvider{}
	resolver := sheets.NewResolver(a.Logger,
		sheets.SecretProvider{Value: a.Config.Sheets.CredentialsJSON},
		sheets.FileProvider{Path: a.Config.GetCredentialsFile()},
		uploads,
	)
	a.Loader = sheets.NewLoader(sheets.LoaderConfig{
		Resolver:     resolver,
		Uploads:      uploads,
		CacheTTL:     a.Config.Sheets.CacheTTL,
		CacheSize:    a.Config.Sheets.CacheSize,
		FetchTimeout: a.Config.Sheets.FetchTimeout,
		Metrics:      a.Metrics,
		Logger:       a.Logger,
	})

	a.Dashboard = services.NewDashboardService(services.DashboardConfig{
		Session:         a.Session,
		Remote:          a.Loader,
		Publisher:       hub,
		Metrics:         a.Metrics,
		Logger:          a.Logger,
		MaxUploadBytes:  a.Config.Dataset.MaxUploadBytes,
		UploadCacheSize: a.Config.Dataset.UploadCacheSize,
	})

	a.HealthService = services.NewHealthService(a.Session, hub, a.Dashboard, a.Logger)
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errorHandler := errors.NewErrorHandler(a.Logger, false)

	// Only middleware that leaves the ResponseWriter unwrapped runs ahead of
	// the websocket upgrade.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.Handle("/ws", ws.NewHandler(a.WebSocketHub, a.Config.Security.AllowedOrigins, a.Logger))

	// Scraped outside the middleware group so Prometheus polls stay out of
	// the request logs.
	r.Handle("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.Logger, errorHandler))

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → Timeout
		r.Use(customMiddleware.NewOTelMiddleware(a.Metrics, a.Logger).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r, errorHandler)
		if a.WebFS != nil {
			r.Get("/*", a.serveSPAHandler(a.WebFS))
		}
	})

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router, errorHandler *errors.ErrorHandler) {
	r.Route("/api", func(r chi.Router) {
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))
		r.Use(customMiddleware.Compress(5, "application/json", "text/csv"))

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Route("/health", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Get("/", healthHandler.HealthCheck)
			r.Get("/ready", healthHandler.ReadinessCheck)
			r.Get("/live", healthHandler.LivenessCheck)
			r.Get("/stats", healthHandler.Stats)
		})
		r.With(render.SetContentType(render.ContentTypeJSON)).Get("/version", healthHandler.Version)

		r.Mount("/dataset", handlers.NewDatasetHandler(a.Dashboard, a.Config.Dataset.MaxUploadBytes, a.Logger, errorHandler).Routes())
		r.Mount("/dashboard", handlers.NewDashboardHandler(a.Dashboard, a.Logger, errorHandler).Routes())
		r.Mount("/configurations", handlers.NewConfigurationHandler(a.Dashboard, a.Logger, errorHandler).Routes())

		r.Post("/log/client", handlers.NewClientLogHandler(a.Logger).Handle)
	})
}

// serveSPAHandler serves the dashboard front end, falling back to index.html
// for client-side routes.
func (a *Application) serveSPAHandler(webFS fs.FS) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		urlPath := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if urlPath == "" {
			urlPath = "index.html"
		}

		if info, err := fs.Stat(webFS, urlPath); err == nil && !info.IsDir() {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			http.ServeFileFS(w, r, webFS, urlPath)
			return
		}

		index, err := webFS.Open("index.html")
		if err != nil {
			a.Logger.WarnContext(r.Context(), "Front end not available",
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()))
			http.Error(w, "Frontend not available", http.StatusServiceUnavailable)
			return
		}
		defer index.Close()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		_, _ = io.Copy(w, index)
	}
}

// getCORSConfig returns CORS configuration based on environment
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	cfg := customMiddleware.CORSConfig{
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
			"X-Row-Count",
			"Content-Disposition",
		},
		AllowCredentials: true,
		MaxAge:           300,
		Logger:           a.Logger,
		AllowedOrigins:   append([]string(nil), a.Config.Security.AllowedOrigins...),
	}

	if a.isDevelopmentMode() {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins,
			"http://localhost:3000",
			"http://127.0.0.1:3000",
		)
	}

	a.Logger.Debug("CORS configured", slog.Any("allowed_origins", cfg.AllowedOrigins))
	return cfg
}

// isDevelopmentMode reports whether ENVIRONMENT or GO_ENV selects development.
func (a *Application) isDevelopmentMode() bool {
	return os.Getenv("ENVIRONMENT") == "development" || os.Getenv("GO_ENV") == "development"
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the HTTP server. A listen failure cancels ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)),
		slog.String("sheets_credential", string(a.Dashboard.CredentialStatus().State)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.WebSocketHub.Stop()
	a.Loader.Close()
	a.Dashboard.Close()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(infrastructure.EnsureTraceID(context.Background()))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}

// performStartupHealthCheck verifies the data directories are writable and
// reports where the sheets credential will come from.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	paths := config.PathsFor(a.Config.Paths.ExecutableDir)

	var warnings []string
	directories := map[string]string{
		"Data":    paths.DataDir,
		"Exports": paths.ExportsDir,
		"Logs":    paths.LogsDir,
	}

	for name, dir := range directories {
		testFile := filepath.Join(dir, ".write_test")
		if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s directory not writable: %s", name, dir))
		} else {
			os.Remove(testFile)
		}
	}

	if a.Config.Sheets.CredentialsJSON == "" && !config.FileExists(a.Config.GetCredentialsFile()) {
		a.Logger.InfoContext(ctx, "No sheets credential configured; uploads only until one is registered",
			slog.String("credentials_file", a.Config.GetCredentialsFile()))
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "Startup health check passed")
	return nil
}
