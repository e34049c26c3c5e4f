package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"sigmon/internal/session"
	"sigmon/internal/sheets"
	ws "sigmon/internal/websocket"
	"sigmon/pkg/contracts"
)

// HubInfo is the part of the websocket hub the health checks read.
type HubInfo interface {
	Running() bool
	Stats() ws.HubStats
}

// CredentialInfo reports the remote credential state.
type CredentialInfo interface {
	CredentialStatus() sheets.Status
}

// HealthService provides health check functionality
type HealthService struct {
	version     string
	buildTime   string
	gitCommit   string
	session     *session.Session
	hub         HubInfo
	credentials CredentialInfo
	startTime   time.Time
	logger      *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Uptime   string `json:"uptime,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

// SystemStats represents system statistics
type SystemStats struct {
	UptimeSeconds    float64 `json:"uptime_seconds"`
	DatasetLoaded    bool    `json:"dataset_loaded"`
	DatasetRows      int     `json:"dataset_rows"`
	DatasetVersion   uint64  `json:"dataset_version"`
	Configurations   int     `json:"configurations"`
	WebSocketClients int     `json:"websocket_clients"`
	MessagesSent     int64   `json:"messages_sent"`
	MessagesDropped  int64   `json:"messages_dropped"`
	CredentialState  string  `json:"credential_state"`
	Goroutines       int     `json:"goroutines"`
	GoVersion        string  `json:"go_version"`
	OS               string  `json:"os"`
	Arch             string  `json:"arch"`
}

// NewHealthService creates a health service. hub and credentials may be nil.
func NewHealthService(sess *session.Session, hub HubInfo, credentials CredentialInfo, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	info := contracts.GetVersionInfo()
	logger.Info("health service initialized",
		slog.String("version", info.Version),
		slog.String("build_time", info.BuildTime),
		slog.String("git_commit", info.GitCommit))

	return &HealthService{
		version:     info.Version,
		buildTime:   info.BuildTime,
		gitCommit:   info.GitCommit,
		session:     sess,
		hub:         hub,
		credentials: credentials,
		startTime:   time.Now(),
		logger:      logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
	hs.logger.DebugContext(ctx, "health check",
		slog.String("status", status.Status),
		slog.String("uptime", time.Since(hs.startTime).String()))
	return status
}

// ReadinessCheck returns readiness status. The sheets credential is reported
// but never blocks readiness: uploads work without it.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	status.Services["session"] = hs.checkSessionHealth()
	status.Services["websocket"] = hs.checkWebSocketHealth()
	status.Services["sheets"] = hs.checkSheetsHealth()

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && !sh.Optional && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}

	if status.Status != "ready" {
		hs.logger.WarnContext(ctx, "readiness check failed", slog.Any("services", status.Services))
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	return map[string]interface{}{
		"version":      hs.version,
		"api_version":  contracts.APIVersion,
		"build_time":   hs.buildTime,
		"git_commit":   hs.gitCommit,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

// SystemStats returns system statistics
func (hs *HealthService) SystemStats(ctx context.Context) SystemStats {
	stats := SystemStats{
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		GoVersion:     runtime.Version(),
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
	}
	if hs.session != nil {
		t := hs.session.Table()
		stats.DatasetLoaded = t != nil
		stats.DatasetRows = t.Len()
		stats.DatasetVersion = hs.session.Version()
		stats.Configurations = len(hs.session.ListConfigurations())
	}
	if hs.hub != nil {
		hub := hs.hub.Stats()
		stats.WebSocketClients = hub.ActiveClients
		stats.MessagesSent = hub.MessagesSent
		stats.MessagesDropped = hub.MessagesDropped
	}
	if hs.credentials != nil {
		stats.CredentialState = string(hs.credentials.CredentialStatus().State)
	}
	return stats
}

func (hs *HealthService) checkSessionHealth() ServiceHealth {
	if hs.session == nil {
		return ServiceHealth{Status: "not_ready", Message: "session not initialized"}
	}
	t := hs.session.Table()
	if t == nil {
		return ServiceHealth{Status: "ready", Message: "no dataset loaded"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d rows from %s", t.Len(), t.Source),
	}
}

func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.hub == nil || !hs.hub.Running() {
		return ServiceHealth{Status: "not_ready", Message: "websocket hub not running"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d clients connected", hs.hub.Stats().ActiveClients),
		Uptime:  time.Since(hs.startTime).String(),
	}
}

func (hs *HealthService) checkSheetsHealth() ServiceHealth {
	if hs.credentials == nil {
		return ServiceHealth{Status: "disabled", Optional: true}
	}
	st := hs.credentials.CredentialStatus()
	switch st.State {
	case sheets.StateResolved:
		return ServiceHealth{Status: "ready", Message: "credential from " + st.Source, Optional: true}
	case sheets.StateUnavailable:
		return ServiceHealth{Status: "unavailable", Message: st.Error, Optional: true}
	default:
		return ServiceHealth{Status: "ready", Message: "credential not resolved yet", Optional: true}
	}
}

// GetDetailedHealth returns comprehensive health information
func (hs *HealthService) GetDetailedHealth(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{
		"health":    hs.HealthCheck(ctx),
		"readiness": hs.ReadinessCheck(ctx),
		"liveness":  hs.LivenessCheck(ctx),
		"stats":     hs.SystemStats(ctx),
	}
}
