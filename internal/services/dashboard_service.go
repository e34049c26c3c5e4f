package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"sigmon/internal/cache"
	"sigmon/internal/dataset"
	"sigmon/internal/infrastructure"
	"sigmon/internal/pipeline"
	"sigmon/internal/render"
	"sigmon/internal/session"
	"sigmon/internal/sheets"
	ws "sigmon/internal/websocket"
	"sigmon/pkg/contracts/domain"
)

// EventPublisher pushes dashboard events to connected clients.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{})
}

// RemoteLoader is the spreadsheet loader used for the Google Sheets path.
type RemoteLoader interface {
	Fetch(ctx context.Context, spreadsheetID, worksheet string) (*dataset.Raw, bool, error)
	ListSpreadsheets(ctx context.Context) ([]sheets.SpreadsheetInfo, error)
	RegisterCredential(ctx context.Context, data []byte) (sheets.Status, error)
	CredentialStatus() sheets.Status
}

// LoadResult summarizes a successful load.
type LoadResult struct {
	Source    string            `json:"source"`
	Format    dataset.Format    `json:"format"`
	Rows      int               `json:"rows"`
	Columns   []string          `json:"columns"`
	Operators []domain.Operator `json:"operators"`
	Warnings  []domain.Warning  `json:"warnings"`
	Halted    bool              `json:"halted"`
	Cached    bool              `json:"cached"`
	Selection domain.Selection  `json:"selection"`
}

type uploadEntry struct {
	table  *domain.Table
	format dataset.Format
}

// DashboardConfig wires a DashboardService.
type DashboardConfig struct {
	Session         *session.Session
	Remote          RemoteLoader
	Publisher       EventPublisher
	Metrics         *infrastructure.DashboardMetrics
	Logger          *slog.Logger
	MaxUploadBytes  int64
	UploadCacheSize int
}

// DashboardService orchestrates loading, the pipeline and the presentation
// adapters on top of the shared session.
type DashboardService struct {
	session   *session.Session
	remote    RemoteLoader
	uploads   *cache.Cache[uploadEntry]
	publisher EventPublisher
	metrics   *infrastructure.DashboardMetrics
	logger    *slog.Logger
	maxUpload int64
}

// NewDashboardService creates the service. The upload cache has no expiry:
// it lives as long as the process.
func NewDashboardService(cfg DashboardConfig) *DashboardService {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Session == nil {
		cfg.Session = session.New(cfg.Logger)
	}
	if cfg.UploadCacheSize <= 0 {
		cfg.UploadCacheSize = 16
	}
	return &DashboardService{
		session:   cfg.Session,
		remote:    cfg.Remote,
		uploads:   cache.New[uploadEntry](0, cfg.UploadCacheSize),
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger.With(slog.String("component", "dashboard_service")),
		maxUpload: cfg.MaxUploadBytes,
	}
}

// Session exposes the shared session.
func (s *DashboardService) Session() *session.Session { return s.session }

// LoadUpload parses an uploaded file and makes it the current table.
// The same file uploaded again is served from the upload cache.
func (s *DashboardService) LoadUpload(ctx context.Context, name string, data []byte) (*LoadResult, error) {
	ctx, span := infrastructure.StartSpan(ctx, "dashboard.load_upload",
		attribute.String("file.name", name),
		attribute.Int("file.size", len(data)))
	defer span.End()

	if s.maxUpload > 0 && int64(len(data)) > s.maxUpload {
		return nil, fmt.Errorf("%w: %d bytes", ErrUploadTooLarge, len(data))
	}

	start := time.Now()
	key := cache.ContentKey(data) + "|" + name
	entry, cached, err := s.uploads.GetOrLoad(ctx, key, func(context.Context) (uploadEntry, error) {
		raw, err := dataset.Parse(name, data)
		if err != nil {
			return uploadEntry{}, err
		}
		table, err := dataset.Normalize(raw)
		if err != nil {
			return uploadEntry{}, err
		}
		return uploadEntry{table: table, format: raw.Format}, nil
	})
	s.metrics.RecordCacheLookup(ctx, "upload", cached)
	if err != nil {
		s.metrics.RecordDatasetLoad(ctx, "upload", 0, time.Since(start), err)
		infrastructure.RecordError(ctx, err)
		s.logger.WarnContext(ctx, "upload rejected",
			slog.String("file", name),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.metrics.RecordDatasetLoad(ctx, "upload", entry.table.Len(), time.Since(start), nil)
	return s.install(ctx, entry.table, entry.format, cached), nil
}

// LoadSheet fetches a worksheet and makes it the current table. On failure
// the current table is left in place.
func (s *DashboardService) LoadSheet(ctx context.Context, spreadsheetID, worksheet string) (*LoadResult, error) {
	if s.remote == nil {
		return nil, ErrRemoteDisabled
	}
	ctx, span := infrastructure.StartSpan(ctx, "dashboard.load_sheet",
		attribute.String("sheets.spreadsheet_id", spreadsheetID),
		attribute.String("sheets.worksheet", worksheet))
	defer span.End()

	start := time.Now()
	raw, cached, err := s.remote.Fetch(ctx, spreadsheetID, worksheet)
	if err == nil {
		var table *domain.Table
		table, err = dataset.Normalize(raw)
		if err == nil {
			s.metrics.RecordDatasetLoad(ctx, "sheets", table.Len(), time.Since(start), nil)
			return s.install(ctx, table, raw.Format, cached), nil
		}
	}

	s.metrics.RecordDatasetLoad(ctx, "sheets", 0, time.Since(start), err)
	infrastructure.RecordError(ctx, err)
	s.logger.WarnContext(ctx, "worksheet load failed, keeping current table",
		slog.String("spreadsheet_id", spreadsheetID),
		slog.String("worksheet", worksheet),
		slog.String("error", err.Error()))
	return nil, err
}

func (s *DashboardService) install(ctx context.Context, table *domain.Table, format dataset.Format, cached bool) *LoadResult {
	sel := s.session.ReplaceTable(table)
	result := &LoadResult{
		Source:    table.Source,
		Format:    format,
		Rows:      table.Len(),
		Columns:   table.Columns,
		Operators: table.Operators,
		Warnings:  table.Warnings,
		Halted:    table.Halted,
		Cached:    cached,
		Selection: sel,
	}
	if result.Warnings == nil {
		result.Warnings = []domain.Warning{}
	}

	s.logger.InfoContext(ctx, "dataset loaded",
		slog.String("source", table.Source),
		slog.Int("rows", table.Len()),
		slog.Int("warnings", len(table.Warnings)),
		slog.Bool("halted", table.Halted),
		slog.Bool("cached", cached))
	s.publish(ctx, ws.EventDatasetLoaded, map[string]interface{}{
		"source":   table.Source,
		"rows":     table.Len(),
		"halted":   table.Halted,
		"warnings": len(table.Warnings),
	})
	return result
}

// ListSpreadsheets lists the spreadsheets visible to the resolved credential.
func (s *DashboardService) ListSpreadsheets(ctx context.Context) ([]sheets.SpreadsheetInfo, error) {
	if s.remote == nil {
		return nil, ErrRemoteDisabled
	}
	return s.remote.ListSpreadsheets(ctx)
}

// RegisterCredential installs an uploaded service-account key.
func (s *DashboardService) RegisterCredential(ctx context.Context, data []byte) (sheets.Status, error) {
	if s.remote == nil {
		return sheets.Status{}, ErrRemoteDisabled
	}
	status, err := s.remote.RegisterCredential(ctx, data)
	if err != nil {
		return status, err
	}
	s.publish(ctx, ws.EventCredentialChanged, map[string]interface{}{
		"state":  status.State,
		"source": status.Source,
	})
	return status, nil
}

// CredentialStatus reports where the remote credential came from.
func (s *DashboardService) CredentialStatus() sheets.Status {
	if s.remote == nil {
		return sheets.Status{State: sheets.StateUnavailable, Error: ErrRemoteDisabled.Error()}
	}
	return s.remote.CredentialStatus()
}

// Dataset returns the current table.
func (s *DashboardService) Dataset() (*domain.Table, error) {
	t := s.session.Table()
	if t == nil {
		return nil, ErrNoDataset
	}
	return t, nil
}

// Options returns the cascaded selector choices for the live selection.
func (s *DashboardService) Options(ctx context.Context) (domain.Options, error) {
	t, sel := s.session.Snapshot()
	if t == nil {
		return domain.Options{}, ErrNoDataset
	}
	return pipeline.Options(t, sel), nil
}

// Selection returns the live selection.
func (s *DashboardService) Selection() domain.Selection {
	return s.session.Selection()
}

// SetSelection replaces the live selection.
func (s *DashboardService) SetSelection(ctx context.Context, sel domain.Selection) domain.Selection {
	if sel.CoordinateFormat == "" {
		sel.CoordinateFormat = domain.CoordinateDecimal
	}
	s.session.SetSelection(sel)
	s.publish(ctx, ws.EventSelectionChanged, sel)
	return sel.Clone()
}

// Render runs the pipeline for the live selection and fills in the map model.
func (s *DashboardService) Render(ctx context.Context) (*domain.RenderModel, error) {
	t, sel := s.session.Snapshot()
	return s.RenderWith(ctx, t, sel)
}

// RenderWith runs the pipeline for an explicit table and selection.
func (s *DashboardService) RenderWith(ctx context.Context, t *domain.Table, sel domain.Selection) (*domain.RenderModel, error) {
	if t == nil {
		return nil, ErrNoDataset
	}
	ctx, span := infrastructure.StartSpan(ctx, "dashboard.render",
		attribute.String("selection.month", sel.Month),
		attribute.Int("selection.regions", len(sel.Regions)))
	defer span.End()

	start := time.Now()
	model, err := pipeline.Run(t, sel)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	model.Map = render.BuildMap(model)

	s.metrics.RecordPipelineDuration(ctx, time.Since(start))
	for _, mr := range model.Modes {
		s.metrics.RecordPipelineMode(ctx, string(mr.Mode), string(mr.Status))
		span.SetAttributes(attribute.String("mode."+mr.Mode.Slug()+".status", string(mr.Status)))
	}
	return model, nil
}

// ChartPNG renders the bar chart of one mode.
func (s *DashboardService) ChartPNG(ctx context.Context, mode domain.Mode) ([]byte, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	model, err := s.Render(ctx)
	if err != nil {
		return nil, err
	}
	mr := model.ModeResult(mode)
	if mr == nil || mr.Chart == nil {
		return nil, fmt.Errorf("%w %s", ErrNoChart, mode)
	}
	png, err := render.ChartPNG(mr.Chart, render.DefaultChartOptions())
	if err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return png, nil
}

// Map returns the marker model for the live selection.
func (s *DashboardService) Map(ctx context.Context) (domain.MapModel, error) {
	model, err := s.Render(ctx)
	if err != nil {
		return domain.MapModel{}, err
	}
	return model.Map, nil
}

// ComparisonXLSX exports the comparison tables of the live selection.
func (s *DashboardService) ComparisonXLSX(ctx context.Context) ([]byte, error) {
	model, err := s.Render(ctx)
	if err != nil {
		return nil, err
	}
	return render.ComparisonXLSX(model)
}

// LongRowsCSV writes the long rows of the live selection.
func (s *DashboardService) LongRowsCSV(ctx context.Context, w io.Writer) (int, error) {
	model, err := s.Render(ctx)
	if err != nil {
		return 0, err
	}
	return render.LongRowsCSV(w, model, render.CSVOptions{BOMPrefix: true})
}

// SaveConfiguration stores the live selection under name.
func (s *DashboardService) SaveConfiguration(ctx context.Context, name string) (domain.Configuration, error) {
	cfg, err := s.session.SaveConfiguration(name)
	s.metrics.RecordConfigurationOp(ctx, "save", err)
	if err != nil {
		return cfg, err
	}
	s.publish(ctx, ws.EventConfigurationSaved, map[string]string{"name": cfg.Name})
	return cfg, nil
}

// LoadConfiguration applies a stored configuration.
func (s *DashboardService) LoadConfiguration(ctx context.Context, name string) (domain.Selection, error) {
	sel, err := s.session.LoadConfiguration(name)
	s.metrics.RecordConfigurationOp(ctx, "load", err)
	if err != nil {
		return sel, err
	}
	s.publish(ctx, ws.EventConfigurationApplied, map[string]interface{}{"name": name, "selection": sel})
	return sel, nil
}

// ListConfigurations returns stored configurations sorted by name.
func (s *DashboardService) ListConfigurations() []domain.Configuration {
	return s.session.ListConfigurations()
}

// DeleteConfiguration removes a stored configuration.
func (s *DashboardService) DeleteConfiguration(ctx context.Context, name string) error {
	err := s.session.DeleteConfiguration(name)
	s.metrics.RecordConfigurationOp(ctx, "delete", err)
	if err != nil {
		return err
	}
	s.publish(ctx, ws.EventConfigurationDeleted, map[string]string{"name": name})
	return nil
}

func (s *DashboardService) publish(ctx context.Context, eventType string, data interface{}) {
	if s.publisher != nil {
		s.publisher.Publish(ctx, eventType, data)
	}
}

// Close releases the upload cache.
func (s *DashboardService) Close() {
	s.uploads.Stop()
}
