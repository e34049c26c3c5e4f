package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"sigmon/internal/cache"
	"sigmon/internal/dataset"
	"sigmon/internal/infrastructure"
)

// ErrInvalidWorksheet is returned for a blank spreadsheet ID or worksheet name.
var ErrInvalidWorksheet = errors.New("spreadsheet id and worksheet are required")

// Loader fetches worksheets through the credential chain, caching results
// per (spreadsheet, worksheet) and de-duplicating concurrent fetches.
type Loader struct {
	resolver *Resolver
	uploads  *UploadProvider
	factory  ServiceFactory
	cache    *cache.Cache[*dataset.Raw]
	metrics  *infrastructure.DashboardMetrics
	logger   *slog.Logger
	timeout  time.Duration

	mu        sync.Mutex
	service   Service
	serviceOf string
}

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	Resolver     *Resolver
	Uploads      *UploadProvider
	Factory      ServiceFactory
	CacheTTL     time.Duration
	CacheSize    int
	FetchTimeout time.Duration
	Metrics      *infrastructure.DashboardMetrics
	Logger       *slog.Logger
}

// NewLoader creates a Loader. A nil Factory uses the Google APIs.
func NewLoader(cfg LoaderConfig) *Loader {
	if cfg.Factory == nil {
		cfg.Factory = NewGoogleService
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Loader{
		resolver: cfg.Resolver,
		uploads:  cfg.Uploads,
		factory:  cfg.Factory,
		cache:    cache.New[*dataset.Raw](cfg.CacheTTL, cfg.CacheSize),
		metrics:  cfg.Metrics,
		logger:   cfg.Logger.With(slog.String("component", "sheets_loader")),
		timeout:  cfg.FetchTimeout,
	}
}

// RegisterCredential stores an uploaded key and re-runs resolution on the
// next request.
func (l *Loader) RegisterCredential(ctx context.Context, data []byte) (Status, error) {
	if l.uploads == nil {
		return Status{}, fmt.Errorf("credential upload is not enabled")
	}
	email, err := l.uploads.Set(data)
	if err != nil {
		return l.resolver.Status(), err
	}
	l.resolver.Reset()
	l.dropService()
	l.cache.Purge()

	l.logger.InfoContext(ctx, "credential uploaded", slog.String("client_email", email))
	if _, _, err := l.resolver.Resolve(ctx); err != nil {
		return l.resolver.Status(), err
	}
	return l.resolver.Status(), nil
}

// CredentialStatus reports the resolver state.
func (l *Loader) CredentialStatus() Status {
	return l.resolver.Status()
}

// ListSpreadsheets lists the spreadsheets visible to the resolved credential.
func (l *Loader) ListSpreadsheets(ctx context.Context) ([]SpreadsheetInfo, error) {
	svc, err := l.serviceFor(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	list, err := svc.ListSpreadsheets(ctx)
	if err != nil {
		l.recordRemoteError(ctx, err)
		return nil, err
	}
	if list == nil {
		list = []SpreadsheetInfo{}
	}
	return list, nil
}

// Fetch returns the worksheet as a Raw table. The second result reports a
// cache hit.
func (l *Loader) Fetch(ctx context.Context, spreadsheetID, worksheet string) (*dataset.Raw, bool, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	worksheet = strings.TrimSpace(worksheet)
	if spreadsheetID == "" || worksheet == "" {
		return nil, false, ErrInvalidWorksheet
	}

	key := spreadsheetID + "/" + worksheet
	raw, cached, err := l.cache.GetOrLoad(ctx, key, func(ctx context.Context) (*dataset.Raw, error) {
		return l.fetch(ctx, spreadsheetID, worksheet)
	})
	l.metrics.RecordCacheLookup(ctx, "sheets", cached)
	if err != nil {
		return nil, false, err
	}
	return raw, cached, nil
}

func (l *Loader) fetch(ctx context.Context, spreadsheetID, worksheet string) (*dataset.Raw, error) {
	svc, err := l.serviceFor(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	ctx, span := infrastructure.StartSpan(ctx, "sheets.fetch")
	defer span.End()

	start := time.Now()
	grid, err := svc.FetchValues(ctx, spreadsheetID, worksheet)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		l.recordRemoteError(ctx, err)
		l.logger.WarnContext(ctx, "worksheet fetch failed",
			slog.String("spreadsheet_id", spreadsheetID),
			slog.String("worksheet", worksheet),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	raw, err := dataset.FromGrid(fmt.Sprintf("sheets:%s/%s", spreadsheetID, worksheet), grid)
	if err != nil {
		return nil, err
	}
	raw.Format = dataset.FormatSheets

	l.logger.InfoContext(ctx, "worksheet fetched",
		slog.String("spreadsheet_id", spreadsheetID),
		slog.String("worksheet", worksheet),
		slog.Int("rows", len(raw.Rows)),
		slog.Duration("duration", time.Since(start)),
	)
	return raw, nil
}

// serviceFor builds the client for the resolved credential, reusing it
// while the credential source is unchanged.
func (l *Loader) serviceFor(ctx context.Context) (Service, error) {
	cred, source, err := l.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.service != nil && l.serviceOf == source {
		return l.service, nil
	}
	svc, err := l.factory(ctx, cred)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	l.service = svc
	l.serviceOf = source
	return svc, nil
}

func (l *Loader) dropService() {
	l.mu.Lock()
	l.service = nil
	l.serviceOf = ""
	l.mu.Unlock()
}

func (l *Loader) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, l.timeout)
}

func (l *Loader) recordRemoteError(ctx context.Context, err error) {
	var rerr *RemoteError
	if errors.As(err, &rerr) {
		l.metrics.RecordRemoteError(ctx, rerr.Kind)
	}
}

// Close stops the cache janitor.
func (l *Loader) Close() {
	l.cache.Stop()
}
