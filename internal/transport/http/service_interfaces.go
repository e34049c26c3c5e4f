package http

import (
	"context"
	"io"

	"sigmon/internal/services"
	"sigmon/internal/sheets"
	"sigmon/pkg/contracts/domain"
)

// DatasetService defines the loading operations used by DatasetHandler
type DatasetService interface {
	LoadUpload(ctx context.Context, name string, data []byte) (*services.LoadResult, error)
	LoadSheet(ctx context.Context, spreadsheetID, worksheet string) (*services.LoadResult, error)
	ListSpreadsheets(ctx context.Context) ([]sheets.SpreadsheetInfo, error)
	RegisterCredential(ctx context.Context, data []byte) (sheets.Status, error)
	CredentialStatus() sheets.Status
	Dataset() (*domain.Table, error)
}

// DashboardService defines the render operations used by DashboardHandler
type DashboardService interface {
	Options(ctx context.Context) (domain.Options, error)
	Selection() domain.Selection
	SetSelection(ctx context.Context, sel domain.Selection) domain.Selection
	Render(ctx context.Context) (*domain.RenderModel, error)
	ChartPNG(ctx context.Context, mode domain.Mode) ([]byte, error)
	Map(ctx context.Context) (domain.MapModel, error)
	ComparisonXLSX(ctx context.Context) ([]byte, error)
	LongRowsCSV(ctx context.Context, w io.Writer) (int, error)
}

// ConfigurationService defines the configuration store used by ConfigurationHandler
type ConfigurationService interface {
	SaveConfiguration(ctx context.Context, name string) (domain.Configuration, error)
	LoadConfiguration(ctx context.Context, name string) (domain.Selection, error)
	ListConfigurations() []domain.Configuration
	DeleteConfiguration(ctx context.Context, name string) error
}
