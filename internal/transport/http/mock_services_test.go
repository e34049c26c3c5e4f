package http

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"sigmon/internal/services"
	"sigmon/internal/sheets"
	"sigmon/pkg/contracts/domain"
)

// mockService implements DatasetService, DashboardService and
// ConfigurationService.
type mockService struct {
	mock.Mock
}

func (m *mockService) LoadUpload(ctx context.Context, name string, data []byte) (*services.LoadResult, error) {
	args := m.Called(ctx, name, data)
	res, _ := args.Get(0).(*services.LoadResult)
	return res, args.Error(1)
}

func (m *mockService) LoadSheet(ctx context.Context, spreadsheetID, worksheet string) (*services.LoadResult, error) {
	args := m.Called(ctx, spreadsheetID, worksheet)
	res, _ := args.Get(0).(*services.LoadResult)
	return res, args.Error(1)
}

func (m *mockService) ListSpreadsheets(ctx context.Context) ([]sheets.SpreadsheetInfo, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]sheets.SpreadsheetInfo)
	return list, args.Error(1)
}

func (m *mockService) RegisterCredential(ctx context.Context, data []byte) (sheets.Status, error) {
	args := m.Called(ctx, data)
	return args.Get(0).(sheets.Status), args.Error(1)
}

func (m *mockService) CredentialStatus() sheets.Status {
	return m.Called().Get(0).(sheets.Status)
}

func (m *mockService) Dataset() (*domain.Table, error) {
	args := m.Called()
	t, _ := args.Get(0).(*domain.Table)
	return t, args.Error(1)
}

func (m *mockService) Options(ctx context.Context) (domain.Options, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Options), args.Error(1)
}

func (m *mockService) Selection() domain.Selection {
	return m.Called().Get(0).(domain.Selection)
}

func (m *mockService) SetSelection(ctx context.Context, sel domain.Selection) domain.Selection {
	return m.Called(ctx, sel).Get(0).(domain.Selection)
}

func (m *mockService) Render(ctx context.Context) (*domain.RenderModel, error) {
	args := m.Called(ctx)
	model, _ := args.Get(0).(*domain.RenderModel)
	return model, args.Error(1)
}

func (m *mockService) ChartPNG(ctx context.Context, mode domain.Mode) ([]byte, error) {
	args := m.Called(ctx, mode)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *mockService) Map(ctx context.Context) (domain.MapModel, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.MapModel), args.Error(1)
}

func (m *mockService) ComparisonXLSX(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *mockService) LongRowsCSV(ctx context.Context, w io.Writer) (int, error) {
	args := m.Called(ctx, w)
	if s, ok := args.Get(0).(string); ok {
		_, _ = io.WriteString(w, s)
	}
	return args.Int(1), args.Error(2)
}

func (m *mockService) SaveConfiguration(ctx context.Context, name string) (domain.Configuration, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(domain.Configuration), args.Error(1)
}

func (m *mockService) LoadConfiguration(ctx context.Context, name string) (domain.Selection, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(domain.Selection), args.Error(1)
}

func (m *mockService) ListConfigurations() []domain.Configuration {
	return m.Called().Get(0).([]domain.Configuration)
}

func (m *mockService) DeleteConfiguration(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}
