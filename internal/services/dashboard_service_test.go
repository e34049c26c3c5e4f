package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sigmon/internal/dataset"
	"sigmon/internal/session"
	"sigmon/internal/sheets"
	"sigmon/internal/shared/testutil"
	ws "sigmon/internal/websocket"
	"sigmon/pkg/contracts/domain"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, eventType string, data interface{}) {
	m.Called(ctx, eventType, data)
}

type mockRemote struct {
	mock.Mock
}

func (m *mockRemote) Fetch(ctx context.Context, spreadsheetID, worksheet string) (*dataset.Raw, bool, error) {
	args := m.Called(ctx, spreadsheetID, worksheet)
	raw, _ := args.Get(0).(*dataset.Raw)
	return raw, args.Bool(1), args.Error(2)
}

func (m *mockRemote) ListSpreadsheets(ctx context.Context) ([]sheets.SpreadsheetInfo, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]sheets.SpreadsheetInfo)
	return list, args.Error(1)
}

func (m *mockRemote) RegisterCredential(ctx context.Context, data []byte) (sheets.Status, error) {
	args := m.Called(ctx, data)
	return args.Get(0).(sheets.Status), args.Error(1)
}

func (m *mockRemote) CredentialStatus() sheets.Status {
	return m.Called().Get(0).(sheets.Status)
}

func newService(t *testing.T, remote RemoteLoader) (*DashboardService, *mockPublisher) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return()
	svc := NewDashboardService(DashboardConfig{
		Session:   session.New(logger),
		Remote:    remote,
		Publisher: pub,
		Logger:    logger,
	})
	t.Cleanup(svc.Close)
	return svc, pub
}

func loadMeasurements(t *testing.T, svc *DashboardService) *LoadResult {
	t.Helper()
	res, err := svc.LoadUpload(context.Background(), "drive.csv", []byte(testutil.MeasurementsCSV))
	require.NoError(t, err)
	return res
}

func TestLoadUpload(t *testing.T) {
	svc, pub := newService(t, nil)

	res := loadMeasurements(t, svc)
	assert.Equal(t, "drive.csv", res.Source)
	assert.Equal(t, dataset.FormatCSV, res.Format)
	assert.Equal(t, 4, res.Rows)
	assert.False(t, res.Halted)
	assert.False(t, res.Cached)
	assert.Equal(t, []domain.Operator{domain.OperatorTelkomsel, domain.OperatorIOH, domain.OperatorXL}, res.Operators)
	assert.Equal(t, domain.AllMonths, res.Selection.Month)

	again := loadMeasurements(t, svc)
	assert.True(t, again.Cached)
	assert.Equal(t, 4, again.Rows)

	pub.AssertNumberOfCalls(t, "Publish", 2)
	pub.AssertCalled(t, "Publish", mock.Anything, ws.EventDatasetLoaded, mock.Anything)

	table, err := svc.Dataset()
	require.NoError(t, err)
	assert.Equal(t, 4, table.Len())
}

func TestLoadUploadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		data    string
		limit   int64
		wantErr error
	}{
		{name: "too large", file: "a.csv", data: testutil.MeasurementsCSV, limit: 10, wantErr: ErrUploadTooLarge},
		{name: "unsupported extension", file: "a.pdf", data: "%PDF-1.4", wantErr: dataset.ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			svc := NewDashboardService(DashboardConfig{Logger: logger, MaxUploadBytes: tt.limit})
			defer svc.Close()

			_, err := svc.LoadUpload(context.Background(), tt.file, []byte(tt.data))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, svc.Session().HasTable())
		})
	}
}

func TestLoadUploadMissingColumnHalts(t *testing.T) {
	svc, _ := newService(t, nil)

	res, err := svc.LoadUpload(context.Background(), "nodate.csv", []byte(testutil.NoDateCSV))
	require.NoError(t, err)
	assert.True(t, res.Halted)
	require.NotEmpty(t, res.Warnings)
	assert.Equal(t, dataset.WarnMissingColumn, res.Warnings[0].Code)

	model, err := svc.Render(context.Background())
	require.NoError(t, err)
	assert.True(t, model.Halted)
}

func TestLoadSheet(t *testing.T) {
	raw, err := dataset.Parse("regional.csv", []byte(testutil.NoRegionCSV))
	require.NoError(t, err)

	remote := &mockRemote{}
	remote.On("Fetch", mock.Anything, "sheet-1", "Data").Return(raw, false, nil)
	svc, pub := newService(t, remote)

	res, err := svc.LoadSheet(context.Background(), "sheet-1", "Data")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Rows)
	assert.Empty(t, res.Selection.Regions)
	remote.AssertExpectations(t)
	pub.AssertCalled(t, "Publish", mock.Anything, ws.EventDatasetLoaded, mock.Anything)
}

func TestLoadSheetFailureKeepsTable(t *testing.T) {
	remote := &mockRemote{}
	remoteErr := &sheets.RemoteError{Kind: sheets.KindNetwork, Op: "get values", Err: errors.New("connection reset")}
	remote.On("Fetch", mock.Anything, "sheet-1", "Data").Return(nil, false, remoteErr)
	svc, _ := newService(t, remote)

	loadMeasurements(t, svc)
	version := svc.Session().Version()

	_, err := svc.LoadSheet(context.Background(), "sheet-1", "Data")
	var target *sheets.RemoteError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, sheets.KindNetwork, target.Kind)

	assert.Equal(t, version, svc.Session().Version())
	table, err := svc.Dataset()
	require.NoError(t, err)
	assert.Equal(t, "drive.csv", table.Source)
}

func TestRemoteDisabled(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	_, err := svc.LoadSheet(ctx, "sheet-1", "Data")
	assert.ErrorIs(t, err, ErrRemoteDisabled)
	_, err = svc.ListSpreadsheets(ctx)
	assert.ErrorIs(t, err, ErrRemoteDisabled)
	_, err = svc.RegisterCredential(ctx, []byte("{}"))
	assert.ErrorIs(t, err, ErrRemoteDisabled)

	assert.Equal(t, sheets.StateUnavailable, svc.CredentialStatus().State)
}

func TestRegisterCredentialPublishes(t *testing.T) {
	remote := &mockRemote{}
	status := sheets.Status{State: sheets.StateResolved, Source: "upload"}
	remote.On("RegisterCredential", mock.Anything, []byte(`{"type":"service_account"}`)).Return(status, nil)
	svc, pub := newService(t, remote)

	got, err := svc.RegisterCredential(context.Background(), []byte(`{"type":"service_account"}`))
	require.NoError(t, err)
	assert.Equal(t, status, got)
	pub.AssertCalled(t, "Publish", mock.Anything, ws.EventCredentialChanged, mock.Anything)
}

func TestNoDataset(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	_, err := svc.Dataset()
	assert.ErrorIs(t, err, ErrNoDataset)
	_, err = svc.Options(ctx)
	assert.ErrorIs(t, err, ErrNoDataset)
	_, err = svc.Render(ctx)
	assert.ErrorIs(t, err, ErrNoDataset)
	_, err = svc.ComparisonXLSX(ctx)
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestRenderAndArtifacts(t *testing.T) {
	svc, _ := newService(t, nil)
	loadMeasurements(t, svc)
	ctx := context.Background()

	model, err := svc.Render(ctx)
	require.NoError(t, err)
	route := model.ModeResult(domain.ModeRoute)
	require.NotNil(t, route)
	assert.Equal(t, domain.StatusOK, route.Status)
	assert.Len(t, route.Rows, 6)
	assert.NotEmpty(t, model.Map.Markers)

	png, err := svc.ChartPNG(ctx, domain.ModeRoute)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	_, err = svc.ChartPNG(ctx, domain.Mode("Walk Test"))
	assert.ErrorIs(t, err, ErrUnknownMode)

	xlsx, err := svc.ComparisonXLSX(ctx)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(xlsx, []byte("PK")))

	var buf bytes.Buffer
	n, err := svc.LongRowsCSV(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.True(t, strings.Contains(buf.String(), "SiteB"))
}

func TestChartPNGNoData(t *testing.T) {
	svc, _ := newService(t, nil)
	loadMeasurements(t, svc)
	ctx := context.Background()

	sel := svc.Selection()
	sel = sel.WithMode(domain.ModeRoute, domain.ModeSelection{Locations: []string{}, Parameter: "Throughput"})
	svc.SetSelection(ctx, sel)

	_, err := svc.ChartPNG(ctx, domain.ModeRoute)
	assert.ErrorIs(t, err, ErrNoChart)
}

func TestSetSelectionPublishes(t *testing.T) {
	svc, pub := newService(t, nil)
	loadMeasurements(t, svc)

	sel := svc.Selection()
	sel.Month = "January 2025"
	sel.CoordinateFormat = ""
	got := svc.SetSelection(context.Background(), sel)

	assert.Equal(t, domain.CoordinateDecimal, got.CoordinateFormat)
	assert.Equal(t, "January 2025", svc.Selection().Month)
	pub.AssertCalled(t, "Publish", mock.Anything, ws.EventSelectionChanged, mock.Anything)
}

func TestConfigurationLifecycle(t *testing.T) {
	svc, pub := newService(t, nil)
	loadMeasurements(t, svc)
	ctx := context.Background()

	saved, err := svc.SaveConfiguration(ctx, " weekly ")
	require.NoError(t, err)
	assert.Equal(t, "weekly", saved.Name)
	pub.AssertCalled(t, "Publish", mock.Anything, ws.EventConfigurationSaved, map[string]string{"name": "weekly"})

	sel := svc.Selection()
	sel.ShowCoordinates = false
	svc.SetSelection(ctx, sel)

	restored, err := svc.LoadConfiguration(ctx, "weekly")
	require.NoError(t, err)
	assert.True(t, restored.ShowCoordinates)
	assert.True(t, svc.Selection().ShowCoordinates)

	require.Len(t, svc.ListConfigurations(), 1)

	require.NoError(t, svc.DeleteConfiguration(ctx, "weekly"))
	pub.AssertCalled(t, "Publish", mock.Anything, ws.EventConfigurationDeleted, map[string]string{"name": "weekly"})
	assert.Empty(t, svc.ListConfigurations())

	_, err = svc.LoadConfiguration(ctx, "weekly")
	assert.ErrorIs(t, err, session.ErrConfigurationNotFound)
	assert.ErrorIs(t, svc.DeleteConfiguration(ctx, "weekly"), session.ErrConfigurationNotFound)

	_, err = svc.SaveConfiguration(ctx, "  ")
	assert.ErrorIs(t, err, session.ErrInvalidName)
}
