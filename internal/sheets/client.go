package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// spreadsheetMimeType selects native Google Sheets files in Drive queries.
const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// Remote error kinds.
const (
	KindAuth     = "auth"
	KindNotFound = "not_found"
	KindNetwork  = "network"
)

// RemoteError wraps a spreadsheet service failure with a coarse kind.
type RemoteError struct {
	Kind string
	Op   string
	Err  error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("sheets %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// classify maps a client error to a RemoteError kind.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	kind := KindNetwork
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = KindAuth
		case http.StatusNotFound:
			kind = KindNotFound
		case http.StatusBadRequest:
			// Unknown worksheet names come back as 400 "Unable to parse range".
			kind = KindNotFound
		}
	}
	return &RemoteError{Kind: kind, Op: op, Err: err}
}

// SpreadsheetInfo identifies an accessible spreadsheet.
type SpreadsheetInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Service is the subset of the Google APIs the loader needs.
type Service interface {
	ListSpreadsheets(ctx context.Context) ([]SpreadsheetInfo, error)
	// FetchValues returns every row of the worksheet, header first.
	FetchValues(ctx context.Context, spreadsheetID, worksheet string) ([][]string, error)
}

// ServiceFactory builds a Service from a service account key.
type ServiceFactory func(ctx context.Context, credential []byte) (Service, error)

type googleService struct {
	sheets *gsheets.Service
	drive  *drive.Service
}

// NewGoogleService authenticates with the spreadsheet and read-only Drive scopes.
func NewGoogleService(ctx context.Context, credential []byte) (Service, error) {
	opts := []option.ClientOption{
		option.WithCredentialsJSON(credential),
		option.WithScopes(gsheets.SpreadsheetsScope, drive.DriveReadonlyScope),
	}

	sheetsService, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	driveService, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &googleService{sheets: sheetsService, drive: driveService}, nil
}

func (g *googleService) ListSpreadsheets(ctx context.Context) ([]SpreadsheetInfo, error) {
	var out []SpreadsheetInfo
	call := g.drive.Files.List().
		Q(fmt.Sprintf("mimeType='%s' and trashed=false", spreadsheetMimeType)).
		Fields("nextPageToken, files(id, name)").
		OrderBy("name").
		PageSize(100)

	err := call.Pages(ctx, func(page *drive.FileList) error {
		for _, f := range page.Files {
			out = append(out, SpreadsheetInfo{ID: f.Id, Name: f.Name})
		}
		return nil
	})
	if err != nil {
		return nil, classify("list", err)
	}
	return out, nil
}

func (g *googleService) FetchValues(ctx context.Context, spreadsheetID, worksheet string) ([][]string, error) {
	resp, err := g.sheets.Spreadsheets.Values.Get(spreadsheetID, worksheet).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify("fetch", err)
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = cellString(v)
		}
		rows[i] = cells
	}
	return rows, nil
}

// cellString renders an unformatted cell value. Numbers keep full precision
// without exponent notation so dates survive as serial day numbers.
func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
