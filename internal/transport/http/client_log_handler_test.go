package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigmon/internal/shared/testutil"
)

func TestClientLogHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedLevel  slog.Level
		expectedMsg    string
	}{
		{
			name:           "error from chart view",
			body:           `{"level":"error","message":"chart failed to load","view":"route"}`,
			expectedStatus: http.StatusOK,
			expectedLevel:  slog.LevelError,
			expectedMsg:    "chart failed to load",
		},
		{
			name:           "unknown level falls back to info",
			body:           `{"level":"fatal","message":"websocket reconnecting"}`,
			expectedStatus: http.StatusOK,
			expectedLevel:  slog.LevelInfo,
			expectedMsg:    "websocket reconnecting",
		},
		{
			name:           "warning alias",
			body:           `{"level":"WARNING","message":"slow render","data":{"ms":1200}}`,
			expectedStatus: http.StatusOK,
			expectedLevel:  slog.LevelWarn,
			expectedMsg:    "slow render",
		},
		{
			name:           "invalid JSON",
			body:           `invalid json`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			handler := NewClientLogHandler(logger)

			req := httptest.NewRequest(http.MethodPost, "/api/log/client", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			handler.Handle(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

			if tt.expectedStatus != http.StatusOK {
				assert.Equal(t, false, response["success"])
				return
			}
			assert.Equal(t, true, response["success"])
			testutil.AssertLogContains(t, logs, tt.expectedLevel, tt.expectedMsg)
			assert.True(t, logs.ContainsAttr("source", "browser"))
		})
	}
}
