package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigmon/internal/dataset"
	"sigmon/internal/session"
	"sigmon/internal/sheets"
	"sigmon/internal/shared/testutil"
	ws "sigmon/internal/websocket"
	"sigmon/pkg/contracts"
)

type staticCredentials struct {
	status sheets.Status
}

func (s staticCredentials) CredentialStatus() sheets.Status { return s.status }

func TestHealthChecks(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := ws.NewHub(logger, nil)
	hub.Start()
	defer hub.Stop()

	sess := session.New(logger)
	creds := staticCredentials{status: sheets.Status{State: sheets.StateUnavailable, Error: "no credential"}}
	hs := NewHealthService(sess, hub, creds, logger)
	ctx := context.Background()

	assert.Equal(t, "ok", hs.HealthCheck(ctx).Status)
	assert.Equal(t, "alive", hs.LivenessCheck(ctx).Status)

	ready := hs.ReadinessCheck(ctx)
	assert.Equal(t, "ready", ready.Status)
	sheetsHealth, ok := ready.Services["sheets"].(ServiceHealth)
	require.True(t, ok)
	assert.Equal(t, "unavailable", sheetsHealth.Status)
	assert.True(t, sheetsHealth.Optional)

	assert.Equal(t, contracts.Version, hs.Version()["version"])
}

func TestReadinessWithoutHub(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	hub := ws.NewHub(logger, nil)
	hs := NewHealthService(session.New(logger), hub, nil, logger)

	ready := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "not_ready", ready.Status)
	assert.True(t, handler.ContainsMessage("readiness check failed"))
}

func TestSystemStats(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	sess := session.New(logger)
	hs := NewHealthService(sess, nil, nil, logger)

	stats := hs.SystemStats(context.Background())
	assert.False(t, stats.DatasetLoaded)
	assert.Zero(t, stats.DatasetRows)

	raw, err := dataset.Parse("drive.csv", []byte(testutil.MeasurementsCSV))
	require.NoError(t, err)
	table, err := dataset.Normalize(raw)
	require.NoError(t, err)
	sess.ReplaceTable(table)
	_, err = sess.SaveConfiguration("baseline")
	require.NoError(t, err)

	stats = hs.SystemStats(context.Background())
	assert.True(t, stats.DatasetLoaded)
	assert.Equal(t, 4, stats.DatasetRows)
	assert.Equal(t, uint64(1), stats.DatasetVersion)
	assert.Equal(t, 1, stats.Configurations)
	assert.Empty(t, stats.CredentialState)
}
