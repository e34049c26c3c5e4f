package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		yaml        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env and no file",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 5*time.Minute, cfg.Sheets.CacheTTL)
				assert.Equal(t, "credentials.json", cfg.Sheets.CredentialsFile)
				assert.Equal(t, int64(32<<20), cfg.Dataset.MaxUploadBytes)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, []string{"http://localhost:8080"}, cfg.Security.AllowedOrigins)
			},
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"SIGMON_SERVER_PORT":      "9090",
				"SIGMON_SHEETS_CACHE_TTL": "90s",
				"SIGMON_LOGGING_LEVEL":    "debug",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 90*time.Second, cfg.Sheets.CacheTTL)
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name: "yaml file applies where env is silent",
			yaml: "server:\n  port: 7000\nsheets:\n  cache_ttl: 2m\n  credentials_file: /etc/sigmon/key.json\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7000, cfg.Server.Port)
				assert.Equal(t, 2*time.Minute, cfg.Sheets.CacheTTL)
				assert.Equal(t, "/etc/sigmon/key.json", cfg.GetCredentialsFile())
			},
		},
		{
			name: "env wins over yaml",
			env:  map[string]string{"SIGMON_SERVER_PORT": "9191"},
			yaml: "server:\n  port: 7000\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9191, cfg.Server.Port)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"SIGMON_SERVER_PORT": "70000"},
			wantErr: true,
		},
		{
			name:    "unparseable duration",
			env:     map[string]string{"SIGMON_SHEETS_CACHE_TTL": "soon"},
			wantErr: true,
		},
		{
			name: "unknown log output falls back to console",
			env:  map[string]string{"SIGMON_LOGGING_OUTPUT": "syslog"},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "console", cfg.Logging.Output)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			t.Setenv("SIGMON_PATHS_EXECUTABLE_DIR", t.TempDir())

			file := ""
			if tt.yaml != "" {
				file = filepath.Join(t.TempDir(), "config.yaml")
				require.NoError(t, os.WriteFile(file, []byte(tt.yaml), 0644))
			}

			cfg, err := LoadFrom(file)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestResolveRelativePaths(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.ExecutableDir = base

	assert.Equal(t, filepath.Join(base, "data"), cfg.GetDataDir())
	assert.Equal(t, filepath.Join(base, "logs"), cfg.GetLogsDir())
	assert.Equal(t, filepath.Join(base, "credentials.json"), cfg.GetCredentialsFile())
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.validate())
}

func TestPathsFor(t *testing.T) {
	base := t.TempDir()
	p := PathsFor(base)

	require.NoError(t, p.EnsureDirectories())
	assert.DirExists(t, p.DataDir)
	assert.DirExists(t, p.ExportsDir)
	assert.DirExists(t, p.LogsDir)
	assert.Equal(t, filepath.Join(base, "credentials.json"), p.CredentialsFile)

	assert.False(t, FileExists(p.CredentialsFile))
	require.NoError(t, os.WriteFile(p.CredentialsFile, []byte("{}"), 0600))
	assert.True(t, FileExists(p.CredentialsFile))
	assert.False(t, FileExists(p.DataDir))
}
