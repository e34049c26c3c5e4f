package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the application paths resolved against the executable.
type Paths struct {
	ExecutableDir   string
	DataDir         string
	ExportsDir      string
	LogsDir         string
	WebDir          string
	CredentialsFile string
}

// GetPaths returns the application paths relative to the executable location.
// Paths never depend on the current working directory.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return PathsFor(filepath.Dir(exe)), nil
}

// PathsFor lays out the standard directory structure under base:
//
//	base/
//	  credentials.json
//	  data/
//	    exports/   (chart PNGs and comparison workbooks)
//	  logs/
//	  web/
func PathsFor(base string) *Paths {
	dataDir := filepath.Join(base, DefaultDataDir)
	return &Paths{
		ExecutableDir:   base,
		DataDir:         dataDir,
		ExportsDir:      filepath.Join(dataDir, "exports"),
		LogsDir:         filepath.Join(base, DefaultLogsDir),
		WebDir:          filepath.Join(base, DefaultWebDir),
		CredentialsFile: filepath.Join(base, DefaultCredentialsFile),
	}
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.ExportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LogPathResolution logs the resolved paths at debug level
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	logger.Debug("resolved application paths",
		slog.String("executable_dir", p.ExecutableDir),
		slog.String("data_dir", p.DataDir),
		slog.String("exports_dir", p.ExportsDir),
		slog.String("logs_dir", p.LogsDir),
		slog.String("credentials_file", p.CredentialsFile))
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
