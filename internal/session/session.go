package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"sigmon/internal/pipeline"
	"sigmon/pkg/contracts/domain"
)

var (
	// ErrConfigurationNotFound is returned when a named configuration does not exist.
	ErrConfigurationNotFound = errors.New("configuration not found")
	// ErrInvalidName is returned for blank configuration names.
	ErrInvalidName = errors.New("configuration name must not be blank")
)

// Session is the process-wide application state: the loaded table, the live
// selection and the named configuration store. The table is replaced
// wholesale on every load and never modified in place.
type Session struct {
	mu             sync.RWMutex
	table          *domain.Table
	selection      domain.Selection
	configurations map[string]domain.Configuration
	version        uint64

	logger *slog.Logger
	now    func() time.Time
}

// New creates an empty session.
func New(logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		selection:      pipeline.DefaultSelection(nil),
		configurations: make(map[string]domain.Configuration),
		logger:         logger.With(slog.String("component", "session")),
		now:            time.Now,
	}
}

// ReplaceTable installs t as the current table and resets the live selection
// to the defaults derived from it. Stored configurations are kept.
func (s *Session) ReplaceTable(t *domain.Table) domain.Selection {
	sel := pipeline.DefaultSelection(t)

	s.mu.Lock()
	s.table = t
	s.selection = sel
	s.version++
	s.mu.Unlock()

	attrs := []any{slog.Bool("halted", t != nil && t.Halted)}
	if t != nil {
		attrs = append(attrs, slog.String("source", t.Source), slog.Int("rows", t.Len()))
	}
	s.logger.Info("table replaced", attrs...)
	return sel.Clone()
}

// Table returns the current table, or nil when nothing has been loaded.
func (s *Session) Table() *domain.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// HasTable reports whether a table has been loaded.
func (s *Session) HasTable() bool {
	return s.Table() != nil
}

// Version increases every time the table is replaced.
func (s *Session) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Selection returns a copy of the live selection.
func (s *Session) Selection() domain.Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection.Clone()
}

// SetSelection replaces the live selection.
func (s *Session) SetSelection(sel domain.Selection) {
	s.mu.Lock()
	s.selection = sel.Clone()
	s.mu.Unlock()
}

// Snapshot returns the table and selection as seen under a single lock.
func (s *Session) Snapshot() (*domain.Table, domain.Selection) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table, s.selection.Clone()
}

// SaveConfiguration stores the live selection under name, overwriting any
// configuration with the same name.
func (s *Session) SaveConfiguration(name string) (domain.Configuration, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Configuration{}, ErrInvalidName
	}

	s.mu.Lock()
	_, replaced := s.configurations[name]
	cfg := domain.Configuration{
		Name:      name,
		Selection: s.selection.Clone(),
		SavedAt:   s.now(),
	}
	s.configurations[name] = cfg
	s.mu.Unlock()

	s.logger.Info("configuration saved",
		slog.String("name", name),
		slog.Bool("replaced", replaced))
	return copyConfiguration(cfg), nil
}

// LoadConfiguration makes the named configuration the live selection and
// returns it.
func (s *Session) LoadConfiguration(name string) (domain.Selection, error) {
	name = strings.TrimSpace(name)

	s.mu.Lock()
	cfg, ok := s.configurations[name]
	if ok {
		s.selection = cfg.Selection.Clone()
	}
	s.mu.Unlock()

	if !ok {
		return domain.Selection{}, fmt.Errorf("%w: %q", ErrConfigurationNotFound, name)
	}
	s.logger.Info("configuration applied", slog.String("name", name))
	return cfg.Selection.Clone(), nil
}

// GetConfiguration returns the named configuration without applying it.
func (s *Session) GetConfiguration(name string) (domain.Configuration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configurations[strings.TrimSpace(name)]
	if !ok {
		return domain.Configuration{}, fmt.Errorf("%w: %q", ErrConfigurationNotFound, name)
	}
	return copyConfiguration(cfg), nil
}

// ListConfigurations returns every stored configuration sorted by name.
func (s *Session) ListConfigurations() []domain.Configuration {
	s.mu.RLock()
	out := make([]domain.Configuration, 0, len(s.configurations))
	for _, cfg := range s.configurations {
		out = append(out, copyConfiguration(cfg))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DeleteConfiguration removes the named configuration.
func (s *Session) DeleteConfiguration(name string) error {
	name = strings.TrimSpace(name)

	s.mu.Lock()
	_, ok := s.configurations[name]
	delete(s.configurations, name)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %q", ErrConfigurationNotFound, name)
	}
	s.logger.Info("configuration deleted", slog.String("name", name))
	return nil
}

func copyConfiguration(c domain.Configuration) domain.Configuration {
	c.Selection = c.Selection.Clone()
	return c
}
