package sheets

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	// ErrCredentialUnavailable is returned when every provider is absent.
	ErrCredentialUnavailable = errors.New("no spreadsheet credential available")
	// ErrCredentialAbsent is returned by a provider that has nothing to offer;
	// the resolver moves on to the next provider.
	ErrCredentialAbsent = errors.New("credential absent")
	// ErrInvalidCredential marks a credential that is present but unusable.
	ErrInvalidCredential = errors.New("invalid service account credential")
)

// MaxCredentialSize bounds an uploaded or configured key file.
const MaxCredentialSize = 64 * 1024

// serviceAccountKey holds the fields checked before a key is handed to the
// Google client.
type serviceAccountKey struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// ValidateCredential checks that data is a service account JSON key and
// returns its client email.
func ValidateCredential(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty", ErrInvalidCredential)
	}
	if len(data) > MaxCredentialSize {
		return "", fmt.Errorf("%w: larger than %d bytes", ErrInvalidCredential, MaxCredentialSize)
	}
	var key serviceAccountKey
	if err := json.Unmarshal(data, &key); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if key.Type != "service_account" {
		return "", fmt.Errorf("%w: type %q is not service_account", ErrInvalidCredential, key.Type)
	}
	if key.ClientEmail == "" || key.PrivateKey == "" {
		return "", fmt.Errorf("%w: client_email and private_key are required", ErrInvalidCredential)
	}
	return key.ClientEmail, nil
}

// Provider is one source in the credential chain.
type Provider interface {
	Name() string
	// Credential returns the key bytes, or ErrCredentialAbsent.
	Credential(ctx context.Context) ([]byte, error)
}

// SecretProvider reads a key from a deployment secret, given either as raw
// JSON or base64-encoded JSON.
type SecretProvider struct {
	Value string
}

func (p SecretProvider) Name() string { return "secret" }

func (p SecretProvider) Credential(_ context.Context) ([]byte, error) {
	v := strings.TrimSpace(p.Value)
	if v == "" {
		return nil, ErrCredentialAbsent
	}
	if strings.HasPrefix(v, "{") {
		return []byte(v), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("%w: secret is neither JSON nor base64: %v", ErrInvalidCredential, err)
	}
	return decoded, nil
}

// FileProvider reads a key file from disk.
type FileProvider struct {
	Path string
}

func (p FileProvider) Name() string { return "file" }

func (p FileProvider) Credential(_ context.Context) ([]byte, error) {
	if p.Path == "" {
		return nil, ErrCredentialAbsent
	}
	data, err := os.ReadFile(p.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrCredentialAbsent
	}
	if err != nil {
		return nil, fmt.Errorf("read credential file: %w", err)
	}
	return data, nil
}

// UploadProvider holds a key posted by the user for the life of the process.
type UploadProvider struct {
	mu   sync.RWMutex
	data []byte
}

func (p *UploadProvider) Name() string { return "upload" }

func (p *UploadProvider) Credential(_ context.Context) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.data) == 0 {
		return nil, ErrCredentialAbsent
	}
	return append([]byte(nil), p.data...), nil
}

// Set validates and stores an uploaded key.
func (p *UploadProvider) Set(data []byte) (string, error) {
	email, err := ValidateCredential(data)
	if err != nil {
		return "", err
	}
	p.mu.Lock()
	p.data = append([]byte(nil), data...)
	p.mu.Unlock()
	return email, nil
}

// Clear forgets the uploaded key.
func (p *UploadProvider) Clear() {
	p.mu.Lock()
	p.data = nil
	p.mu.Unlock()
}

// ResolverState is the credential resolution state.
type ResolverState string

const (
	StateUnresolved  ResolverState = "unresolved"
	StateResolved    ResolverState = "resolved"
	StateUnavailable ResolverState = "unavailable"
)

// Status describes the resolver for the UI.
type Status struct {
	State       ResolverState `json:"state"`
	Source      string        `json:"source,omitempty"`
	ClientEmail string        `json:"client_email,omitempty"`
	Providers   []string      `json:"providers"`
	ResolvedAt  time.Time     `json:"resolved_at,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// Resolver walks the provider chain in order and remembers the first
// credential found. An absent provider passes to the next one; a present but
// invalid credential stops the walk.
type Resolver struct {
	providers []Provider
	logger    *slog.Logger

	mu         sync.Mutex
	state      ResolverState
	source     string
	email      string
	credential []byte
	resolvedAt time.Time
	lastErr    error
}

// NewResolver creates a resolver over providers, tried in the given order.
func NewResolver(logger *slog.Logger, providers ...Provider) *Resolver {
	return &Resolver{
		providers: providers,
		logger:    logger.With(slog.String("component", "credential_resolver")),
		state:     StateUnresolved,
	}
}

// Resolve returns the credential and the name of the provider that supplied
// it. A resolved credential is reused until Reset.
func (r *Resolver) Resolve(ctx context.Context) ([]byte, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateResolved {
		return r.credential, r.source, nil
	}

	for _, p := range r.providers {
		data, err := p.Credential(ctx)
		if errors.Is(err, ErrCredentialAbsent) {
			r.logger.DebugContext(ctx, "credential provider absent", slog.String("provider", p.Name()))
			continue
		}
		if err == nil {
			var email string
			email, err = ValidateCredential(data)
			if err == nil {
				r.state = StateResolved
				r.source = p.Name()
				r.email = email
				r.credential = data
				r.resolvedAt = time.Now()
				r.lastErr = nil
				r.logger.InfoContext(ctx, "credential resolved",
					slog.String("provider", p.Name()),
					slog.String("client_email", email),
				)
				return data, p.Name(), nil
			}
		}

		r.state = StateUnavailable
		r.lastErr = fmt.Errorf("%s provider: %w", p.Name(), err)
		r.logger.WarnContext(ctx, "credential provider failed",
			slog.String("provider", p.Name()),
			slog.String("error", err.Error()),
		)
		return nil, "", r.lastErr
	}

	r.state = StateUnavailable
	r.lastErr = ErrCredentialUnavailable
	return nil, "", ErrCredentialUnavailable
}

// Reset returns the resolver to Unresolved so the chain is walked again,
// for example after a new key is uploaded.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateUnresolved
	r.source = ""
	r.email = ""
	r.credential = nil
	r.resolvedAt = time.Time{}
	r.lastErr = nil
}

// Status reports the current state without resolving.
func (r *Resolver) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, p.Name())
	}
	s := Status{
		State:       r.state,
		Source:      r.source,
		ClientEmail: r.email,
		Providers:   names,
		ResolvedAt:  r.resolvedAt,
	}
	if r.lastErr != nil {
		s.Error = r.lastErr.Error()
	}
	return s
}
