package llm

import (
	"context"
	"fmt"

	"github.com/yaklabco/docqa/internal/logging"
	"github.com/yaklabco/docqa/pkg/config"
)

// Generation is a completion and the backend that produced it.
type Generation struct {
	Text    string
	Backend string
}

// Router prefers the primary backend and falls back when it is unhealthy or fails.
type Router struct {
	primary  Generator
	fallback Generator
}

// NewRouter creates a router. Either generator may be nil.
func NewRouter(primary, fallback Generator) *Router {
	return &Router{primary: primary, fallback: fallback}
}

// NewRouterFromConfig builds the TGI primary and, when an API key is set, the OpenRouter fallback.
func NewRouterFromConfig(cfg *config.Config) *Router {
	params := ParamsFromConfig(cfg.Generation)
	primary := NewTGIClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, params)

	var fallback Generator
	if cfg.Fallback.Enabled() {
		fallback = NewOpenRouterClient(cfg.Fallback.BaseURL, cfg.Fallback.APIKey, cfg.Fallback.Model,
			cfg.Fallback.Timeout, params)
	}
	return NewRouter(primary, fallback)
}

// HasFallback reports whether a fallback backend is configured.
func (r *Router) HasFallback() bool {
	return r.fallback != nil
}

// PrimaryHealthy reports whether the primary backend is healthy.
func (r *Router) PrimaryHealthy(ctx context.Context) bool {
	return r.primary != nil && r.primary.Health(ctx)
}

// Generate runs prompt on the primary backend when primaryHealthy is true,
// falling back on error. An unhealthy primary goes straight to the fallback.
func (r *Router) Generate(ctx context.Context, prompt string, primaryHealthy bool) (Generation, error) {
	logger := logging.FromContext(ctx)

	var primaryErr error
	if primaryHealthy && r.primary != nil {
		text, err := r.primary.Generate(ctx, prompt)
		if err == nil {
			return Generation{Text: text, Backend: r.primary.Name()}, nil
		}
		if ctx.Err() != nil {
			return Generation{}, fmt.Errorf("%s: %w", r.primary.Name(), err)
		}
		primaryErr = err
		logger.Warn("primary backend failed", append(backendFields(r.primary), logging.FieldError, err)...)
	}

	if r.fallback == nil {
		if primaryErr != nil {
			return Generation{}, fmt.Errorf("%w: %w", ErrNoBackend, primaryErr)
		}
		return Generation{}, fmt.Errorf("%w: primary backend is not healthy and no fallback is configured", ErrNoBackend)
	}

	logger.Debug("using fallback backend", backendFields(r.fallback)...)
	text, err := r.fallback.Generate(ctx, prompt)
	if err != nil {
		return Generation{}, fmt.Errorf("%s: %w", r.fallback.Name(), err)
	}
	return Generation{Text: text, Backend: r.fallback.Name()}, nil
}

// backendFields returns log keyvals identifying g, including its model and
// address when the client exposes them.
func backendFields(g Generator) []any {
	keyvals := []any{logging.FieldBackend, g.Name()}
	if m, ok := g.(interface{ Model() string }); ok {
		keyvals = append(keyvals, logging.FieldModel, m.Model())
	}
	if u, ok := g.(interface{ BaseURL() string }); ok {
		keyvals = append(keyvals, logging.FieldAddr, u.BaseURL())
	}
	return keyvals
}
