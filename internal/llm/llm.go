// Package llm talks to the text-generation backends that produce reviews.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/yaklabco/docqa/pkg/config"
)

// Backend names used in logs, metrics and health output.
const (
	BackendTGI        = "tgi"
	BackendOpenRouter = "openrouter"
)

// ErrNoBackend is returned when the primary backend is unavailable and no fallback is configured.
var ErrNoBackend = errors.New("no generation backend available")

// Generator produces a completion for a prompt.
type Generator interface {
	// Name identifies the backend.
	Name() string

	// Generate returns the raw model output for prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// Health reports whether the backend is ready to serve requests.
	Health(ctx context.Context) bool
}

// Params are the sampling parameters sent with every request.
type Params struct {
	MaxNewTokens int
	Temperature  float64
	TopP         float64
	Stop         []string
}

// ParamsFromConfig converts generation settings into request parameters.
func ParamsFromConfig(cfg config.GenerationConfig) Params {
	return Params{
		MaxNewTokens: cfg.MaxNewTokens,
		Temperature:  cfg.Temperature,
		TopP:         cfg.TopP,
		Stop:         append([]string(nil), cfg.StopSequences...),
	}
}

// StatusError reports a non-2xx response from a backend.
type StatusError struct {
	Backend    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Backend, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Backend, e.StatusCode, e.Body)
}
