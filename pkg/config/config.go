// Package config defines the configuration types for docqa.
// These types are pure data structures; loading and validation live in
// internal/configloader.
package config

import "time"

// OutputFormat specifies how the CLI renders results.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatDiff OutputFormat = "diff"
)

// IsValid returns true if the output format is known.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatText, FormatJSON, FormatDiff:
		return true
	default:
		return false
	}
}

// Default values, matching the original service settings.
const (
	DefaultBackendURL             = "http://tgi:80"
	DefaultBackendTimeout         = 60 * time.Second
	DefaultFallbackURL            = "https://openrouter.ai/api/v1"
	DefaultFallbackModel          = "openrouter/auto"
	DefaultMaxNewTokens           = 2048
	DefaultTemperature            = 0.0
	DefaultTopP                   = 0.9
	DefaultStopSequence           = "</json>"
	DefaultRetriesOnMalformed     = 1
	DefaultCodeEditThresholdRatio = 0.15
	DefaultLinterLanguage         = "en-US"
	DefaultHost                   = "0.0.0.0"
	DefaultPort                   = 8000
	DefaultRedirectURL            = "https://docs-qa.dev"
	DefaultShutdownTimeout        = 10 * time.Second
	DefaultReadHeaderTimeout      = 5 * time.Second
	DefaultMaxDocBytes            = 1 << 20
)

// BackendConfig configures the primary text-generation-inference backend.
type BackendConfig struct {
	// BaseURL is the TGI server root, without a trailing /generate.
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Timeout bounds every backend request.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// FallbackConfig configures the OpenAI-compatible fallback backend.
// The fallback is enabled only when APIKey is set.
type FallbackConfig struct {
	BaseURL string        `yaml:"base_url" json:"base_url"`
	APIKey  string        `yaml:"api_key,omitempty" json:"-"`
	Model   string        `yaml:"model" json:"model"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// Enabled reports whether the fallback can be used.
func (f FallbackConfig) Enabled() bool {
	return f.APIKey != ""
}

// GenerationConfig holds sampling parameters sent to every backend.
type GenerationConfig struct {
	MaxNewTokens  int      `yaml:"max_new_tokens" json:"max_new_tokens"`
	Temperature   float64  `yaml:"temperature" json:"temperature"`
	TopP          float64  `yaml:"top_p" json:"top_p"`
	StopSequences []string `yaml:"stop_sequences" json:"stop_sequences"`
}

// ReviewConfig controls how model output is validated and applied.
type ReviewConfig struct {
	// RetriesOnMalformed is the number of extra attempts after a malformed tool call.
	RetriesOnMalformed int `yaml:"retries_on_malformed" json:"retries_on_malformed"`

	// CodeEditThresholdRatio enables edits inside fenced code when the fenced
	// fraction of the document is at least this value.
	CodeEditThresholdRatio float64 `yaml:"code_edit_threshold_ratio" json:"code_edit_threshold_ratio"`

	// VerifyDiff re-applies every generated diff and fails on mismatch.
	VerifyDiff bool `yaml:"verify_diff" json:"verify_diff"`

	// MaxDocBytes rejects larger documents. Zero means unlimited.
	MaxDocBytes int `yaml:"max_doc_bytes" json:"max_doc_bytes"`
}

// LinterConfig controls the prose linter.
type LinterConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Language string `yaml:"language" json:"language"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Host              string        `yaml:"host" json:"host"`
	Port              int           `yaml:"port" json:"port"`
	CORSAllowOrigins  []string      `yaml:"cors_allow_origins" json:"cors_allow_origins"`
	RedirectURL       string        `yaml:"redirect_url" json:"redirect_url"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" json:"read_header_timeout"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// BackupsConfig controls backup behavior when the CLI rewrites documents.
type BackupsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Mode    string `yaml:"mode" json:"mode"` // "sidecar"
}

// Config is the root configuration structure for docqa.
type Config struct {
	Backend    BackendConfig    `yaml:"backend" json:"backend"`
	Fallback   FallbackConfig   `yaml:"fallback" json:"fallback"`
	Generation GenerationConfig `yaml:"generation" json:"generation"`
	Review     ReviewConfig     `yaml:"review" json:"review"`
	Linter     LinterConfig     `yaml:"linter" json:"linter"`
	Server     ServerConfig     `yaml:"server" json:"server"`
	Log        LogConfig        `yaml:"log" json:"log"`
	Backups    BackupsConfig    `yaml:"backups" json:"backups"`

	// CLI-level options (not persisted to config files).

	// Format specifies the CLI output format.
	Format OutputFormat `yaml:"-" json:"-"`
}

// NewConfig returns a Config with the default values.
func NewConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL: DefaultBackendURL,
			Timeout: DefaultBackendTimeout,
		},
		Fallback: FallbackConfig{
			BaseURL: DefaultFallbackURL,
			Model:   DefaultFallbackModel,
			Timeout: DefaultBackendTimeout,
		},
		Generation: GenerationConfig{
			MaxNewTokens:  DefaultMaxNewTokens,
			Temperature:   DefaultTemperature,
			TopP:          DefaultTopP,
			StopSequences: []string{DefaultStopSequence},
		},
		Review: ReviewConfig{
			RetriesOnMalformed:     DefaultRetriesOnMalformed,
			CodeEditThresholdRatio: DefaultCodeEditThresholdRatio,
			VerifyDiff:             true,
			MaxDocBytes:            DefaultMaxDocBytes,
		},
		Linter: LinterConfig{
			Enabled:  true,
			Language: DefaultLinterLanguage,
		},
		Server: ServerConfig{
			Host:              DefaultHost,
			Port:              DefaultPort,
			CORSAllowOrigins:  []string{"*"},
			RedirectURL:       DefaultRedirectURL,
			ShutdownTimeout:   DefaultShutdownTimeout,
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Backups: BackupsConfig{
			Enabled: true,
			Mode:    "sidecar",
		},
		Format: FormatText,
	}
}

// Attempts returns the total number of model calls allowed per review.
func (c *Config) Attempts() int {
	return max(c.Review.RetriesOnMalformed, 0) + 1
}

// CodeEditAllowed applies the threshold to a document's fenced-code ratio.
func (c *Config) CodeEditAllowed(codeRatio float64) bool {
	return codeRatio >= c.Review.CodeEditThresholdRatio
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return joinHostPort(c.Server.Host, c.Server.Port)
}
