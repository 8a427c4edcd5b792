package configloader

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/yaklabco/docqa/pkg/config"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Field is the path to the invalid field (e.g., "review.code_edit_threshold_ratio").
	Field string

	// Value is the invalid value.
	Value any

	// Message describes the validation error.
	Message string

	// FilePath is the config file containing the error (if known).
	FilePath string

	// Line is the line number in the config file (if known).
	Line int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var parts []string

	if e.FilePath != "" {
		if e.Line > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", e.FilePath, e.Line))
		} else {
			parts = append(parts, e.FilePath)
		}
	}

	if e.Field != "" {
		parts = append(parts, e.Field)
	}

	parts = append(parts, e.Message)

	return strings.Join(parts, ": ")
}

// ValidationResult contains all validation findings.
type ValidationResult struct {
	// Errors are validation failures that prevent loading.
	Errors []ValidationError

	// Warnings are non-fatal issues (e.g., unknown fields).
	Warnings []ValidationError
}

// Valid returns true if there are no errors.
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// HasWarnings returns true if there are any warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// AllMessages returns all error and warning messages combined.
func (r *ValidationResult) AllMessages() []string {
	messages := make([]string, 0, len(r.Errors)+len(r.Warnings))
	for _, e := range r.Errors {
		messages = append(messages, "error: "+e.Error())
	}
	for _, w := range r.Warnings {
		messages = append(messages, "warning: "+w.Error())
	}
	return messages
}

// knownLogLevels lists valid log level values.
//
//nolint:gochecknoglobals // Read-only lookup table.
var knownLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
	"fatal": true,
}

// knownLogFormats lists valid log format values.
//
//nolint:gochecknoglobals // Read-only lookup table.
var knownLogFormats = map[string]bool{
	"text": true,
	"json": true,
}

// knownBackupModes lists valid backup mode values.
//
//nolint:gochecknoglobals // Read-only lookup table.
var knownBackupModes = map[string]bool{
	"sidecar": true,
	"none":    true,
}

// Validate checks a configuration for errors and warnings.
func Validate(cfg *config.Config) *ValidationResult {
	return ValidateWithFile(cfg, "")
}

// ValidateWithFile checks a configuration and attributes findings to filePath.
func ValidateWithFile(cfg *config.Config, filePath string) *ValidationResult {
	result := &ValidationResult{}
	if cfg == nil {
		return result
	}

	errorf := func(field string, value any, format string, args ...any) {
		result.Errors = append(result.Errors, ValidationError{
			Field: field, Value: value, Message: fmt.Sprintf(format, args...), FilePath: filePath,
		})
	}
	warnf := func(field string, value any, format string, args ...any) {
		result.Warnings = append(result.Warnings, ValidationError{
			Field: field, Value: value, Message: fmt.Sprintf(format, args...), FilePath: filePath,
		})
	}

	validateURL(errorf, "backend.base_url", cfg.Backend.BaseURL)
	validateTimeout(errorf, "backend.timeout", cfg.Backend.Timeout)

	if cfg.Fallback.BaseURL != "" {
		validateURL(errorf, "fallback.base_url", cfg.Fallback.BaseURL)
	}
	validateTimeout(errorf, "fallback.timeout", cfg.Fallback.Timeout)
	if cfg.Fallback.Enabled() {
		if cfg.Fallback.Model == "" {
			errorf("fallback.model", cfg.Fallback.Model, "model is required when an API key is set")
		}
		if u, err := url.Parse(cfg.Fallback.BaseURL); err == nil && u.Scheme == "http" {
			warnf("fallback.base_url", cfg.Fallback.BaseURL, "API key will be sent over plain http")
		}
	}

	gen := cfg.Generation
	if gen.MaxNewTokens <= 0 {
		errorf("generation.max_new_tokens", gen.MaxNewTokens, "must be positive, got %d", gen.MaxNewTokens)
	}
	if gen.Temperature < 0 {
		errorf("generation.temperature", gen.Temperature, "must not be negative, got %g", gen.Temperature)
	}
	if gen.TopP <= 0 || gen.TopP > 1 {
		errorf("generation.top_p", gen.TopP, "must be in (0, 1], got %g", gen.TopP)
	}
	if len(gen.StopSequences) == 0 {
		warnf("generation.stop_sequences", gen.StopSequences,
			"no stop sequences; generation runs until max_new_tokens")
	}

	review := cfg.Review
	if review.RetriesOnMalformed < 0 {
		errorf("review.retries_on_malformed", review.RetriesOnMalformed,
			"must not be negative, got %d", review.RetriesOnMalformed)
	}
	if review.CodeEditThresholdRatio < 0 || review.CodeEditThresholdRatio > 1 {
		errorf("review.code_edit_threshold_ratio", review.CodeEditThresholdRatio,
			"must be in [0, 1], got %g", review.CodeEditThresholdRatio)
	}
	if review.MaxDocBytes < 0 {
		errorf("review.max_doc_bytes", review.MaxDocBytes, "must not be negative, got %d", review.MaxDocBytes)
	}
	if !review.VerifyDiff {
		warnf("review.verify_diff", review.VerifyDiff, "diff verification is disabled")
	}

	if cfg.Linter.Enabled {
		lang := strings.ToLower(cfg.Linter.Language)
		if lang != "en" && !strings.HasPrefix(lang, "en-") {
			errorf("linter.language", cfg.Linter.Language, "unsupported language %q", cfg.Linter.Language)
		}
	}

	srv := cfg.Server
	if srv.Port < 1 || srv.Port > 65535 {
		errorf("server.port", srv.Port, "must be in 1-65535, got %d", srv.Port)
	}
	if srv.RedirectURL != "" {
		validateURL(errorf, "server.redirect_url", srv.RedirectURL)
	}
	validateTimeout(errorf, "server.shutdown_timeout", srv.ShutdownTimeout)
	validateTimeout(errorf, "server.read_header_timeout", srv.ReadHeaderTimeout)

	if !knownLogLevels[strings.ToLower(strings.TrimSpace(cfg.Log.Level))] {
		errorf("log.level", cfg.Log.Level, "unknown log level %q", cfg.Log.Level)
	}
	if !knownLogFormats[strings.ToLower(cfg.Log.Format)] {
		errorf("log.format", cfg.Log.Format, "unknown log format %q (expected text or json)", cfg.Log.Format)
	}

	if cfg.Backups.Mode != "" && !knownBackupModes[cfg.Backups.Mode] {
		errorf("backups.mode", cfg.Backups.Mode, "unknown backup mode %q (expected sidecar or none)", cfg.Backups.Mode)
	}

	if cfg.Format != "" && !cfg.Format.IsValid() {
		errorf("format", cfg.Format, "unknown output format %q", cfg.Format)
	}

	return result
}

type reportFunc func(field string, value any, format string, args ...any)

func validateURL(report reportFunc, field, raw string) {
	u, err := url.Parse(raw)
	if err != nil {
		report(field, raw, "invalid URL: %v", err)
		return
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		report(field, raw, "URL must use http or https, got %q", raw)
		return
	}
	if u.Host == "" {
		report(field, raw, "URL has no host: %q", raw)
	}
}

func validateTimeout(report reportFunc, field string, d time.Duration) {
	if d <= 0 {
		report(field, d, "must be positive, got %s", d)
	}
}
