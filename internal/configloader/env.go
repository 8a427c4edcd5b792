package configloader

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yaklabco/docqa/pkg/config"
)

// envVarPrefix is the prefix for all docqa environment variables.
const envVarPrefix = "DOCQA_"

// envFieldType represents the type of a configuration field.
type envFieldType int

const (
	envTypeString envFieldType = iota
	envTypeBool
	envTypeInt
	envTypeFloat
	envTypeDuration
	envTypeSlice
)

// envMapping binds an environment variable to a config field.
type envMapping struct {
	typ         envFieldType
	description string
	target      func(cfg *config.Config) any
}

// envMappings maps environment variable names (without prefix) to config fields.
//
//nolint:gochecknoglobals // Read-only lookup table.
var envMappings = map[string]envMapping{
	"BACKEND_URL": {envTypeString, "TGI base URL",
		func(c *config.Config) any { return &c.Backend.BaseURL }},
	"BACKEND_TIMEOUT": {envTypeDuration, "TGI request timeout (e.g. 60s)",
		func(c *config.Config) any { return &c.Backend.Timeout }},
	"FALLBACK_URL": {envTypeString, "OpenAI-compatible fallback base URL",
		func(c *config.Config) any { return &c.Fallback.BaseURL }},
	"FALLBACK_API_KEY": {envTypeString, "Fallback API key; enables the fallback",
		func(c *config.Config) any { return &c.Fallback.APIKey }},
	"FALLBACK_MODEL": {envTypeString, "Fallback model name",
		func(c *config.Config) any { return &c.Fallback.Model }},
	"MAX_NEW_TOKENS": {envTypeInt, "Maximum generated tokens",
		func(c *config.Config) any { return &c.Generation.MaxNewTokens }},
	"TEMPERATURE": {envTypeFloat, "Sampling temperature",
		func(c *config.Config) any { return &c.Generation.Temperature }},
	"TOP_P": {envTypeFloat, "Nucleus sampling probability",
		func(c *config.Config) any { return &c.Generation.TopP }},
	"STOP_SEQUENCES": {envTypeSlice, "Comma-separated stop sequences",
		func(c *config.Config) any { return &c.Generation.StopSequences }},
	"RETRIES_ON_MALFORMED": {envTypeInt, "Extra attempts after a malformed tool call",
		func(c *config.Config) any { return &c.Review.RetriesOnMalformed }},
	"CODE_EDIT_THRESHOLD_RATIO": {envTypeFloat, "Fenced-code ratio that enables code edits",
		func(c *config.Config) any { return &c.Review.CodeEditThresholdRatio }},
	"VERIFY_DIFF": {envTypeBool, "Verify generated diffs: true or false",
		func(c *config.Config) any { return &c.Review.VerifyDiff }},
	"MAX_DOC_BYTES": {envTypeInt, "Maximum document size in bytes (0 = unlimited)",
		func(c *config.Config) any { return &c.Review.MaxDocBytes }},
	"ENABLE_LINTER": {envTypeBool, "Enable the prose linter: true or false",
		func(c *config.Config) any { return &c.Linter.Enabled }},
	"LINTER_LANGUAGE": {envTypeString, "Prose linter language (e.g. en-US)",
		func(c *config.Config) any { return &c.Linter.Language }},
	"HOST": {envTypeString, "Server listen host",
		func(c *config.Config) any { return &c.Server.Host }},
	"PORT": {envTypeInt, "Server listen port",
		func(c *config.Config) any { return &c.Server.Port }},
	"CORS_ALLOW_ORIGINS": {envTypeSlice, "Comma-separated CORS origins",
		func(c *config.Config) any { return &c.Server.CORSAllowOrigins }},
	"REDIRECT_URL": {envTypeString, "Redirect target for / and unknown routes",
		func(c *config.Config) any { return &c.Server.RedirectURL }},
	"LOG_LEVEL": {envTypeString, "Log level: debug, info, warn, error",
		func(c *config.Config) any { return &c.Log.Level }},
	"LOG_FORMAT": {envTypeString, "Log format: text or json",
		func(c *config.Config) any { return &c.Log.Format }},
	"FORMAT": {envTypeString, "CLI output format: text, json, or diff",
		func(c *config.Config) any { return (*string)(&c.Format) }},
	"BACKUPS_ENABLED": {envTypeBool, "Write backups with --write: true or false",
		func(c *config.Config) any { return &c.Backups.Enabled }},
}

// LoadFromEnv applies environment variable overrides to the configuration.
// Environment variables are prefixed with DOCQA_ (e.g., DOCQA_BACKEND_URL).
func LoadFromEnv(cfg *config.Config) error {
	return loadFromLookup(cfg, os.LookupEnv)
}

// loadFromLookup applies overrides using lookup, so tests need not touch the process environment.
func loadFromLookup(cfg *config.Config, lookup func(string) (string, bool)) error {
	if cfg == nil {
		return nil
	}

	for _, suffix := range sortedEnvSuffixes() {
		envVar := envVarPrefix + suffix
		value, ok := lookup(envVar)
		if !ok || value == "" {
			continue
		}
		if err := applyEnvValue(cfg, envMappings[suffix], value, envVar); err != nil {
			return err
		}
	}

	return nil
}

// applyEnvValue parses value and stores it in the mapped field.
func applyEnvValue(cfg *config.Config, mapping envMapping, value, envVar string) error {
	target := mapping.target(cfg)

	switch mapping.typ {
	case envTypeString:
		*target.(*string) = value
	case envTypeBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for %s: %q (expected true/false/1/0)", envVar, value)
		}
		*target.(*bool) = b
	case envTypeInt:
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %q", envVar, value)
		}
		*target.(*int) = i
	case envTypeFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number for %s: %q", envVar, value)
		}
		*target.(*float64) = f
	case envTypeDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %q", envVar, value)
		}
		*target.(*time.Duration) = d
	case envTypeSlice:
		*target.(*[]string) = parseSliceValue(value)
	default:
		return fmt.Errorf("unknown field type for %s", envVar)
	}
	return nil
}

// parseSliceValue parses a comma-separated string into a slice.
// Each element is trimmed of whitespace.
func parseSliceValue(value string) []string {
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func sortedEnvSuffixes() []string {
	suffixes := make([]string, 0, len(envMappings))
	for suffix := range envMappings {
		suffixes = append(suffixes, suffix)
	}
	sort.Strings(suffixes)
	return suffixes
}

// ListEnvVars returns every supported environment variable with its description.
func ListEnvVars() map[string]string {
	vars := make(map[string]string, len(envMappings))
	for suffix, mapping := range envMappings {
		vars[envVarPrefix+suffix] = mapping.description
	}
	return vars
}
