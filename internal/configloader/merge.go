package configloader

import (
	"time"

	"github.com/yaklabco/docqa/pkg/config"
)

// Overrides carries values set explicitly on the command line.
// A nil field leaves the configured value untouched, so a flag can turn a
// boolean off as well as on.
type Overrides struct {
	BackendURL      *string
	BackendTimeout  *time.Duration
	FallbackModel   *string
	Retries         *int
	CodeEditRatio   *float64
	VerifyDiff      *bool
	LinterEnabled   *bool
	LinterLanguage  *string
	Host            *string
	Port            *int
	LogLevel        *string
	LogFormat       *string
	Format          *config.OutputFormat
	BackupsEnabled  *bool
	ShutdownTimeout *time.Duration
}

// merge applies overrides to a copy of base and returns the copy.
// The result never aliases base's slices.
func merge(base *config.Config, override *Overrides) *config.Config {
	if base == nil {
		base = config.NewConfig()
	}
	result := base.Clone()
	if override == nil {
		return result
	}

	set(&result.Backend.BaseURL, override.BackendURL)
	set(&result.Backend.Timeout, override.BackendTimeout)
	set(&result.Fallback.Model, override.FallbackModel)
	set(&result.Review.RetriesOnMalformed, override.Retries)
	set(&result.Review.CodeEditThresholdRatio, override.CodeEditRatio)
	set(&result.Review.VerifyDiff, override.VerifyDiff)
	set(&result.Linter.Enabled, override.LinterEnabled)
	set(&result.Linter.Language, override.LinterLanguage)
	set(&result.Server.Host, override.Host)
	set(&result.Server.Port, override.Port)
	set(&result.Server.ShutdownTimeout, override.ShutdownTimeout)
	set(&result.Log.Level, override.LogLevel)
	set(&result.Log.Format, override.LogFormat)
	set(&result.Format, override.Format)
	set(&result.Backups.Enabled, override.BackupsEnabled)

	return result
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
