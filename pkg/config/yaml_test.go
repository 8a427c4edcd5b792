package config_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/docqa/pkg/config"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()

	assert.Equal(t, "http://tgi:80", cfg.Backend.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 2048, cfg.Generation.MaxNewTokens)
	assert.InDelta(t, 0.0, cfg.Generation.Temperature, 1e-9)
	assert.InDelta(t, 0.9, cfg.Generation.TopP, 1e-9)
	assert.Equal(t, []string{"</json>"}, cfg.Generation.StopSequences)
	assert.Equal(t, 1, cfg.Review.RetriesOnMalformed)
	assert.InDelta(t, 0.15, cfg.Review.CodeEditThresholdRatio, 1e-9)
	assert.True(t, cfg.Review.VerifyDiff)
	assert.True(t, cfg.Linter.Enabled)
	assert.Equal(t, "en-US", cfg.Linter.Language)
	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
	assert.False(t, cfg.Fallback.Enabled())
	assert.Equal(t, 2, cfg.Attempts())
}

func TestConfig_CodeEditAllowed(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()

	assert.False(t, cfg.CodeEditAllowed(0.1))
	assert.True(t, cfg.CodeEditAllowed(0.15))
	assert.True(t, cfg.CodeEditAllowed(0.9))
}

func TestConfig_Attempts(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.Review.RetriesOnMalformed = -3
	assert.Equal(t, 1, cfg.Attempts())

	cfg.Review.RetriesOnMalformed = 2
	assert.Equal(t, 3, cfg.Attempts())
}

func TestConfigClone(t *testing.T) {
	t.Parallel()

	t.Run("nil config returns nil", func(t *testing.T) {
		t.Parallel()

		var c *config.Config
		assert.Nil(t, c.Clone())
	})

	t.Run("deep copies slices", func(t *testing.T) {
		t.Parallel()

		original := config.NewConfig()
		clone := original.Clone()
		require.NotNil(t, clone)
		assert.NotSame(t, original, clone)
		assert.Equal(t, original, clone)

		clone.Generation.StopSequences[0] = "changed"
		clone.Server.CORSAllowOrigins[0] = "https://example.com"
		assert.Equal(t, "</json>", original.Generation.StopSequences[0])
		assert.Equal(t, "*", original.Server.CORSAllowOrigins[0])
	})
}

func TestYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	original := config.NewConfig()
	original.Fallback.APIKey = "secret"
	original.Review.CodeEditThresholdRatio = 0.4

	data, err := original.ToYAML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "timeout: 1m0s")

	parsed, err := config.FromYAML(data)
	require.NoError(t, err)

	parsed.Format = original.Format
	assert.Equal(t, original, parsed)
}

func TestFromYAML(t *testing.T) {
	t.Parallel()

	cfg, err := config.FromYAML([]byte("backend:\n  timeout: 5s\nreview:\n  verify_diff: true\n"))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.True(t, cfg.Review.VerifyDiff)
	assert.Empty(t, cfg.Backend.BaseURL)

	_, err = config.FromYAML([]byte("backend: [not, a, map"))
	require.Error(t, err)
}

func TestToYAMLWithHeader(t *testing.T) {
	t.Parallel()

	data, err := config.NewConfig().ToYAMLWithHeader("# header")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# header\n\nbackend:"))
}

func TestGenerateTemplate(t *testing.T) {
	t.Parallel()

	t.Run("minimal yaml parses", func(t *testing.T) {
		t.Parallel()

		data, err := config.GenerateTemplate(config.TemplateOptions{})
		require.NoError(t, err)

		cfg, err := config.FromYAML(data)
		require.NoError(t, err)
		assert.Equal(t, "http://tgi:80", cfg.Backend.BaseURL)
		assert.InDelta(t, 0.15, cfg.Review.CodeEditThresholdRatio, 1e-9)
	})

	t.Run("full yaml documents settings", func(t *testing.T) {
		t.Parallel()

		data, err := config.GenerateTemplate(config.TemplateOptions{Full: true})
		require.NoError(t, err)
		assert.Contains(t, string(data), "# Extra model calls after a malformed tool call.")

		cfg, err := config.FromYAML(data)
		require.NoError(t, err)
		cfg.Format = config.FormatText
		assert.Equal(t, config.NewConfig(), cfg)
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		data, err := config.GenerateTemplate(config.TemplateOptions{Full: true, Format: "json"})
		require.NoError(t, err)

		var tree map[string]any
		require.NoError(t, json.Unmarshal(data, &tree))
		assert.Contains(t, tree, "review")

		cfg, err := config.FromYAML(data)
		require.NoError(t, err)
		assert.Equal(t, 2048, cfg.Generation.MaxNewTokens)
	})
}

func TestOutputFormat_IsValid(t *testing.T) {
	t.Parallel()

	assert.True(t, config.FormatJSON.IsValid())
	assert.True(t, config.FormatDiff.IsValid())
	assert.False(t, config.OutputFormat("sarif").IsValid())
}
