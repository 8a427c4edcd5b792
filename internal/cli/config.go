package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yaklabco/docqa/internal/configloader"
	"github.com/yaklabco/docqa/internal/logging"
	"github.com/yaklabco/docqa/pkg/config"
)

var errConfigLoad = errors.New("failed to load configuration")

// loadConfig resolves the layered configuration for cmd, with overrides taken
// from explicitly set flags.
func loadConfig(cmd *cobra.Command, overrides *configloader.Overrides) (*config.Config, error) {
	logger := logging.Default()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("get config flag: %w", err)
	}

	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	result, err := configloader.Load(cmd.Context(), configloader.LoadOptions{
		WorkingDir:   workDir,
		ExplicitPath: configPath,
		Overrides:    overrides,
	})
	if err != nil {
		return nil, errors.Join(errConfigLoad, err)
	}

	for _, warning := range result.Warnings {
		logger.Warn(warning)
	}
	if len(result.LoadedFrom) > 0 {
		logger.Debug("loaded configuration", logging.FieldSource, result.LoadedFrom)
	}

	return result.Config, nil
}

// colorMode returns the --color value, falling back to auto.
func colorMode(cmd *cobra.Command) string {
	mode, err := cmd.Flags().GetString("color")
	if err != nil || mode == "" {
		return "auto"
	}
	return mode
}

// changed returns a pointer to value when the named flag was set explicitly.
func changed[T any](cmd *cobra.Command, name string, value T) *T {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}
