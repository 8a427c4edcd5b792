package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yaklabco/docqa/internal/ui/pretty"
	"github.com/yaklabco/docqa/pkg/config"
	"github.com/yaklabco/docqa/pkg/fsutil"
	"github.com/yaklabco/docqa/pkg/langdetect"
	"github.com/yaklabco/docqa/pkg/region"
)

func newRegionsCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "regions DOC",
		Short: "Show the protected regions of a document",
		Long: `Print the fenced code, inline code and URL regions that edits may not touch,
the fraction of the document inside fenced code, and language guesses for
unlabeled code fences.

Examples:
  docqa regions README.md
  docqa regions README.md --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegions(cmd, args[0], config.OutputFormat(format))
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json")

	return cmd
}

// regionsReport is the JSON output of the regions command.
type regionsReport struct {
	Path       string            `json:"path"`
	Regions    []region.Region   `json:"regions"`
	CodeRatio  float64           `json:"code_ratio"`
	FenceHints []langdetect.Hint `json:"fence_hints,omitempty"`
}

func runRegions(cmd *cobra.Command, path string, format config.OutputFormat) error {
	if format != config.FormatText && format != config.FormatJSON {
		return fmt.Errorf("%w: unknown format %q", ErrUsage, format)
	}

	content, _, err := fsutil.Read(cmd.Context(), path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	doc := string(content)

	detected := region.Detect(doc)
	hints := langdetect.FenceHints(doc, detected.Regions)

	w := cmd.OutOrStdout()
	if format == config.FormatJSON {
		regions := detected.Regions
		if regions == nil {
			regions = []region.Region{}
		}
		return writeJSON(w, regionsReport{
			Path:       path,
			Regions:    regions,
			CodeRatio:  detected.CodeRatio,
			FenceHints: hints,
		})
	}

	styles := pretty.NewStyles(pretty.IsColorEnabled(colorMode(cmd), w))
	var builder strings.Builder
	builder.WriteString(styles.FormatRegions(path, doc, detected))
	for _, hint := range hints {
		builder.WriteString(fmt.Sprintf("  %s line %d looks like %s\n",
			styles.Dim.Render("hint:"), hint.Line, styles.Bold.Render(hint.Language)))
	}

	_, err = io.WriteString(w, builder.String())
	return err
}
