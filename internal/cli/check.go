package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yaklabco/docqa/internal/configloader"
	"github.com/yaklabco/docqa/internal/logging"
	"github.com/yaklabco/docqa/internal/parsing"
	"github.com/yaklabco/docqa/internal/ui/pretty"
	"github.com/yaklabco/docqa/pkg/config"
	"github.com/yaklabco/docqa/pkg/fsutil"
	"github.com/yaklabco/docqa/pkg/model"
	"github.com/yaklabco/docqa/pkg/pipeline"
	"github.com/yaklabco/docqa/pkg/plan"
	"github.com/yaklabco/docqa/pkg/prose"
	"github.com/yaklabco/docqa/pkg/region"
)

// ErrReviewRejected is returned when an edit batch is a malformed tool call.
var ErrReviewRejected = errors.New("review rejected")

type checkFlags struct {
	issues    string
	findings  string
	lint      bool
	allowCode bool
	threshold float64
	format    string
	write     bool
	noBackup  bool
	noContext bool
}

func newCheckCommand() *cobra.Command {
	flags := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "check DOC --issues FILE",
		Short: "Validate and apply an edit batch to a document offline",
		Long: `Validate a batch of proposed edits against a Markdown document and apply
them if, and only if, every edit can be placed safely.

The issues file holds either a review object {"version": "1", "issues": [...]}
or a bare array of issues; model output wrapped in <json> tags is accepted
too. Use "-" to read it from stdin.

Examples:
  docqa check README.md --issues review.json
  docqa check README.md --issues review.json --lint --format diff
  docqa check README.md --issues - --allow-code --write < review.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.issues, "issues", "i", "", "file with the proposed issues (- for stdin)")
	cmd.Flags().StringVar(&flags.findings, "findings", "", "file with external lint findings (JSON array)")
	cmd.Flags().BoolVar(&flags.lint, "lint", false, "run the built-in prose linter")
	cmd.Flags().BoolVar(&flags.allowCode, "allow-code", false, "allow edits inside fenced code regardless of the threshold")
	cmd.Flags().Float64Var(&flags.threshold, "threshold", 0, "fenced-code ratio at which code edits are allowed")
	cmd.Flags().StringVar(&flags.format, "format", "text", "output format: text, json, diff")
	cmd.Flags().BoolVarP(&flags.write, "write", "w", false, "write the updated document in place")
	cmd.Flags().BoolVar(&flags.noBackup, "no-backup", false, "do not keep a backup when writing")
	cmd.Flags().BoolVar(&flags.noContext, "no-context", false, "hide source line context in output")
	_ = cmd.MarkFlagRequired("issues")

	return cmd
}

// checkReport is the JSON output of the check command.
type checkReport struct {
	Path            string                  `json:"path"`
	CodeRatio       float64                 `json:"code_ratio"`
	CodeEditAllowed bool                    `json:"code_edit_allowed"`
	Result          *pipeline.Output        `json:"result,omitempty"`
	Error           *plan.MalformedToolCall `json:"error,omitempty"`
	Written         bool                    `json:"written,omitempty"`
	BackupPath      string                  `json:"backup_path,omitempty"`
}

func runCheck(cmd *cobra.Command, path string, flags *checkFlags) error {
	format := config.OutputFormat(flags.format)
	if !format.IsValid() {
		return fmt.Errorf("%w: unknown format %q", ErrUsage, flags.format)
	}

	overrides := &configloader.Overrides{
		CodeEditRatio: changed(cmd, "threshold", flags.threshold),
		Format:        &format,
	}
	if flags.noBackup {
		disabled := false
		overrides.BackupsEnabled = &disabled
	}
	cfg, err := loadConfig(cmd, overrides)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	logger := logging.Default()

	original, snap, err := fsutil.Read(ctx, path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	doc := string(original)

	review, err := readIssues(cmd.InOrStdin(), flags.issues)
	if err != nil {
		var mtc *plan.MalformedToolCall
		if errors.As(err, &mtc) {
			return reportRejection(cmd, cfg, path, region.Result{}, false, mtc)
		}
		return err
	}

	detected := region.Detect(doc)
	codeEditAllowed := flags.allowCode || cfg.CodeEditAllowed(detected.CodeRatio)

	findings, err := readFindings(flags.findings)
	if err != nil {
		return err
	}
	if flags.lint {
		linter, err := prose.New(prose.WithLanguage(cfg.Linter.Language))
		if err != nil {
			return fmt.Errorf("create linter: %w", err)
		}
		found, err := linter.Lint(ctx, doc)
		if err != nil {
			return fmt.Errorf("lint: %w", err)
		}
		findings = append(findings, found...)
	}

	logger.Debug("checking document",
		logging.FieldPath, path,
		logging.FieldIssues, len(review.Issues),
		logging.FieldLintFindings, len(findings),
		logging.FieldCodeRatio, detected.CodeRatio,
		logging.FieldCodeEditAllowed, codeEditAllowed,
	)

	out, err := pipeline.Run(pipeline.Input{
		Document:        doc,
		CodeEditAllowed: codeEditAllowed,
		Issues:          review.Issues,
		LintFindings:    findings,
		Regions:         detected.Regions,
		Options: pipeline.Options{
			OrigName:   diffLabel("a/", path),
			NewName:    diffLabel("b/", path),
			SkipVerify: !cfg.Review.VerifyDiff,
		},
	})
	if err != nil {
		var mtc *plan.MalformedToolCall
		if errors.As(err, &mtc) {
			return reportRejection(cmd, cfg, path, detected, codeEditAllowed, mtc)
		}
		return err
	}

	report := checkReport{
		Path:            path,
		CodeRatio:       detected.CodeRatio,
		CodeEditAllowed: codeEditAllowed,
		Result:          out,
	}

	if flags.write {
		commit, err := fsutil.Commit(ctx, snap, original, []byte(out.UpdatedDocument), fsutil.CommitOptions{
			Backup: cfg.Backups.Enabled,
			Mode:   fsutil.BackupMode(cfg.Backups.Mode),
		})
		if err != nil {
			return fmt.Errorf("write document: %w", err)
		}
		report.Written = commit.Written
		report.BackupPath = commit.BackupPath
		if commit.Written {
			logger.Info("updated document", logging.FieldPath, path, logging.FieldEdits, len(out.Edits))
		}
		if commit.BackupPath != "" {
			logger.Debug("backup written", logging.FieldPath, commit.BackupPath)
		}
	}

	return renderCheck(cmd, cfg.Format, doc, report, !flags.noContext)
}

func renderCheck(cmd *cobra.Command, format config.OutputFormat, doc string, report checkReport, showContext bool) error {
	w := cmd.OutOrStdout()

	switch format {
	case config.FormatJSON:
		return writeJSON(w, report)
	case config.FormatDiff:
		if _, err := io.WriteString(w, report.Result.Diff); err != nil {
			return err
		}
		errOut := cmd.ErrOrStderr()
		styles := pretty.NewStyles(pretty.IsColorEnabled(colorMode(cmd), errOut))
		_, err := io.WriteString(errOut, styles.FormatSummaryOneLine(report.Result))
		return err
	default:
		styles := pretty.NewStyles(pretty.IsColorEnabled(colorMode(cmd), w))
		text := styles.FormatReport(report.Path, doc, report.Result, showContext)
		if report.Result.Diff != "" {
			text += "\n" + styles.FormatDiff(report.Result.Diff)
		}
		_, err := io.WriteString(w, text)
		return err
	}
}

func reportRejection(
	cmd *cobra.Command,
	cfg *config.Config,
	path string,
	detected region.Result,
	codeEditAllowed bool,
	mtc *plan.MalformedToolCall,
) error {
	logging.Default().Debug("edit batch rejected",
		logging.FieldPath, path,
		logging.FieldKind, mtc.Kind,
		logging.FieldReason, mtc.Reason,
	)

	if cfg.Format == config.FormatJSON {
		report := checkReport{
			Path:            path,
			CodeRatio:       detected.CodeRatio,
			CodeEditAllowed: codeEditAllowed,
			Error:           mtc,
		}
		if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	} else {
		errOut := cmd.ErrOrStderr()
		styles := pretty.NewStyles(pretty.IsColorEnabled(colorMode(cmd), errOut))
		if _, err := io.WriteString(errOut, styles.FormatRejection(path, mtc)); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w: %w", ErrReviewRejected, mtc)
}

// readIssues loads a review from path, or stdin when path is "-".
func readIssues(stdin io.Reader, path string) (*model.ReviewResponse, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return nil, fmt.Errorf("%w: --issues - expects input on stdin", ErrUsage)
		}
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read issues: %w", err)
	}

	// A bare array, tagged or not, is shorthand for a review without a version.
	payload := parsing.ExtractJSON(string(data))
	if strings.HasPrefix(payload, "[") {
		payload = `{"version":"1","issues":` + payload + `}`
	}

	return parsing.ParseReview(payload)
}

// readFindings loads external lint findings. An empty path yields none.
func readFindings(path string) ([]model.LintFinding, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read findings: %w", err)
	}
	var findings []model.LintFinding
	if err := json.Unmarshal(data, &findings); err != nil {
		return nil, fmt.Errorf("decode findings %s: %w", path, err)
	}
	return findings, nil
}

// diffLabel names a document in diff headers, git style for relative paths.
func diffLabel(prefix, path string) string {
	if filepath.IsAbs(path) {
		return filepath.ToSlash(path)
	}
	return prefix + filepath.ToSlash(path)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
