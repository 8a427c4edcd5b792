package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yaklabco/docqa/internal/configloader"
	"github.com/yaklabco/docqa/internal/logging"
	"github.com/yaklabco/docqa/pkg/fix"
	"github.com/yaklabco/docqa/pkg/fsutil"
)

type applyFlags struct {
	write    bool
	noBackup bool
}

func newApplyCommand() *cobra.Command {
	flags := &applyFlags{}

	cmd := &cobra.Command{
		Use:   "apply DOC PATCH",
		Short: "Apply a docqa unified diff to a document",
		Long: `Apply a single-file unified diff, as returned by "docqa check --format diff"
or the review API, to a document.

The patch is applied strictly: every context and removed line must match the
document exactly. The patched document is printed unless --write is given.

Examples:
  docqa apply README.md review.diff
  docqa apply README.md review.diff --write`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, args[0], args[1], flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.write, "write", "w", false, "write the patched document in place")
	cmd.Flags().BoolVar(&flags.noBackup, "no-backup", false, "do not keep a backup when writing")

	return cmd
}

func runApply(cmd *cobra.Command, docPath, patchPath string, flags *applyFlags) error {
	overrides := &configloader.Overrides{}
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

	original, snap, err := fsutil.Read(ctx, docPath)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	patch, err := os.ReadFile(patchPath)
	if err != nil {
		return fmt.Errorf("read patch: %w", err)
	}

	patched := original
	if strings.TrimSpace(string(patch)) != "" {
		info, err := fix.ParsePatch(string(patch))
		if err != nil {
			return fmt.Errorf("invalid patch %s: %w", patchPath, err)
		}
		logger.Debug("parsed patch",
			logging.FieldPath, patchPath,
			"hunks", info.Hunks,
			"additions", info.Additions,
			"deletions", info.Deletions,
		)

		patched, err = fix.ApplyPatch(original, string(patch))
		if err != nil {
			return fmt.Errorf("apply %s to %s: %w", patchPath, docPath, err)
		}
	}

	if !flags.write {
		_, err := cmd.OutOrStdout().Write(patched)
		return err
	}

	commit, err := fsutil.Commit(ctx, snap, original, patched, fsutil.CommitOptions{
		Backup: cfg.Backups.Enabled,
		Mode:   fsutil.BackupMode(cfg.Backups.Mode),
	})
	if err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	if commit.Written {
		logger.Info("patched document", logging.FieldPath, docPath)
	}
	if commit.BackupPath != "" {
		_, err = io.WriteString(cmd.ErrOrStderr(), "backup: "+commit.BackupPath+"\n")
	}
	return err
}
