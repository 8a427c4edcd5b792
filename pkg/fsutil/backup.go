package fsutil

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// BackupMode selects where backups are written.
type BackupMode string

const (
	// BackupModeSidecar writes the backup next to the document.
	BackupModeSidecar BackupMode = "sidecar"

	// BackupModeNone disables backups.
	BackupModeNone BackupMode = "none"
)

// BackupSuffix is appended to the document path in sidecar mode.
const BackupSuffix = ".docqa.bak"

// BackupPath returns the backup location for path, or "" when mode disables backups.
func BackupPath(path string, mode BackupMode) string {
	if mode == BackupModeNone {
		return ""
	}
	return path + BackupSuffix
}

// Backup copies original to the backup location for path. An existing backup
// is kept, so repeated runs preserve the oldest original. It reports whether
// a backup was written.
func Backup(ctx context.Context, path string, original []byte, mode BackupMode, perm os.FileMode) (bool, error) {
	backupPath := BackupPath(path, mode)
	if backupPath == "" {
		return false, nil
	}

	if _, err := os.Stat(backupPath); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat backup: %w", err)
	}

	if err := WriteAtomic(ctx, backupPath, original, perm); err != nil {
		return false, fmt.Errorf("write backup: %w", err)
	}
	return true, nil
}
