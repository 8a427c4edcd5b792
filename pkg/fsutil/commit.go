package fsutil

import (
	"context"
	"fmt"
)

// CommitOptions controls Commit.
type CommitOptions struct {
	// Backup enables a backup of the original before it is replaced.
	Backup bool

	// Mode selects the backup location. Empty means sidecar.
	Mode BackupMode
}

// CommitResult describes what Commit did.
type CommitResult struct {
	Written    bool
	BackupPath string
}

// Commit replaces the document described by snap with content. It fails with
// ErrModified when the file changed after it was read. Identical content is
// not rewritten.
func Commit(ctx context.Context, snap *Snapshot, original, content []byte, opts CommitOptions) (CommitResult, error) {
	var result CommitResult

	changed, err := snap.Changed(ctx)
	if err != nil {
		return result, err
	}
	if changed {
		return result, fmt.Errorf("%w: %s", ErrModified, snap.Path)
	}

	if string(original) == string(content) {
		return result, nil
	}

	if opts.Backup {
		mode := opts.Mode
		if mode == "" {
			mode = BackupModeSidecar
		}
		written, err := Backup(ctx, snap.Path, original, mode, snap.Mode)
		if err != nil {
			return result, err
		}
		if written {
			result.BackupPath = BackupPath(snap.Path, mode)
		}
	}

	if err := WriteAtomic(ctx, snap.Path, content, snap.Mode); err != nil {
		return result, err
	}
	result.Written = true
	return result, nil
}
