package cli

import (
	"errors"

	"github.com/yaklabco/docqa/internal/configloader"
	"github.com/yaklabco/docqa/pkg/fsutil"
	"github.com/yaklabco/docqa/pkg/pipeline"
)

// Exit codes for docqa.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0

	// ExitRejected indicates the proposed edit batch was a malformed tool call.
	ExitRejected = 1

	// ExitError indicates a command failed for any other reason, such as a
	// patch that does not apply.
	ExitError = 2

	// ExitInvalidUsage indicates invalid command-line usage.
	ExitInvalidUsage = 64

	// ExitConfigError indicates configuration file errors.
	ExitConfigError = 65

	// ExitInternalError indicates an internal error.
	ExitInternalError = 70

	// ExitIOError indicates file I/O errors.
	ExitIOError = 74
)

// ErrUsage marks errors caused by bad arguments or flags.
var ErrUsage = errors.New("invalid usage")

// ExitCodeFromError maps a command error to a process exit code.
func ExitCodeFromError(err error) int {
	var cfgErr *configloader.ValidationError

	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrReviewRejected):
		return ExitRejected
	case errors.Is(err, ErrUsage):
		return ExitInvalidUsage
	case errors.As(err, &cfgErr), errors.Is(err, errConfigLoad):
		return ExitConfigError
	case errors.Is(err, pipeline.ErrDiffVerification):
		return ExitInternalError
	case errors.Is(err, fsutil.ErrNotFound),
		errors.Is(err, fsutil.ErrPermissionDenied),
		errors.Is(err, fsutil.ErrIsDirectory),
		errors.Is(err, fsutil.ErrModified):
		return ExitIOError
	default:
		return ExitError
	}
}
