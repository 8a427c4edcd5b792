package fix

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// PatchError describes a unified diff that cannot be applied.
type PatchError struct {
	// Hunk is the 1-based index of the offending hunk (0 when not hunk specific).
	Hunk int

	// Message describes the failure.
	Message string
}

func (e *PatchError) Error() string {
	if e.Hunk > 0 {
		return fmt.Sprintf("patch hunk %d: %s", e.Hunk, e.Message)
	}
	return "patch: " + e.Message
}

// ErrDiffMismatch indicates that a generated diff does not reproduce its target.
var ErrDiffMismatch = errors.New("diff does not reproduce modified content")

// patchLine is one body line of a parsed hunk, with its terminator restored.
type patchLine struct {
	kind    DiffLineKind
	content string
}

// ApplyPatch applies a single-file unified diff to original and returns the result.
// The diff is parsed with go-diff; context and removed lines must then match
// exactly, and any mismatch is a *PatchError.
func ApplyPatch(original []byte, patch string) ([]byte, error) {
	if patch == "" {
		return bytes.Clone(original), nil
	}

	fileDiff, err := diff.ParseFileDiff([]byte(keepCarriageReturns(patch)))
	if err != nil {
		return nil, &PatchError{Message: err.Error()}
	}

	origLines := splitLines(original)

	var out bytes.Buffer
	out.Grow(len(original))

	cursor := 0
	for hunkIdx, hunk := range fileDiff.Hunks {
		lines, err := hunkLines(hunk)
		if err != nil {
			return nil, &PatchError{Hunk: hunkIdx + 1, Message: err.Error()}
		}

		at := int(hunk.OrigStartLine) - 1
		if hunk.OrigLines == 0 {
			at = int(hunk.OrigStartLine)
		}
		if at < cursor || at > len(origLines) {
			return nil, &PatchError{Hunk: hunkIdx + 1, Message: fmt.Sprintf("start line %d out of order or range", hunk.OrigStartLine)}
		}

		for _, line := range origLines[cursor:at] {
			out.WriteString(line)
		}
		cursor = at

		for _, line := range lines {
			switch line.kind {
			case DiffLineContext, DiffLineRemove:
				if cursor >= len(origLines) || origLines[cursor] != line.content {
					return nil, &PatchError{
						Hunk:    hunkIdx + 1,
						Message: fmt.Sprintf("line %d does not match %q", cursor+1, line.content),
					}
				}
				if line.kind == DiffLineContext {
					out.WriteString(line.content)
				}
				cursor++
			case DiffLineAdd:
				out.WriteString(line.content)
			}
		}
	}

	for _, line := range origLines[cursor:] {
		out.WriteString(line)
	}

	return out.Bytes(), nil
}

// keepCarriageReturns doubles the carriage return before every newline.
// go-diff drops one "\r" from each line it reads, so this keeps CRLF
// documents byte-exact through parsing.
func keepCarriageReturns(patch string) string {
	return strings.ReplaceAll(patch, "\r\n", "\r\r\n")
}

// hunkLines splits a go-diff hunk body into lines and checks them against the
// header counts. go-diff has already removed the terminator of lines followed
// by a "\ No newline at end of file" marker, except for removed lines, whose
// missing newline it records in OrigNoNewlineAt.
func hunkLines(hunk *diff.Hunk) ([]patchLine, error) {
	body := hunk.Body
	noNewlineAt := int(hunk.OrigNoNewlineAt)

	var lines []patchLine
	for offset := 0; offset < len(body); {
		next := len(body)
		if idx := bytes.IndexByte(body[offset:], '\n'); idx >= 0 {
			next = offset + idx + 1
		}
		raw := string(body[offset:next])
		if noNewlineAt > 0 && next == noNewlineAt {
			raw = strings.TrimSuffix(raw, "\n")
		}
		offset = next

		kind, ok := lineKind(raw[0])
		if !ok {
			return nil, fmt.Errorf("unexpected line %q", strings.TrimSuffix(raw, "\n"))
		}
		lines = append(lines, patchLine{kind: kind, content: raw[1:]})
	}

	if err := checkCounts(lines, int(hunk.OrigLines), int(hunk.NewLines)); err != nil {
		return nil, err
	}
	return lines, nil
}

// checkCounts verifies the body against the header line counts.
func checkCounts(lines []patchLine, origCount, newCount int) error {
	var orig, mod int
	for _, line := range lines {
		switch line.kind {
		case DiffLineContext:
			orig++
			mod++
		case DiffLineRemove:
			orig++
		case DiffLineAdd:
			mod++
		}
	}
	if orig != origCount || mod != newCount {
		return fmt.Errorf("body has %d/%d lines, header declares %d/%d", orig, mod, origCount, newCount)
	}
	return nil
}

func lineKind(marker byte) (DiffLineKind, bool) {
	switch marker {
	case ' ':
		return DiffLineContext, true
	case '+':
		return DiffLineAdd, true
	case '-':
		return DiffLineRemove, true
	default:
		return 0, false
	}
}

// PatchInfo summarizes a parsed unified diff.
type PatchInfo struct {
	// OrigName and NewName are the "---" and "+++" labels.
	OrigName string
	NewName  string

	// Hunks is the number of hunks in the diff.
	Hunks int

	// Additions and Deletions count added and removed lines.
	Additions int
	Deletions int
}

// ParsePatch parses a single-file unified diff with go-diff and summarizes it.
// Patches touching more than one file are rejected.
func ParsePatch(patch string) (*PatchInfo, error) {
	fileDiffs, err := diff.NewMultiFileDiffReader(strings.NewReader(patch)).ReadAllFiles()
	if err != nil {
		return nil, fmt.Errorf("parse unified diff: %w", err)
	}
	if len(fileDiffs) != 1 {
		return nil, &PatchError{Message: fmt.Sprintf("expected a single-file diff, found %d files", len(fileDiffs))}
	}

	fileDiff := fileDiffs[0]
	stat := fileDiff.Stat()

	return &PatchInfo{
		OrigName:  fileDiff.OrigName,
		NewName:   fileDiff.NewName,
		Hunks:     len(fileDiff.Hunks),
		Additions: int(stat.Added + stat.Changed),
		Deletions: int(stat.Deleted + stat.Changed),
	}, nil
}

// Verify checks that the diff text reproduces Modified when applied to Original.
// A nil diff is valid only for identical content, which GenerateDiff guarantees.
func (d *Diff) Verify() error {
	if d == nil {
		return nil
	}

	applied, err := ApplyPatch(d.Original, d.String())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDiffMismatch, err)
	}
	if !bytes.Equal(applied, d.Modified) {
		return ErrDiffMismatch
	}
	return nil
}
