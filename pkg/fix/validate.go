package fix

import (
	"cmp"
	"fmt"
	"slices"
)

// ValidationError reports an edit whose span does not fit the document.
type ValidationError struct {
	Edit    TextEdit
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("edit %q %s: %s", e.Edit.IssueID, e.Edit.Span(), e.Message)
}

// ConflictError reports two edits whose spans share at least one byte.
// Prev sorts before Next.
type ConflictError struct {
	Prev TextEdit
	Next TextEdit
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("edits %q %s and %q %s overlap",
		e.Prev.IssueID, e.Prev.Span(), e.Next.IssueID, e.Next.Span())
}

// ValidateEdits returns a *ValidationError for the first edit whose span is
// negative, inverted, or runs past size.
func ValidateEdits(edits []TextEdit, size int) error {
	for _, edit := range edits {
		var msg string
		switch {
		case edit.StartOffset < 0:
			msg = "negative start"
		case edit.EndOffset < edit.StartOffset:
			msg = "end before start"
		case edit.EndOffset > size:
			msg = fmt.Sprintf("end past document size %d", size)
		default:
			continue
		}
		return &ValidationError{Edit: edit, Message: msg}
	}
	return nil
}

// SortEdits orders edits by (start, end). Ties keep their input order.
func SortEdits(edits []TextEdit) {
	slices.SortStableFunc(edits, func(a, b TextEdit) int {
		return cmp.Or(
			cmp.Compare(a.StartOffset, b.StartOffset),
			cmp.Compare(a.EndOffset, b.EndOffset),
		)
	})
}

// DetectConflicts returns a *ConflictError for the first adjacent pair of
// sorted edits that overlap. Edits must already be ordered by SortEdits.
func DetectConflicts(sorted []TextEdit) error {
	for idx := 1; idx < len(sorted); idx++ {
		prev, next := sorted[idx-1], sorted[idx]
		if next.Span().Intersects(prev.Span()) {
			return &ConflictError{Prev: prev, Next: next}
		}
	}
	return nil
}

// PrepareEdits checks edits against size and returns a sorted, conflict-free
// copy ready for ApplyEdits. The input slice is left untouched.
func PrepareEdits(edits []TextEdit, size int) ([]TextEdit, error) {
	if len(edits) == 0 {
		return nil, nil
	}
	if err := ValidateEdits(edits, size); err != nil {
		return nil, err
	}

	sorted := slices.Clone(edits)
	SortEdits(sorted)
	if err := DetectConflicts(sorted); err != nil {
		return nil, err
	}
	return sorted, nil
}
