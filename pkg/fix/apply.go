package fix

import "bytes"

// ApplyEdits returns content with every edit substituted. Edits must be sorted
// by start and non-overlapping, as produced by PrepareEdits or the planner.
// Offsets are in original-content coordinates, so a single cursor walks the
// input left to right: copy the untouched gap, write the replacement, skip
// the replaced span. Neither content nor edits is modified.
func ApplyEdits(content []byte, edits []TextEdit) []byte {
	size := len(content)
	for _, edit := range edits {
		size += len(edit.NewText) - edit.Span().Len()
	}

	out := bytes.NewBuffer(make([]byte, 0, max(size, 0)))
	cursor := 0
	for _, edit := range edits {
		out.Write(content[cursor:edit.StartOffset])
		out.WriteString(edit.NewText)
		cursor = edit.EndOffset
	}
	out.Write(content[cursor:])

	return out.Bytes()
}
