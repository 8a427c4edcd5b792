// Package fix resolves, applies, and diffs byte-offset text edits.
package fix

import "github.com/yaklabco/docqa/pkg/model"

// TextEdit represents a single text replacement in a document.
type TextEdit struct {
	// IssueID identifies the proposed edit this replacement was resolved from.
	IssueID string `json:"issue_id"`

	// IssueIndex is the position of that proposed edit in its batch. Ids are
	// not required to be unique, so the index is what ties an edit to its issue.
	IssueIndex int `json:"issue_index"`

	// StartOffset is the byte index where the edit begins (inclusive).
	StartOffset int `json:"start"`

	// EndOffset is the byte index where the edit ends (exclusive).
	EndOffset int `json:"end"`

	// NewText is the replacement text.
	NewText string `json:"new_text"`
}

// Span returns the byte range the edit replaces.
func (e TextEdit) Span() model.Span {
	return model.Span{Start: e.StartOffset, End: e.EndOffset}
}

// ReplaceSpan builds an edit that replaces span with newText on behalf of issueID.
func ReplaceSpan(issueID string, span model.Span, newText string) TextEdit {
	return TextEdit{
		IssueID:     issueID,
		StartOffset: span.Start,
		EndOffset:   span.End,
		NewText:     newText,
	}
}
