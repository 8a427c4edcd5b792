// Package model defines the request-scoped values shared by the review pipeline:
// spans, proposed edits (issues), and lint findings.
package model

import "fmt"

// Severity is the severity level attached to an issue or lint finding.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// IsValid reports whether s is one of the known severities.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError:
		return true
	default:
		return false
	}
}

// Span is a half-open byte interval [Start, End) into a document.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("[%d:%d)", s.Start, s.End)
}

// Empty reports whether the span covers no bytes.
func (s Span) Empty() bool {
	return s.End <= s.Start
}

// Intersects reports whether s and other share at least one byte.
func (s Span) Intersects(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// Contains reports whether other lies entirely within s.
func (s Span) Contains(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// ValidIn reports whether s is a non-empty span inside a document of length n.
func (s Span) ValidIn(n int) bool {
	return s.Start >= 0 && s.Start < s.End && s.End <= n
}

// ReplacementOption is one labelled alternative a model may offer for an issue.
type ReplacementOption struct {
	Label string `json:"label" validate:"required"`
	Text  string `json:"text"`
}

// Issue is a single edit proposed by the model.
//
// Only ReplaceText and ReplaceWith drive planning. The remaining fields are
// metadata carried through to the response unchanged.
type Issue struct {
	ID       string   `json:"id" validate:"required"`
	Rule     string   `json:"rule" validate:"required"`
	Message  string   `json:"message" validate:"required"`
	Severity Severity `json:"severity" validate:"required,oneof=info warning error"`

	// ReplaceText is the exact text to find in the document.
	ReplaceText string `json:"replace_text" validate:"required"`

	// ReplaceWith is the exact text that replaces ReplaceText.
	ReplaceWith string `json:"replace_with"`

	// Replacement is an optional single suggestion. Nil means absent.
	Replacement *string `json:"replacement,omitempty"`

	// Replacements is an optional list of alternatives. Nil means absent.
	Replacements []ReplacementOption `json:"replacements,omitempty" validate:"omitempty,dive"`
}

// AltReplacement returns the optional single replacement and whether it was provided.
func (i Issue) AltReplacement() (string, bool) {
	if i.Replacement == nil {
		return "", false
	}
	return *i.Replacement, true
}

// HasReplacements reports whether the model supplied a list of alternatives.
func (i Issue) HasReplacements() bool {
	return i.Replacements != nil
}

// LintFinding is a diagnostic produced by the prose linter.
type LintFinding struct {
	ID       string   `json:"id"`
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Start    int      `json:"start"`
	End      int      `json:"end"`
}

// Span returns the finding's byte range.
func (f LintFinding) Span() Span {
	return Span{Start: f.Start, End: f.End}
}

// ReviewResponse is the structured review returned by the model.
type ReviewResponse struct {
	Version string  `json:"version" validate:"required"`
	Issues  []Issue `json:"issues" validate:"dive"`
}

// IssueIDs returns the ids of issues in order.
func IssueIDs(issues []Issue) []string {
	ids := make([]string, 0, len(issues))
	for _, issue := range issues {
		ids = append(ids, issue.ID)
	}
	return ids
}
