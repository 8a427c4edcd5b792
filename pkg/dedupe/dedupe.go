// Package dedupe drops model edits that restate an existing lint finding.
package dedupe

import (
	"github.com/yaklabco/docqa/pkg/fix"
	"github.com/yaklabco/docqa/pkg/model"
)

// Duplicate records a suppressed edit and the finding it collided with.
type Duplicate struct {
	IssueID   string            `json:"issue_id"`
	Edit      fix.TextEdit      `json:"edit"`
	FindingID string            `json:"finding_id"`
	Finding   model.LintFinding `json:"-"`
}

// Result is the outcome of Filter.
type Result struct {
	// Edits are the resolved edits that survive, in their original order.
	Edits []fix.TextEdit

	// Issues are the input issues minus those whose edit was a duplicate, in input order.
	Issues []model.Issue

	// Duplicates lists every suppressed edit.
	Duplicates []Duplicate
}

// Filter removes every edit whose span shares at least one byte with a lint
// finding, together with the issue that proposed it. Edits are tied to issues
// by IssueIndex, so issues sharing an id are kept or dropped independently.
// Findings whose span is empty, negative or past docSize never match. Issues
// without a resolved edit are kept.
func Filter(edits []fix.TextEdit, issues []model.Issue, findings []model.LintFinding, docSize int) Result {
	spans := make([]model.LintFinding, 0, len(findings))
	for _, finding := range findings {
		if finding.Span().ValidIn(docSize) {
			spans = append(spans, finding)
		}
	}

	res := Result{Edits: make([]fix.TextEdit, 0, len(edits))}
	dropped := make(map[int]bool)

	for _, edit := range edits {
		finding, hit := firstHit(edit.Span(), spans)
		if !hit {
			res.Edits = append(res.Edits, edit)
			continue
		}
		dropped[edit.IssueIndex] = true
		res.Duplicates = append(res.Duplicates, Duplicate{
			IssueID:   edit.IssueID,
			Edit:      edit,
			FindingID: finding.ID,
			Finding:   finding,
		})
	}

	res.Issues = make([]model.Issue, 0, len(issues))
	for idx, issue := range issues {
		if dropped[idx] {
			continue
		}
		res.Issues = append(res.Issues, issue)
	}

	return res
}

func firstHit(span model.Span, findings []model.LintFinding) (model.LintFinding, bool) {
	for _, finding := range findings {
		if span.Intersects(finding.Span()) {
			return finding, true
		}
	}
	return model.LintFinding{}, false
}
