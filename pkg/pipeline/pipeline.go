// Package pipeline runs the edit-validation core: plan, deduplicate, apply,
// diff, and verify. It performs no I/O and keeps no state between calls.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/yaklabco/docqa/pkg/dedupe"
	"github.com/yaklabco/docqa/pkg/fix"
	"github.com/yaklabco/docqa/pkg/model"
	"github.com/yaklabco/docqa/pkg/plan"
	"github.com/yaklabco/docqa/pkg/region"
)

// ErrDiffVerification is returned when the generated diff fails to reproduce the
// updated document. It indicates a bug, not a bad edit batch.
var ErrDiffVerification = errors.New("generated diff failed round-trip verification")

// Options tune a single run.
type Options struct {
	// OrigName and NewName label the diff headers. Empty values use the fix defaults.
	OrigName string
	NewName  string

	// SkipVerify disables the round-trip check of the generated diff.
	SkipVerify bool
}

// Input is everything a run needs.
type Input struct {
	Document        string
	CodeEditAllowed bool
	Issues          []model.Issue
	LintFindings    []model.LintFinding
	Options         Options

	// Regions may be supplied when the caller already ran region.Detect on Document.
	// Nil means detect here.
	Regions []region.Region
}

// Output is the result of a successful run.
type Output struct {
	ResolvedEditCount int                 `json:"resolved_edit_count"`
	UpdatedDocument   string              `json:"updated_document"`
	Diff              string              `json:"diff"`
	AcceptedIssues    []model.Issue       `json:"accepted_issues"`
	LintFindings      []model.LintFinding `json:"lint_findings"`
	Duplicates        []dedupe.Duplicate  `json:"duplicates,omitempty"`

	// Edits are the edits actually applied, sorted by start.
	Edits []fix.TextEdit `json:"edits"`

	// Stats are the diff's line counts.
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// Run validates the proposed edits against the document and, if the whole batch
// is acceptable, applies it. Rejections are *plan.MalformedToolCall.
func Run(in Input) (*Output, error) {
	regions := in.Regions
	if regions == nil {
		regions = region.Detect(in.Document).Regions
	}

	resolved, err := plan.Plan(in.Document, regions, in.CodeEditAllowed, in.Issues)
	if err != nil {
		return nil, err
	}

	filtered := dedupe.Filter(resolved, in.Issues, in.LintFindings, len(in.Document))

	original := []byte(in.Document)
	edits, err := fix.PrepareEdits(filtered.Edits, len(original))
	if err != nil {
		return nil, fmt.Errorf("prepare edits: %w", err)
	}
	updated := fix.ApplyEdits(original, edits)

	origName, newName := in.Options.OrigName, in.Options.NewName
	if origName == "" {
		origName = fix.DefaultOrigName
	}
	if newName == "" {
		newName = fix.DefaultNewName
	}

	diff := fix.GenerateDiff(origName, newName, original, updated)
	if !in.Options.SkipVerify {
		if err := diff.Verify(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDiffVerification, err)
		}
	}

	out := &Output{
		ResolvedEditCount: len(resolved),
		UpdatedDocument:   string(updated),
		Diff:              diff.String(),
		AcceptedIssues:    filtered.Issues,
		LintFindings:      in.LintFindings,
		Duplicates:        filtered.Duplicates,
		Edits:             filtered.Edits,
	}
	if diff != nil {
		out.Additions = diff.Additions
		out.Deletions = diff.Deletions
	}
	if out.LintFindings == nil {
		out.LintFindings = []model.LintFinding{}
	}

	return out, nil
}
