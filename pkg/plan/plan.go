// Package plan resolves model-proposed edits to unique, allowed byte spans.
//
// Planning is all-or-nothing: the first issue that cannot be located exactly
// once in editable text, or the first pair of resolved edits that overlap,
// rejects the whole batch with a *MalformedToolCall.
package plan

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/yaklabco/docqa/pkg/fix"
	"github.com/yaklabco/docqa/pkg/model"
	"github.com/yaklabco/docqa/pkg/region"
)

// Plan resolves every issue against doc and returns the accepted edits sorted by
// start offset. Fenced code is editable only when codeEditAllowed is true; inline
// code and URLs are never editable.
func Plan(doc string, regions []region.Region, codeEditAllowed bool, issues []model.Issue) ([]fix.TextEdit, error) {
	blocked := blockedRegions(regions, codeEditAllowed)

	edits := make([]fix.TextEdit, 0, len(issues))
	for idx, issue := range issues {
		edit, err := resolve(doc, blocked, issue)
		if err != nil {
			return nil, err
		}
		edit.IssueIndex = idx
		edits = append(edits, edit)
	}

	fix.SortEdits(edits)

	var conflict *fix.ConflictError
	if err := fix.DetectConflicts(edits); errors.As(err, &conflict) {
		prev, next := conflict.Prev.IssueID, conflict.Next.IssueID
		return nil, &MalformedToolCall{
			Kind:     KindOverlap,
			Reason:   fmt.Sprintf("Overlapping edits between issues '%s' and '%s'.", prev, next),
			IssueIDs: []string{prev, next},
		}
	}

	return edits, nil
}

// blockedRegions returns the regions edits may not touch under the code policy.
func blockedRegions(regions []region.Region, codeEditAllowed bool) []region.Region {
	blocked := make([]region.Region, 0, len(regions))
	for _, reg := range regions {
		if reg.Kind == region.KindFencedCode && codeEditAllowed {
			continue
		}
		blocked = append(blocked, reg)
	}
	return blocked
}

// resolve locates the single allowed occurrence of the issue's replace_text.
func resolve(doc string, blocked []region.Region, issue model.Issue) (fix.TextEdit, error) {
	needle := issue.ReplaceText

	occurrences := findAll(doc, needle)
	if len(occurrences) == 0 {
		return fix.TextEdit{}, &MalformedToolCall{
			Kind:     KindNotFound,
			Reason:   fmt.Sprintf("Replacement text not found outside protected regions for issue '%s'.", issue.ID),
			IssueIDs: []string{issue.ID},
		}
	}

	var allowed []model.Span
	var hitKinds []string
	for _, span := range occurrences {
		kinds := blockingKinds(span, blocked)
		if len(kinds) == 0 {
			allowed = append(allowed, span)
			continue
		}
		for _, kind := range kinds {
			if !slices.Contains(hitKinds, kind) {
				hitKinds = append(hitKinds, kind)
			}
		}
	}

	switch len(allowed) {
	case 0:
		return fix.TextEdit{}, &MalformedToolCall{
			Kind: KindForbiddenRegion,
			Reason: fmt.Sprintf("Replacement text for issue '%s' only occurs inside protected regions (%s).",
				issue.ID, strings.Join(hitKinds, ", ")),
			IssueIDs: []string{issue.ID},
		}
	case 1:
		return fix.ReplaceSpan(issue.ID, allowed[0], issue.ReplaceWith), nil
	default:
		return fix.TextEdit{}, &MalformedToolCall{
			Kind: KindAmbiguousMatch,
			Reason: fmt.Sprintf("Replacement text is ambiguous (occurs %d times) for issue '%s'.",
				len(allowed), issue.ID),
			IssueIDs: []string{issue.ID},
		}
	}
}

// findAll returns every occurrence of needle in doc, including overlapping ones.
// An empty needle has no occurrences.
func findAll(doc, needle string) []model.Span {
	if needle == "" {
		return nil
	}

	var spans []model.Span
	for from := 0; from <= len(doc)-len(needle); {
		idx := strings.Index(doc[from:], needle)
		if idx < 0 {
			break
		}
		start := from + idx
		spans = append(spans, model.Span{Start: start, End: start + len(needle)})
		from = start + 1
	}
	return spans
}

// blockingKinds returns the kinds of blocked regions that span intersects.
func blockingKinds(span model.Span, blocked []region.Region) []string {
	var kinds []string
	for _, reg := range blocked {
		if reg.Intersects(span) {
			kinds = append(kinds, reg.Kind.String())
		}
	}
	return kinds
}
