package pipeline_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/docqa/pkg/fix"
	"github.com/yaklabco/docqa/pkg/model"
	"github.com/yaklabco/docqa/pkg/pipeline"
	"github.com/yaklabco/docqa/pkg/plan"
)

func issue(id, replaceText, replaceWith string) model.Issue {
	return model.Issue{
		ID:          id,
		Rule:        "grammar",
		Message:     "fix it",
		Severity:    model.SeverityWarning,
		ReplaceText: replaceText,
		ReplaceWith: replaceWith,
	}
}

func TestRun_ScenarioTypo(t *testing.T) {
	t.Parallel()

	out, err := pipeline.Run(pipeline.Input{
		Document: "This is teh example.",
		Issues:   []model.Issue{issue("i1", "teh", "the")},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, out.ResolvedEditCount)
	assert.Equal(t, "This is the example.", out.UpdatedDocument)
	assert.Contains(t, out.Diff, "-This is teh example.\n")
	assert.Contains(t, out.Diff, "+This is the example.\n")
	assert.Contains(t, out.Diff, "--- doc_before.md\n+++ doc_after.md\n")
	assert.Equal(t, []string{"i1"}, model.IssueIDs(out.AcceptedIssues))
	assert.Equal(t, 1, out.Additions)
	assert.Equal(t, 1, out.Deletions)
}

func TestRun_ScenarioURL(t *testing.T) {
	t.Parallel()

	_, err := pipeline.Run(pipeline.Input{
		Document: "a url http://example.com",
		Issues:   []model.Issue{issue("u1", "example.com", "example.org")},
	})

	mtc, ok := plan.AsMalformed(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, plan.KindForbiddenRegion, mtc.Kind)
	assert.Contains(t, mtc.Reason, "url")
	assert.Equal(t, []string{"u1"}, mtc.IssueIDs)
}

func TestRun_ScenarioFencedCode(t *testing.T) {
	t.Parallel()

	doc := "```py\nprint( 1 )\n```"
	in := pipeline.Input{
		Document:        doc,
		CodeEditAllowed: true,
		Issues:          []model.Issue{issue("c1", "print( 1 )", "print(1)")},
	}

	out, err := pipeline.Run(in)
	require.NoError(t, err)
	assert.Equal(t, "```py\nprint(1)\n```", out.UpdatedDocument)

	in.CodeEditAllowed = false
	_, err = pipeline.Run(in)
	assert.ErrorIs(t, err, &plan.MalformedToolCall{Kind: plan.KindForbiddenRegion})
}

func TestRun_DuplicateWithSharedIssueID(t *testing.T) {
	t.Parallel()

	out, err := pipeline.Run(pipeline.Input{
		Document: "alpha beta gamma",
		Issues: []model.Issue{
			issue("x", "alpha", "ALPHA"),
			issue("x", "gamma", "GAMMA"),
		},
		LintFindings: []model.LintFinding{
			{ID: "style:0", Rule: "style", Message: "m", Severity: model.SeverityInfo, Start: 0, End: 5},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "alpha beta GAMMA", out.UpdatedDocument)
	require.Len(t, out.Edits, 1)
	require.Len(t, out.AcceptedIssues, 1)
	assert.Equal(t, "gamma", out.AcceptedIssues[0].ReplaceText)
	assert.Len(t, out.Duplicates, 1)
}

func TestRun_NoIssues(t *testing.T) {
	t.Parallel()

	out, err := pipeline.Run(pipeline.Input{Document: "unchanged\n"})
	require.NoError(t, err)

	assert.Equal(t, "unchanged\n", out.UpdatedDocument)
	assert.Empty(t, out.Diff)
	assert.Zero(t, out.ResolvedEditCount)
	assert.NotNil(t, out.LintFindings)
}

func TestRun_DuplicateExcluded(t *testing.T) {
	t.Parallel()

	doc := "We utilize tools. Teh end."
	findings := []model.LintFinding{
		{ID: "wordy:3", Rule: "wordy", Message: "use 'use'", Severity: model.SeverityInfo, Start: 3, End: 10},
	}

	out, err := pipeline.Run(pipeline.Input{
		Document: doc,
		Issues: []model.Issue{
			issue("dup", "utilize", "use"),
			issue("keep", "Teh", "The"),
		},
		LintFindings: findings,
	})
	require.NoError(t, err)

	assert.Equal(t, "We utilize tools. The end.", out.UpdatedDocument)
	assert.Equal(t, []string{"keep"}, model.IssueIDs(out.AcceptedIssues))
	assert.Equal(t, findings, out.LintFindings)
	require.Len(t, out.Duplicates, 1)
	assert.Equal(t, "dup", out.Duplicates[0].IssueID)
	assert.Equal(t, 2, out.ResolvedEditCount)
	assert.Len(t, out.Edits, 1)
}

func TestRun_FailedResolutionIsNeverDropped(t *testing.T) {
	t.Parallel()

	// The lint finding covers the ambiguous text, but the batch still fails.
	_, err := pipeline.Run(pipeline.Input{
		Document:     "the the",
		Issues:       []model.Issue{issue("amb", "the", "a")},
		LintFindings: []model.LintFinding{{ID: "repeat:0", Start: 0, End: 7}},
	})

	mtc, ok := plan.AsMalformed(err)
	require.True(t, ok)
	assert.Equal(t, plan.KindAmbiguousMatch, mtc.Kind)
	assert.Contains(t, mtc.Reason, "occurs 2 times")
}

func TestRun_OverlapRejectsWholeBatch(t *testing.T) {
	t.Parallel()

	_, err := pipeline.Run(pipeline.Input{
		Document: "one two three",
		Issues: []model.Issue{
			issue("a", "one two", "1 2"),
			issue("b", "two three", "2 3"),
		},
	})

	mtc, ok := plan.AsMalformed(err)
	require.True(t, ok)
	assert.Equal(t, plan.KindOverlap, mtc.Kind)
	assert.ElementsMatch(t, []string{"a", "b"}, mtc.IssueIDs)
	assert.False(t, errors.Is(err, pipeline.ErrDiffVerification))
}

func TestRun_CustomDiffNames(t *testing.T) {
	t.Parallel()

	out, err := pipeline.Run(pipeline.Input{
		Document: "x\n",
		Issues:   []model.Issue{issue("i", "x", "y")},
		Options:  pipeline.Options{OrigName: "a/README.md", NewName: "b/README.md"},
	})
	require.NoError(t, err)
	assert.Contains(t, out.Diff, "--- a/README.md\n+++ b/README.md\n")
}

func FuzzRun_RoundTrip(f *testing.F) {
	f.Add("This is teh example.", "teh", "the", false)
	f.Add("line1\nline2\nline3", "line3", "line3\n", false)
	f.Add("```go\nx:=1\n```\nprose", "x:=1", "x := 1", true)
	f.Add("a\n\n\nb\n", "\n\n", "\n", false)

	f.Fuzz(func(t *testing.T, doc, replaceText, replaceWith string, codeEditAllowed bool) {
		out, err := pipeline.Run(pipeline.Input{
			Document:        doc,
			CodeEditAllowed: codeEditAllowed,
			Issues:          []model.Issue{issue("f", replaceText, replaceWith)},
		})
		if err != nil {
			if errors.Is(err, pipeline.ErrDiffVerification) {
				t.Fatalf("verification failed: %v", err)
			}
			return
		}

		patched, err := fix.ApplyPatch([]byte(doc), out.Diff)
		if err != nil {
			t.Fatalf("ApplyPatch: %v", err)
		}
		if string(patched) != out.UpdatedDocument {
			t.Fatalf("round trip mismatch: %q vs %q", patched, out.UpdatedDocument)
		}
	})
}
