package dedupe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yaklabco/docqa/pkg/dedupe"
	"github.com/yaklabco/docqa/pkg/fix"
	"github.com/yaklabco/docqa/pkg/model"
)

func finding(id string, start, end int) model.LintFinding {
	return model.LintFinding{ID: id, Rule: "style", Message: "m", Severity: model.SeverityInfo, Start: start, End: end}
}

const docSize = 30

func TestFilter(t *testing.T) {
	t.Parallel()

	issues := []model.Issue{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	edits := []fix.TextEdit{
		{IssueID: "a", IssueIndex: 0, StartOffset: 0, EndOffset: 4, NewText: "A"},
		{IssueID: "b", IssueIndex: 1, StartOffset: 10, EndOffset: 14, NewText: "B"},
		{IssueID: "c", IssueIndex: 2, StartOffset: 20, EndOffset: 24, NewText: "C"},
	}

	tests := []struct {
		name       string
		findings   []model.LintFinding
		wantEdits  []string
		wantIssues []string
		wantDups   []string
	}{
		{
			name:       "no findings",
			findings:   nil,
			wantEdits:  []string{"a", "b", "c"},
			wantIssues: []string{"a", "b", "c"},
		},
		{
			name:       "exact span match",
			findings:   []model.LintFinding{finding("f1", 10, 14)},
			wantEdits:  []string{"a", "c"},
			wantIssues: []string{"a", "c"},
			wantDups:   []string{"b"},
		},
		{
			name:       "partial overlap counts",
			findings:   []model.LintFinding{finding("f1", 3, 8)},
			wantEdits:  []string{"b", "c"},
			wantIssues: []string{"b", "c"},
			wantDups:   []string{"a"},
		},
		{
			name:       "touching spans do not count",
			findings:   []model.LintFinding{finding("f1", 4, 10), finding("f2", 24, 30)},
			wantEdits:  []string{"a", "b", "c"},
			wantIssues: []string{"a", "b", "c"},
		},
		{
			name:       "finding spanning several edits",
			findings:   []model.LintFinding{finding("f1", 2, 22)},
			wantEdits:  []string{},
			wantIssues: []string{},
			wantDups:   []string{"a", "b", "c"},
		},
		{
			name:       "empty and inverted findings never match",
			findings:   []model.LintFinding{finding("f1", 11, 11), finding("f2", 14, 10), finding("f3", -5, 2)},
			wantEdits:  []string{"a", "b", "c"},
			wantIssues: []string{"a", "b", "c"},
		},
		{
			name:       "findings past the document end never match",
			findings:   []model.LintFinding{finding("f1", 20, docSize+1)},
			wantEdits:  []string{"a", "b", "c"},
			wantIssues: []string{"a", "b", "c"},
		},
		{
			name:       "finding ending at the document end matches",
			findings:   []model.LintFinding{finding("f1", 22, docSize)},
			wantEdits:  []string{"a", "b"},
			wantIssues: []string{"a", "b"},
			wantDups:   []string{"c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := dedupe.Filter(edits, issues, tt.findings, docSize)

			gotEdits := []string{}
			for _, e := range res.Edits {
				gotEdits = append(gotEdits, e.IssueID)
			}
			var gotDups []string
			for _, d := range res.Duplicates {
				gotDups = append(gotDups, d.IssueID)
			}

			assert.Equal(t, tt.wantEdits, gotEdits)
			assert.Equal(t, tt.wantIssues, model.IssueIDs(res.Issues))
			assert.Equal(t, tt.wantDups, gotDups)
		})
	}
}

func TestFilter_RecordsFinding(t *testing.T) {
	t.Parallel()

	res := dedupe.Filter(
		[]fix.TextEdit{{IssueID: "x", StartOffset: 5, EndOffset: 9}},
		[]model.Issue{{ID: "x"}},
		[]model.LintFinding{finding("hedge:0", 0, 3), finding("wordy:6", 6, 7)},
		docSize,
	)

	if assert.Len(t, res.Duplicates, 1) {
		assert.Equal(t, "wordy:6", res.Duplicates[0].FindingID)
		assert.Equal(t, 5, res.Duplicates[0].Edit.StartOffset)
	}
}

func TestFilter_KeepsIssuesWithoutEdits(t *testing.T) {
	t.Parallel()

	res := dedupe.Filter(nil, []model.Issue{{ID: "orphan"}}, []model.LintFinding{finding("f", 0, docSize)}, docSize)

	assert.Empty(t, res.Edits)
	assert.Equal(t, []string{"orphan"}, model.IssueIDs(res.Issues))
	assert.Empty(t, res.Duplicates)
}

func TestFilter_SharedIssueIDs(t *testing.T) {
	t.Parallel()

	issues := []model.Issue{
		{ID: "x", ReplaceText: "alpha", ReplaceWith: "ALPHA"},
		{ID: "x", ReplaceText: "gamma", ReplaceWith: "GAMMA"},
	}
	edits := []fix.TextEdit{
		{IssueID: "x", IssueIndex: 0, StartOffset: 0, EndOffset: 5, NewText: "ALPHA"},
		{IssueID: "x", IssueIndex: 1, StartOffset: 11, EndOffset: 16, NewText: "GAMMA"},
	}

	res := dedupe.Filter(edits, issues, []model.LintFinding{finding("f1", 0, 5)}, len("alpha beta gamma"))

	if assert.Len(t, res.Edits, 1) {
		assert.Equal(t, 1, res.Edits[0].IssueIndex)
	}
	if assert.Len(t, res.Issues, 1) {
		assert.Equal(t, "gamma", res.Issues[0].ReplaceText)
	}
	assert.Len(t, res.Duplicates, 1)
}
