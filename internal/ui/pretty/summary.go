package pretty

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yaklabco/docqa/pkg/fix"
	"github.com/yaklabco/docqa/pkg/pipeline"
)

const summaryDividerWidth = 40

// FormatReport formats a successful run: accepted issues, skipped duplicates,
// lint findings, and a summary block.
func (s *Styles) FormatReport(path, doc string, out *pipeline.Output, showContext bool) string {
	var builder strings.Builder

	edits := make(map[string]fix.TextEdit, len(out.Edits))
	for _, edit := range out.Edits {
		edits[edit.IssueID] = edit
	}

	if len(out.AcceptedIssues) > 0 {
		builder.WriteString(s.FileHeader(path, len(out.AcceptedIssues)) + "\n")
		for _, issue := range out.AcceptedIssues {
			var edit *fix.TextEdit
			if found, ok := edits[issue.ID]; ok {
				edit = &found
			}
			builder.WriteString(s.FormatIssue(path, doc, issue, edit))
		}
	}

	for _, dup := range out.Duplicates {
		builder.WriteString(s.FormatDuplicate(dup))
	}

	if len(out.LintFindings) > 0 {
		builder.WriteString("\n" + s.SummaryTitle.Render("Lint findings") + "\n")
		for _, finding := range out.LintFindings {
			builder.WriteString(s.FormatFinding(path, doc, finding, showContext))
		}
	}

	builder.WriteString(s.FormatSummary(out))
	return builder.String()
}

// FileHeader formats a document header for grouped output.
func (s *Styles) FileHeader(path string, issueCount int) string {
	header := s.FilePath.Render(path)
	if issueCount > 0 {
		header += s.Dim.Render(fmt.Sprintf(" (%d %s)", issueCount, plural(issueCount, "issue", "issues")))
	}
	return header
}

// FormatSummaryOneLine formats run statistics as a single line.
// Example: "2 edits applied (+2 -2), 1 duplicate skipped, 3 lint findings".
func (s *Styles) FormatSummaryOneLine(out *pipeline.Output) string {
	if len(out.Edits) == 0 && len(out.Duplicates) == 0 && len(out.LintFindings) == 0 {
		return s.Success.Render("No changes") + "\n"
	}

	var parts []string
	if n := len(out.Edits); n > 0 {
		parts = append(parts, s.Success.Render(fmt.Sprintf("%d %s applied", n, plural(n, "edit", "edits")))+
			s.Dim.Render(fmt.Sprintf(" (+%d -%d)", out.Additions, out.Deletions)))
	} else {
		parts = append(parts, "no edits applied")
	}
	if n := len(out.Duplicates); n > 0 {
		parts = append(parts, s.Dim.Render(fmt.Sprintf("%d %s skipped", n, plural(n, "duplicate", "duplicates"))))
	}
	if n := len(out.LintFindings); n > 0 {
		parts = append(parts, s.Warning.Render(fmt.Sprintf("%d lint %s", n, plural(n, "finding", "findings"))))
	}

	return strings.Join(parts, ", ") + "\n"
}

// FormatSummary formats run statistics as a summary block.
func (s *Styles) FormatSummary(out *pipeline.Output) string {
	var builder strings.Builder

	builder.WriteString("\n")
	builder.WriteString(s.SummaryTitle.Render("Summary"))
	builder.WriteString("\n")
	builder.WriteString(strings.Repeat("-", summaryDividerWidth))
	builder.WriteString("\n")

	builder.WriteString("  Issues resolved:   " +
		s.SummaryValue.Render(strconv.Itoa(out.ResolvedEditCount)) + "\n")
	builder.WriteString("  Edits applied:     " +
		s.SummaryValue.Render(strconv.Itoa(len(out.Edits))) + "\n")

	if len(out.Duplicates) > 0 {
		builder.WriteString("  Duplicates:        " +
			s.Dim.Render(strconv.Itoa(len(out.Duplicates))) + "\n")
	}
	if len(out.LintFindings) > 0 {
		builder.WriteString("  Lint findings:     " +
			s.Warning.Render(strconv.Itoa(len(out.LintFindings))) + "\n")
	}
	if out.Additions > 0 || out.Deletions > 0 {
		builder.WriteString("  Lines changed:     " +
			s.DiffAdd.Render("+"+strconv.Itoa(out.Additions)) + " " +
			s.DiffRemove.Render("-"+strconv.Itoa(out.Deletions)) + "\n")
	}

	builder.WriteString("\n")
	if len(out.Edits) > 0 {
		builder.WriteString(s.Success.Render("Edits accepted"))
	} else {
		builder.WriteString(s.Success.Render("Nothing to change"))
	}
	builder.WriteString("\n")

	return builder.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
