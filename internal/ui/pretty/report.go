package pretty

import (
	"fmt"
	"strings"

	"github.com/yaklabco/docqa/pkg/dedupe"
	"github.com/yaklabco/docqa/pkg/fix"
	"github.com/yaklabco/docqa/pkg/model"
	"github.com/yaklabco/docqa/pkg/plan"
)

// Position is a 1-based line and byte column within a document.
type Position struct {
	Line   int
	Column int

	// Text is the full line containing the offset, without its newline.
	Text string
}

// PositionAt converts a byte offset of doc into a Position. Offsets outside
// the document are clamped.
func PositionAt(doc string, offset int) Position {
	offset = max(0, min(offset, len(doc)))

	lineStart := strings.LastIndexByte(doc[:offset], '\n') + 1
	lineEnd := strings.IndexByte(doc[offset:], '\n')
	if lineEnd < 0 {
		lineEnd = len(doc)
	} else {
		lineEnd += offset
	}

	return Position{
		Line:   strings.Count(doc[:offset], "\n") + 1,
		Column: offset - lineStart + 1,
		Text:   doc[lineStart:lineEnd],
	}
}

// FormatSeverity returns a styled severity string.
func (s *Styles) FormatSeverity(sev model.Severity) string {
	switch sev {
	case model.SeverityError:
		return s.Error.Render("error")
	case model.SeverityWarning:
		return s.Warning.Render("warning")
	case model.SeverityInfo:
		return s.Info.Render("info")
	default:
		return string(sev)
	}
}

// FormatIssue formats an accepted model issue. The edit locates it in doc;
// a nil edit prints the issue without a position.
func (s *Styles) FormatIssue(path, doc string, issue model.Issue, edit *fix.TextEdit) string {
	var builder strings.Builder

	location := s.FilePath.Render(path)
	var pos Position
	if edit != nil {
		pos = PositionAt(doc, edit.StartOffset)
		location = fmt.Sprintf("%s:%d:%d", location, pos.Line, pos.Column)
	}

	builder.WriteString(fmt.Sprintf("  %s  %s  %s  %s\n",
		location,
		s.FormatSeverity(issue.Severity),
		s.Message.Render(issue.Message),
		s.RuleID.Render("("+issue.ID+" "+issue.Rule+")"),
	))

	builder.WriteString("    " + s.DiffRemove.Render(quote(issue.ReplaceText)) +
		s.Dim.Render(" -> ") + s.DiffAdd.Render(quote(issue.ReplaceWith)) + "\n")

	if alt, ok := issue.AltReplacement(); ok && alt != issue.ReplaceWith {
		builder.WriteString("    " + s.Dim.Render("Suggestion:") + " " + s.Suggestion.Render(alt) + "\n")
	}
	for _, option := range issue.Replacements {
		builder.WriteString("    " + s.Dim.Render(option.Label+":") + " " + s.Suggestion.Render(option.Text) + "\n")
	}

	return builder.String()
}

// FormatFinding formats a lint finding, with the offending source line and a
// caret when showContext is set.
func (s *Styles) FormatFinding(path, doc string, finding model.LintFinding, showContext bool) string {
	var builder strings.Builder

	pos := PositionAt(doc, finding.Start)
	builder.WriteString(fmt.Sprintf("  %s:%d:%d  %s  %s  %s\n",
		s.FilePath.Render(path),
		pos.Line,
		pos.Column,
		s.FormatSeverity(finding.Severity),
		s.Message.Render(finding.Message),
		s.RuleID.Render("("+finding.Rule+")"),
	))

	if showContext && pos.Text != "" {
		width := max(1, min(finding.End-finding.Start, len(pos.Text)-pos.Column+1))
		builder.WriteString(s.FormatSourceContext(pos.Text, pos.Column, width))
	}

	return builder.String()
}

// FormatSourceContext formats the source line with a caret marker under
// width bytes starting at column.
func (s *Styles) FormatSourceContext(line string, column, width int) string {
	const indent = "        "

	var builder strings.Builder
	builder.WriteString(indent + s.SourceLine.Render(line) + "\n")
	if column > 0 {
		padding := indent + strings.Repeat(" ", column-1)
		builder.WriteString(padding + s.Caret.Render(strings.Repeat("^", max(1, width))) + "\n")
	}
	return builder.String()
}

// FormatDuplicate formats an edit that was dropped because a lint finding
// already covers it.
func (s *Styles) FormatDuplicate(dup dedupe.Duplicate) string {
	return fmt.Sprintf("  %s %s %s\n",
		s.Dim.Render("skipped"),
		s.RuleID.Render(dup.IssueID),
		s.Dim.Render("(duplicates lint finding "+dup.FindingID+")"),
	)
}

// FormatRejection formats a rejected edit batch.
func (s *Styles) FormatRejection(path string, mtc *plan.MalformedToolCall) string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("%s  %s  %s\n",
		s.FilePath.Render(path),
		s.Failure.Render("rejected"),
		s.RejectKind.Render(string(mtc.Kind)),
	))
	builder.WriteString("  " + s.Reason.Render(mtc.Reason) + "\n")
	if len(mtc.IssueIDs) > 0 {
		builder.WriteString("  " + s.Dim.Render("Issues:") + " " + strings.Join(mtc.IssueIDs, ", ") + "\n")
	}

	return builder.String()
}

func quote(text string) string {
	const limit = 60
	if runes := []rune(text); len(runes) > limit {
		text = string(runes[:limit]) + "..."
	}
	return fmt.Sprintf("%q", text)
}
