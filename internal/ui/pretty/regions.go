package pretty

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yaklabco/docqa/pkg/region"
)

const regionPreviewWidth = 48

// FormatRegions lists the protected regions of doc, one per line, followed
// by the code ratio.
func (s *Styles) FormatRegions(path, doc string, result region.Result) string {
	var builder strings.Builder

	builder.WriteString(s.FilePath.Render(path) +
		s.Dim.Render(fmt.Sprintf(" (%d protected %s)", len(result.Regions), plural(len(result.Regions), "region", "regions"))) + "\n")

	for _, reg := range result.Regions {
		start := PositionAt(doc, reg.Start)
		end := PositionAt(doc, reg.End)

		kind := s.regionStyle(reg.Kind).Render(fmt.Sprintf("%-11s", reg.Kind))
		if reg.Lang != "" {
			kind += s.Dim.Render(" [" + reg.Lang + "]")
		}

		builder.WriteString(fmt.Sprintf("  %s  %s  %s  %s\n",
			kind,
			s.Location.Render(fmt.Sprintf("%d:%d-%d:%d", start.Line, start.Column, end.Line, end.Column)),
			s.Dim.Render(fmt.Sprintf("bytes %d-%d", reg.Start, reg.End)),
			s.SourceLine.Render(preview(doc[reg.Start:reg.End])),
		))
	}

	builder.WriteString(fmt.Sprintf("  %s %s\n", s.Dim.Render("code ratio:"), s.SummaryValue.Render(fmt.Sprintf("%.3f", result.CodeRatio))))
	return builder.String()
}

func (s *Styles) regionStyle(kind region.Kind) lipgloss.Style {
	switch kind {
	case region.KindFencedCode:
		return s.FencedCode
	case region.KindInlineCode:
		return s.InlineCode
	case region.KindURL:
		return s.URL
	default:
		return s.Dim
	}
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if runes := []rune(text); len(runes) > regionPreviewWidth {
		text = string(runes[:regionPreviewWidth]) + "..."
	}
	return text
}
