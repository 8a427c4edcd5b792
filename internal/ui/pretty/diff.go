package pretty

import (
	"strings"
)

// FormatDiff colorizes a unified diff line by line. Without color the diff is
// returned byte for byte, so the output can be fed back to `docqa apply`.
func (s *Styles) FormatDiff(diff string) string {
	if diff == "" || !s.colored {
		return diff
	}

	var builder strings.Builder
	lines := strings.SplitAfter(diff, "\n")
	for _, line := range lines {
		if line == "" {
			continue
		}
		body := strings.TrimSuffix(line, "\n")
		newline := line[len(body):]

		switch {
		case strings.HasPrefix(body, "---"), strings.HasPrefix(body, "+++"):
			builder.WriteString(s.DiffHeader.Render(body))
		case strings.HasPrefix(body, "@@"):
			builder.WriteString(s.DiffHunk.Render(body))
		case strings.HasPrefix(body, "+"):
			builder.WriteString(s.DiffAdd.Render(body))
		case strings.HasPrefix(body, "-"):
			builder.WriteString(s.DiffRemove.Render(body))
		case strings.HasPrefix(body, `\`):
			builder.WriteString(s.Dim.Render(body))
		default:
			builder.WriteString(s.DiffContext.Render(body))
		}
		builder.WriteString(newline)
	}

	return builder.String()
}
