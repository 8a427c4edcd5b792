package pretty_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yaklabco/docqa/internal/ui/pretty"
)

const sampleDiff = "--- doc_before.md\n" +
	"+++ doc_after.md\n" +
	"@@ -1,2 +1,2 @@\n" +
	" \tindented context\n" +
	"-very good\n" +
	"+good\n" +
	`\ No newline at end of file` + "\n"

func TestFormatDiff_NoColorIsVerbatim(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(false)
	assert.Equal(t, sampleDiff, styles.FormatDiff(sampleDiff))
	assert.Empty(t, styles.FormatDiff(""))
}

func TestFormatDiff_Color(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(true)
	got := styles.FormatDiff(sampleDiff)

	assert.Equal(t, strings.Count(sampleDiff, "\n"), strings.Count(got, "\n"))
	for _, want := range []string{"--- doc_before.md", "+++ doc_after.md", "@@ -1,2 +1,2 @@", "-very good", "+good"} {
		assert.Contains(t, got, want)
	}
}
