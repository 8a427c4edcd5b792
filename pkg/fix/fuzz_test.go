package fix_test

import (
	"testing"

	"github.com/yaklabco/docqa/pkg/fix"
)

func FuzzGenerateDiff(f *testing.F) {
	f.Add("", "")
	f.Add("This is teh example.", "This is the example.")
	f.Add("a\nb\nc\n", "a\nc\n")
	f.Add("a\nb", "a\nb\n")
	f.Add("--- a\n+++ b\n", "@@ -1 +1 @@\n")
	f.Add("\\ marker\n", "\\ marker")

	f.Fuzz(func(t *testing.T, original, modified string) {
		diff := fix.GenerateDiff(fix.DefaultOrigName, fix.DefaultNewName, []byte(original), []byte(modified))

		if original == modified {
			if diff != nil {
				t.Fatalf("expected nil diff for identical input, got %q", diff.String())
			}
			return
		}
		if diff == nil {
			t.Fatalf("nil diff for different inputs %q and %q", original, modified)
		}

		got, err := fix.ApplyPatch([]byte(original), diff.String())
		if err != nil {
			t.Fatalf("ApplyPatch failed: %v\ndiff:\n%s", err, diff.String())
		}
		if string(got) != modified {
			t.Fatalf("round trip mismatch: got %q, want %q", got, modified)
		}
	})
}

func FuzzApplyEdits(f *testing.F) {
	f.Add("hello world", 0, 5, "hi")
	f.Add("abc", 1, 1, "X")
	f.Add("", 0, 0, "new")

	f.Fuzz(func(t *testing.T, content string, start, end int, newText string) {
		if start < 0 || end < start || end > len(content) {
			return
		}

		edits := []fix.TextEdit{{StartOffset: start, EndOffset: end, NewText: newText}}
		if err := fix.ValidateEdits(edits, len(content)); err != nil {
			t.Fatalf("ValidateEdits rejected a valid edit: %v", err)
		}

		got := string(fix.ApplyEdits([]byte(content), edits))
		want := content[:start] + newText + content[end:]
		if got != want {
			t.Fatalf("ApplyEdits() = %q, want %q", got, want)
		}
	})
}
