// Package langdetect guesses the language of fenced code blocks that carry no
// language tag. Guesses become hints in the review prompt so the model can
// propose a fence label.
package langdetect

import (
	"bytes"
	"strings"

	"github.com/go-enry/go-enry/v2"

	"github.com/yaklabco/docqa/pkg/region"
)

// Fence tags returned by Detect.
const (
	LangGo         = "go"
	LangPython     = "python"
	LangJavaScript = "javascript"
	LangJSON       = "json"
	LangYAML       = "yaml"
	LangHTML       = "html"
	LangSQL        = "sql"
	LangRust       = "rust"
	LangDockerfile = "dockerfile"
	LangBash       = "bash"

	// LangText means no confident guess.
	LangText = "text"
)

//nolint:gochecknoglobals // Read-only classifier candidates.
var classifierCandidates = []string{
	"Go", "Python", "Shell", "JavaScript", "TypeScript",
	"Ruby", "Rust", "Java", "C", "C++", "SQL", "JSON",
	"YAML", "HTML", "CSS", "Markdown", "Dockerfile",
}

// heuristic is a cheap, highly indicative check tried before the classifier.
type heuristic struct {
	lang  string
	match func(content, trimmed []byte) bool
}

//nolint:gochecknoglobals // Ordered by specificity.
var heuristics = []heuristic{
	{LangGo, func(_, trimmed []byte) bool {
		return bytes.HasPrefix(trimmed, []byte("package "))
	}},
	{LangPython, looksLikePython},
	{LangHTML, func(_, trimmed []byte) bool {
		lower := bytes.ToLower(trimmed)
		return containsAny(lower, "<!doctype html", "<html", "<head>", "<body>")
	}},
	{LangJSON, func(_, trimmed []byte) bool {
		return (bytes.HasPrefix(trimmed, []byte("{")) || bytes.HasPrefix(trimmed, []byte("["))) &&
			bytes.Contains(trimmed, []byte(`"`))
	}},
	{LangDockerfile, func(content, trimmed []byte) bool {
		return bytes.HasPrefix(trimmed, []byte("FROM ")) ||
			(bytes.Contains(content, []byte("\nFROM ")) && bytes.Contains(content, []byte("\nRUN "))) ||
			(bytes.Contains(content, []byte("WORKDIR ")) && bytes.Contains(content, []byte("COPY ")))
	}},
	{LangSQL, func(_, trimmed []byte) bool {
		upper := bytes.ToUpper(trimmed)
		for _, kw := range []string{"SELECT ", "INSERT ", "UPDATE ", "DELETE ", "CREATE "} {
			if bytes.HasPrefix(upper, []byte(kw)) {
				return true
			}
		}
		return false
	}},
	{LangRust, func(content, _ []byte) bool {
		return containsAny(content, "fn main()", "println!", "let mut ")
	}},
	{LangJavaScript, func(content, _ []byte) bool {
		return containsAny(content, "=>", "const ", "let ", "console.log")
	}},
	{LangYAML, looksLikeYAML},
}

// Detect returns the fence tag for content, or LangText when unsure.
// Shebangs win, then the heuristics above, then the go-enry classifier when it
// reports a safe result.
func Detect(content []byte) string {
	if len(bytes.TrimSpace(content)) == 0 {
		return LangText
	}

	if lang, safe := enry.GetLanguageByShebang(content); safe {
		return normalize(lang)
	}

	trimmed := bytes.TrimSpace(content)
	for _, h := range heuristics {
		if h.match(content, trimmed) {
			return h.lang
		}
	}

	if lang, safe := enry.GetLanguageByClassifier(content, classifierCandidates); safe && lang != "" {
		return normalize(lang)
	}

	return LangText
}

// Hint is a suggested language tag for an unlabeled fenced block.
type Hint struct {
	// Line is the 1-based line of the opening fence.
	Line int `json:"line"`

	// Language is the suggested fence tag.
	Language string `json:"language"`
}

// FenceHints guesses a language for every unlabeled fenced region of doc.
// Blocks whose guess is LangText are skipped.
func FenceHints(doc string, regions []region.Region) []Hint {
	var hints []Hint
	for _, reg := range regions {
		if reg.Kind != region.KindFencedCode || reg.Lang != "" {
			continue
		}

		lang := Detect([]byte(fenceBody(doc[reg.Start:reg.End])))
		if lang == LangText {
			continue
		}
		hints = append(hints, Hint{
			Line:     strings.Count(doc[:reg.Start], "\n") + 1,
			Language: lang,
		})
	}
	return hints
}

// fenceBody strips the opening and closing fence lines from a fenced block.
func fenceBody(block string) string {
	_, body, found := strings.Cut(block, "\n")
	if !found {
		return ""
	}
	trimmed := strings.TrimRight(body, "\n")
	if idx := strings.LastIndexByte(trimmed, '\n'); idx >= 0 {
		if strings.HasPrefix(strings.TrimLeft(trimmed[idx+1:], " \t"), "```") {
			return trimmed[:idx+1]
		}
	} else if strings.HasPrefix(strings.TrimLeft(trimmed, " \t"), "```") {
		return ""
	}
	return body
}

func looksLikePython(content, _ []byte) bool {
	src := string(content)
	if strings.Contains(src, "def ") && strings.Contains(src, "):") {
		return true
	}
	// Python imports, but not Go's "import (".
	if strings.Contains(src, "import ") && !strings.Contains(src, "import (") {
		if strings.Contains(src, "from ") || strings.HasPrefix(strings.TrimSpace(src), "import ") {
			return true
		}
	}
	return strings.Contains(src, "__name__") || strings.Contains(src, "__main__")
}

// looksLikeYAML counts "key: value" lines and root list items.
func looksLikeYAML(content, _ []byte) bool {
	keys := 0
	for _, line := range bytes.Split(content, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || bytes.HasPrefix(line, []byte("#")) {
			continue
		}
		if bytes.Contains(line, []byte(": ")) &&
			!bytes.Contains(line, []byte("(")) &&
			!bytes.Contains(line, []byte("{")) &&
			!bytes.HasPrefix(line, []byte(`"`)) {
			keys++
		}
		if bytes.HasPrefix(line, []byte("- ")) {
			keys++
		}
	}
	return keys >= 2
}

func containsAny(content []byte, needles ...string) bool {
	for _, needle := range needles {
		if bytes.Contains(content, []byte(needle)) {
			return true
		}
	}
	return false
}

// normalize converts go-enry language names to fence tags.
func normalize(lang string) string {
	if lang == "Shell" {
		return LangBash
	}
	return strings.ToLower(lang)
}
