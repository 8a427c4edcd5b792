// Package prompt builds the review instruction sent to the language model.
package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yaklabco/docqa/pkg/langdetect"
	"github.com/yaklabco/docqa/pkg/model"
)

// JSONOpen opens the model's answer. The prompt ends with it so generation
// starts inside the JSON block; the closing tag is a stop sequence.
const JSONOpen = "<json>"

// Options controls the optional prompt sections.
type Options struct {
	// Feedback is the rejection reason from the previous attempt, if any.
	Feedback string

	// AllowCodeEdits permits suggestions inside fenced code blocks.
	AllowCodeEdits bool

	// LintFindings are shown to the model so it does not repeat them.
	LintFindings []model.LintFinding

	// FenceHints suggest labels for unlabeled code fences.
	FenceHints []langdetect.Hint
}

const intro = `You are a precise documentation quality reviewer for software engineers.
Input is a Markdown document. Identify writing issues and suggest concise fixes.`

const codeEditsAllowed = "You MAY propose changes inside fenced code blocks (``` … ```):\n" +
	`- Keep code correct; prefer minimal, surgical edits.
- Add concise, self-explanatory comments where helpful.
- If the fence lacks a language label, propose one (e.g., ` + "```py" + `).
- Fix obvious formatting issues (indentation, spacing, line breaks).`

const codeEditsForbidden = "DO NOT propose changes inside fenced code blocks (``` … ```)."

const commonPolicy = "DO NOT propose changes inside:\n- inline code (`code`),\n- or URLs." + `

When proposing replacements, keep surrounding Markdown intact.
Also improve Markdown structure when helpful: headings, bold/italic emphasis, lists, and code-fence language labels.

Return ONLY a JSON object inside <json>…</json> matching this TypeScript schema:

type Severity = "info" | "warning" | "error";
type Issue = {
  id: string;
  rule: string;
  message: string;
  severity: Severity;
  replace_text: string;
  replace_with: string;
  replacement?: string;
  replacements?: { label: string; text: string }[];
};
type ReviewResponse = { version: string; issues: Issue[] };

Guidelines:
- Prefer clear and direct wording over hedging (e.g., very, just, simply, actually, obviously, clearly).
- Prefer simple words (e.g., 'use' over 'utilize').
- Avoid fluff/filler.
- Optional: grammar/clarity fixes when safe.
- Be conservative; avoid risky rewrites.`

const regenerate = `The previous attempt was malformed and could not be applied.
Reason: %s

Regenerate and return ONLY a valid JSON object within <json>…</json> that follows the schema exactly.
Ensure for each issue that:
- replace_text matches exactly one occurrence outside fenced code blocks, inline code, and URLs;
- replace_with is provided;
- do not include any extra commentary outside <json>…</json>.`

const lintNote = "Do NOT duplicate issues already present in <lint>. " +
	"Prefer to complement them with structural and clarity improvements."

// Build returns the full prompt for doc.
func Build(doc string, opts Options) (string, error) {
	var b strings.Builder

	b.WriteString(intro)
	b.WriteString("\n\n")
	if opts.AllowCodeEdits {
		b.WriteString(codeEditsAllowed)
	} else {
		b.WriteString(codeEditsForbidden)
	}
	b.WriteString("\n")
	b.WriteString(commonPolicy)
	b.WriteString("\n")

	if len(opts.FenceHints) > 0 && opts.AllowCodeEdits {
		b.WriteString("\nUnlabeled code fences and their likely language:\n")
		for _, h := range opts.FenceHints {
			fmt.Fprintf(&b, "- line %d: %s\n", h.Line, h.Language)
		}
	}

	if opts.Feedback != "" {
		b.WriteString("\n")
		fmt.Fprintf(&b, regenerate, opts.Feedback)
		b.WriteString("\n")
	}

	if len(opts.LintFindings) > 0 {
		lint, err := encodeFindings(opts.LintFindings)
		if err != nil {
			return "", err
		}
		b.WriteString("\n<lint>\n")
		b.WriteString(lint)
		b.WriteString("\n</lint>\n\n")
		b.WriteString(lintNote)
		b.WriteString("\n")
	}

	b.WriteString("<doc>\n")
	b.WriteString(doc)
	b.WriteString("\n</doc>\n\n")
	b.WriteString(JSONOpen)
	b.WriteString("\n")

	return b.String(), nil
}

// encodeFindings renders findings as compact JSON without HTML escaping.
func encodeFindings(findings []model.LintFinding) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(findings); err != nil {
		return "", fmt.Errorf("encode lint findings: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
