// Package prose is a small prose linter for Markdown documents.
//
// Text is taken from the goldmark AST, so code blocks, code spans, raw HTML and
// autolinks are never checked. Findings that still touch a protected region
// (for example a bare URL in a paragraph) are dropped, which keeps them in the
// same coordinate space as the edits they are compared against.
package prose

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/yaklabco/docqa/pkg/model"
	"github.com/yaklabco/docqa/pkg/region"
)

// DefaultLanguage is the language checked when none is configured.
const DefaultLanguage = "en-US"

// ErrUnsupportedLanguage is returned for languages the built-in rules do not cover.
var ErrUnsupportedLanguage = errors.New("unsupported lint language")

// Linter checks documents against a rule set. It is safe for concurrent use.
type Linter struct {
	md       goldmark.Markdown
	rules    []Rule
	language string
}

// Option configures a Linter.
type Option func(*Linter)

// WithRules replaces the default rule set.
func WithRules(rules ...Rule) Option {
	return func(l *Linter) {
		l.rules = rules
	}
}

// WithLanguage sets the document language.
func WithLanguage(lang string) Option {
	return func(l *Linter) {
		l.language = lang
	}
}

// New creates a linter. Only English variants are supported.
func New(opts ...Option) (*Linter, error) {
	l := &Linter{
		md:       goldmark.New(),
		rules:    DefaultRules(),
		language: DefaultLanguage,
	}
	for _, opt := range opts {
		opt(l)
	}

	lang := strings.ToLower(l.language)
	if lang != "en" && !strings.HasPrefix(lang, "en-") {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, l.language)
	}

	return l, nil
}

// Rules returns the active rules.
func (l *Linter) Rules() []Rule {
	return slices.Clone(l.rules)
}

// Lint returns the findings for doc, sorted by start offset then rule id.
func (l *Linter) Lint(ctx context.Context, doc string) ([]model.LintFinding, error) {
	if doc == "" {
		return nil, nil
	}

	runs := proseRuns(l.md, doc)
	protected := region.Detect(doc).Regions

	var findings []model.LintFinding
	for _, rule := range l.rules {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("lint cancelled: %w", err)
		}

		severity := rule.Category().Severity()
		for _, run := range runs {
			for _, match := range rule.Check(run) {
				span := model.Span{Start: run.Start + match.Start, End: run.Start + match.End}
				if !span.ValidIn(len(doc)) || touchesAny(span, protected) {
					continue
				}
				findings = append(findings, model.LintFinding{
					ID:       fmt.Sprintf("%s:%d", rule.ID(), span.Start),
					Rule:     rule.ID(),
					Message:  match.Message,
					Severity: severity,
					Start:    span.Start,
					End:      span.End,
				})
			}
		}
	}

	slices.SortStableFunc(findings, func(a, b model.LintFinding) int {
		if c := cmp.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.Rule, b.Rule)
	})

	return findings, nil
}

func touchesAny(span model.Span, regions []region.Region) bool {
	for _, reg := range regions {
		if reg.Intersects(span) {
			return true
		}
	}
	return false
}
