package prose

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yaklabco/docqa/pkg/model"
)

// Category groups rules for severity mapping.
type Category int

const (
	// CategoryStyle covers wording preferences.
	CategoryStyle Category = iota

	// CategoryTypographical covers slips such as doubled words or spacing.
	CategoryTypographical

	// CategoryGrammar covers grammatical errors.
	CategoryGrammar
)

// Severity maps a category to a finding severity.
func (c Category) Severity() model.Severity {
	switch c {
	case CategoryGrammar:
		return model.SeverityError
	case CategoryTypographical:
		return model.SeverityWarning
	default:
		return model.SeverityInfo
	}
}

// Match is a rule hit, relative to the start of the run it was found in.
type Match struct {
	Start, End int
	Message    string
}

// Rule checks prose runs.
type Rule interface {
	// ID is the stable rule identifier used in finding ids.
	ID() string

	// Description explains what the rule looks for.
	Description() string

	// Category determines the severity of findings.
	Category() Category

	// Check returns the matches in one run.
	Check(run Run) []Match
}

// BaseRule carries the static metadata shared by every rule.
type BaseRule struct {
	id          string
	description string
	category    Category
}

func (b BaseRule) ID() string          { return b.id }
func (b BaseRule) Description() string { return b.description }
func (b BaseRule) Category() Category  { return b.category }

// HedgingRule flags words that weaken a statement.
type HedgingRule struct {
	BaseRule
	pattern *regexp.Regexp
}

// NewHedgingRule creates the hedging-word rule.
func NewHedgingRule() *HedgingRule {
	return &HedgingRule{
		BaseRule: BaseRule{"HEDGING", "Avoid hedging words such as very, just or simply", CategoryStyle},
		pattern:  regexp.MustCompile(`(?i)\b(very|just|simply|actually|obviously|clearly|basically)\b`),
	}
}

func (r *HedgingRule) Check(run Run) []Match {
	var out []Match
	for _, loc := range r.pattern.FindAllStringIndex(run.Text, -1) {
		word := run.Text[loc[0]:loc[1]]
		out = append(out, Match{
			Start:   loc[0],
			End:     loc[1],
			Message: fmt.Sprintf("Consider removing the hedging word '%s'.", word),
		})
	}
	return out
}

// WordyRule flags phrases with a shorter equivalent.
type WordyRule struct {
	BaseRule
	phrases []wordyPhrase
}

type wordyPhrase struct {
	pattern *regexp.Regexp
	use     string
}

// NewWordyRule creates the wordy-phrase rule.
func NewWordyRule() *WordyRule {
	return &WordyRule{
		BaseRule: BaseRule{"WORDINESS", "Prefer simple words and short phrases", CategoryStyle},
		phrases: []wordyPhrase{
			{regexp.MustCompile(`(?i)\butili[sz](e|es|ed|ing)\b`), "use"},
			{regexp.MustCompile(`(?i)\bin\s+order\s+to\b`), "to"},
			{regexp.MustCompile(`(?i)\bdue\s+to\s+the\s+fact\s+that\b`), "because"},
			{regexp.MustCompile(`(?i)\bat\s+this\s+point\s+in\s+time\b`), "now"},
		},
	}
}

func (r *WordyRule) Check(run Run) []Match {
	var out []Match
	for _, phrase := range r.phrases {
		for _, loc := range phrase.pattern.FindAllStringIndex(run.Text, -1) {
			out = append(out, Match{
				Start:   loc[0],
				End:     loc[1],
				Message: fmt.Sprintf("Consider '%s' instead of '%s'.", phrase.use, run.Text[loc[0]:loc[1]]),
			})
		}
	}
	return out
}

// RepeatedWordRule flags a word immediately repeated, as in "the the".
type RepeatedWordRule struct {
	BaseRule
	word *regexp.Regexp
}

// NewRepeatedWordRule creates the repeated-word rule.
func NewRepeatedWordRule() *RepeatedWordRule {
	return &RepeatedWordRule{
		BaseRule: BaseRule{"ENGLISH_WORD_REPEAT_RULE", "A word should not be repeated", CategoryTypographical},
		word:     regexp.MustCompile(`[\p{L}\p{N}']+`),
	}
}

func (r *RepeatedWordRule) Check(run Run) []Match {
	var out []Match
	locs := r.word.FindAllStringIndex(run.Text, -1)
	for idx := 1; idx < len(locs); idx++ {
		prev, curr := locs[idx-1], locs[idx]
		gap := run.Text[prev[1]:curr[0]]
		if gap == "" || strings.TrimSpace(gap) != "" {
			continue
		}
		first, second := run.Text[prev[0]:prev[1]], run.Text[curr[0]:curr[1]]
		if !strings.EqualFold(first, second) {
			continue
		}
		out = append(out, Match{
			Start:   prev[0],
			End:     curr[1],
			Message: fmt.Sprintf("Possible typo: you repeated a word ('%s').", second),
		})
	}
	return out
}

// WhitespaceRule flags runs of two or more spaces between words.
type WhitespaceRule struct {
	BaseRule
	pattern *regexp.Regexp
}

// NewWhitespaceRule creates the multiple-spaces rule.
func NewWhitespaceRule() *WhitespaceRule {
	return &WhitespaceRule{
		BaseRule: BaseRule{"WHITESPACE_RULE", "Words should be separated by a single space", CategoryTypographical},
		pattern:  regexp.MustCompile(` {2,}`),
	}
}

func (r *WhitespaceRule) Check(run Run) []Match {
	var out []Match
	for _, loc := range r.pattern.FindAllStringIndex(run.Text, -1) {
		// Indentation and trailing spaces are layout, not typos.
		if loc[0] == 0 || loc[1] == len(run.Text) || isSpace(run.Text[loc[0]-1]) || isSpace(run.Text[loc[1]]) {
			continue
		}
		out = append(out, Match{
			Start:   loc[0],
			End:     loc[1],
			Message: "Possible typo: you repeated a whitespace.",
		})
	}
	return out
}

// DefaultRules returns a fresh instance of every built-in rule.
func DefaultRules() []Rule {
	return []Rule{
		NewHedgingRule(),
		NewWordyRule(),
		NewRepeatedWordRule(),
		NewWhitespaceRule(),
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
