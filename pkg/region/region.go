// Package region classifies the protected spans of a Markdown document:
// fenced code blocks, inline code spans, and URLs.
//
// Detection is a single deterministic pass that never fails. Degenerate input
// (unterminated fences, stray backticks) is classified by fixed rules instead
// of being rejected.
package region

import (
	"regexp"
	"slices"
	"strings"

	"github.com/yaklabco/docqa/pkg/model"
)

// Kind identifies the class of a protected region.
type Kind int

const (
	// KindFencedCode is a triple-backtick fenced code block.
	KindFencedCode Kind = iota

	// KindInlineCode is a single-backtick code span outside fenced blocks.
	KindInlineCode

	// KindURL is an http(s) URL.
	KindURL
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindFencedCode:
		return "fenced_code"
	case KindInlineCode:
		return "inline_code"
	case KindURL:
		return "url"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Region is a protected span of the document.
type Region struct {
	model.Span

	Kind Kind `json:"kind"`

	// Lang is the language tag of a fenced block's opening fence, if any.
	Lang string `json:"lang,omitempty"`
}

func (r Region) String() string {
	return r.Kind.String() + r.Span.String()
}

// Result is the output of Detect.
type Result struct {
	// Regions are sorted by start and pairwise non-overlapping.
	Regions []Region

	// CodeRatio is the fraction of document bytes inside fenced code, in [0, 1].
	CodeRatio float64
}

// OfKind returns the regions of the given kind, in document order.
func (r Result) OfKind(kind Kind) []Region {
	var out []Region
	for _, reg := range r.Regions {
		if reg.Kind == kind {
			out = append(out, reg)
		}
	}
	return out
}

const fence = "```"

//nolint:gochecknoglobals // Compiled patterns are read-only.
var (
	bareURLPattern     = regexp.MustCompile(`https?://[^\s<>)\]}"]+`)
	markdownURLPattern = regexp.MustCompile(`\]\((https?://[^)]+)\)`)
	autolinkPattern    = regexp.MustCompile(`<(https?://[^>]+)>`)
)

// Detect classifies the protected regions of doc and computes its code ratio.
func Detect(doc string) Result {
	fenced := fencedRegions(doc)
	inline := inlineRegions(doc, fenced)
	urls := urlRegions(doc)

	res := Result{Regions: resolvePrecedence(fenced, inline, urls)}
	if len(doc) > 0 {
		covered := 0
		for _, reg := range res.OfKind(KindFencedCode) {
			covered += reg.Len()
		}
		res.CodeRatio = float64(covered) / float64(len(doc))
	}

	return res
}

// fencedRegions scans line by line for triple-backtick fences. The region covers
// the opening fence through the end of the closing fence line; an unterminated
// fence runs to the end of the document.
func fencedRegions(doc string) []Region {
	var regions []Region

	inside := false
	open := Region{Kind: KindFencedCode}

	pos := 0
	for pos < len(doc) {
		lineEnd := strings.IndexByte(doc[pos:], '\n')
		next := len(doc)
		if lineEnd >= 0 {
			next = pos + lineEnd + 1
		}
		line := doc[pos:next]
		trimmed := strings.TrimLeft(line, " \t")

		if strings.HasPrefix(trimmed, fence) {
			if !inside {
				inside = true
				open.Start = pos + len(line) - len(trimmed)
				open.Lang = fenceLang(trimmed)
			} else {
				open.End = next
				regions = append(regions, open)
				inside = false
				open = Region{Kind: KindFencedCode}
			}
		}

		pos = next
	}

	if inside {
		open.End = len(doc)
		regions = append(regions, open)
	}

	return regions
}

// fenceLang extracts the language tag from an opening fence line.
func fenceLang(trimmed string) string {
	tag := strings.TrimLeft(trimmed, "`")
	tag = strings.TrimSpace(tag)
	if idx := strings.IndexAny(tag, " \t{"); idx >= 0 {
		tag = tag[:idx]
	}
	return tag
}

// inlineRegions pairs single backticks outside the fenced regions. Pairing
// restarts after every fenced block and an unmatched opener is ignored.
func inlineRegions(doc string, fenced []Region) []Region {
	var regions []Region

	block := 0
	open := -1
	for idx := 0; idx < len(doc); idx++ {
		for block < len(fenced) && idx >= fenced[block].End {
			block++
		}
		if block < len(fenced) && idx >= fenced[block].Start {
			idx = fenced[block].End - 1
			open = -1
			continue
		}

		if doc[idx] != '`' {
			continue
		}
		if open < 0 {
			open = idx
			continue
		}
		regions = append(regions, Region{
			Span: model.Span{Start: open, End: idx + 1},
			Kind: KindInlineCode,
		})
		open = -1
	}

	return regions
}

// urlRegions matches bare URLs, Markdown link targets, and autolinks, merging
// candidates that overlap or touch.
func urlRegions(doc string) []Region {
	var spans []model.Span

	for _, loc := range bareURLPattern.FindAllStringIndex(doc, -1) {
		spans = append(spans, model.Span{Start: loc[0], End: loc[1]})
	}
	for _, loc := range markdownURLPattern.FindAllStringSubmatchIndex(doc, -1) {
		spans = append(spans, model.Span{Start: loc[2], End: loc[3]})
	}
	for _, loc := range autolinkPattern.FindAllStringSubmatchIndex(doc, -1) {
		spans = append(spans, model.Span{Start: loc[2], End: loc[3]})
	}

	merged := mergeSpans(spans)
	regions := make([]Region, 0, len(merged))
	for _, span := range merged {
		regions = append(regions, Region{Span: span, Kind: KindURL})
	}
	return regions
}

// mergeSpans sorts spans and coalesces any that overlap or touch.
func mergeSpans(spans []model.Span) []model.Span {
	if len(spans) == 0 {
		return nil
	}

	sorted := slices.Clone(spans)
	slices.SortFunc(sorted, func(a, b model.Span) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return a.End - b.End
	})

	merged := []model.Span{sorted[0]}
	for _, span := range sorted[1:] {
		last := &merged[len(merged)-1]
		if span.Start <= last.End {
			last.End = max(last.End, span.End)
			continue
		}
		merged = append(merged, span)
	}
	return merged
}

// resolvePrecedence layers the candidate lists in order fenced > inline > url.
// Each lower-precedence candidate loses the bytes already claimed; empty
// remainders are dropped.
func resolvePrecedence(layers ...[]Region) []Region {
	var claimed []Region
	for _, layer := range layers {
		for _, candidate := range layer {
			claimed = append(claimed, clip(candidate, claimed)...)
		}
	}

	slices.SortStableFunc(claimed, func(a, b Region) int {
		return a.Start - b.Start
	})
	return claimed
}

// clip subtracts every claimed span from candidate and returns the remaining pieces.
func clip(candidate Region, claimed []Region) []Region {
	pieces := []Region{candidate}
	for _, taken := range claimed {
		var next []Region
		for _, piece := range pieces {
			if !piece.Intersects(taken.Span) {
				next = append(next, piece)
				continue
			}
			if piece.Start < taken.Start {
				left := piece
				left.End = taken.Start
				next = append(next, left)
			}
			if taken.End < piece.End {
				right := piece
				right.Start = taken.End
				next = append(next, right)
			}
		}
		pieces = next
		if len(pieces) == 0 {
			break
		}
	}
	return pieces
}
