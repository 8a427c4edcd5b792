package region_test

import (
	"reflect"
	"testing"

	"github.com/yaklabco/docqa/pkg/model"
	"github.com/yaklabco/docqa/pkg/region"
)

func span(start, end int) model.Span {
	return model.Span{Start: start, End: end}
}

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want []region.Region
	}{
		{
			name: "empty document",
			doc:  "",
			want: nil,
		},
		{
			name: "plain prose",
			doc:  "This is teh example.",
			want: nil,
		},
		{
			name: "fenced block with language",
			doc:  "```py\nprint( 1 )\n```",
			want: []region.Region{
				{Span: span(0, 20), Kind: region.KindFencedCode, Lang: "py"},
			},
		},
		{
			name: "fenced block includes closing newline",
			doc:  "intro\n```\ncode\n```\nafter\n",
			want: []region.Region{
				{Span: span(6, 19), Kind: region.KindFencedCode},
			},
		},
		{
			name: "indented fence starts at first backtick",
			doc:  "  ```go\nx := 1\n  ```\n",
			want: []region.Region{
				{Span: span(2, 21), Kind: region.KindFencedCode, Lang: "go"},
			},
		},
		{
			name: "unterminated fence runs to end",
			doc:  "text\n```sh\nls -la\n",
			want: []region.Region{
				{Span: span(5, 18), Kind: region.KindFencedCode, Lang: "sh"},
			},
		},
		{
			name: "inline code span",
			doc:  "run `make` now",
			want: []region.Region{
				{Span: span(4, 10), Kind: region.KindInlineCode},
			},
		},
		{
			name: "unmatched backtick is plain text",
			doc:  "a ` stray tick",
			want: nil,
		},
		{
			name: "backticks inside fences are not inline code",
			doc:  "```\n`a`\n```\nx `b`",
			want: []region.Region{
				{Span: span(0, 12), Kind: region.KindFencedCode},
				{Span: span(14, 17), Kind: region.KindInlineCode},
			},
		},
		{
			name: "bare url",
			doc:  "a url http://example.com",
			want: []region.Region{
				{Span: span(6, 24), Kind: region.KindURL},
			},
		},
		{
			name: "markdown link target",
			doc:  "see [docs](https://example.com/a) here",
			want: []region.Region{
				{Span: span(11, 32), Kind: region.KindURL},
			},
		},
		{
			name: "autolink excludes brackets",
			doc:  "<https://example.com>",
			want: []region.Region{
				{Span: span(1, 20), Kind: region.KindURL},
			},
		},
		{
			name: "url inside inline code is dropped",
			doc:  "`curl http://x.io` ok",
			want: []region.Region{
				{Span: span(0, 18), Kind: region.KindInlineCode},
			},
		},
		{
			name: "url inside fence is dropped",
			doc:  "```\nhttp://a.io\n```",
			want: []region.Region{
				{Span: span(0, 19), Kind: region.KindFencedCode},
			},
		},
		{
			name: "url running into inline code is clipped",
			doc:  "http://a.io`x`",
			want: []region.Region{
				{Span: span(0, 11), Kind: region.KindURL},
				{Span: span(11, 14), Kind: region.KindInlineCode},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := region.Detect(tt.doc)
			if !reflect.DeepEqual(got.Regions, tt.want) {
				t.Errorf("Detect(%q).Regions = %+v, want %+v", tt.doc, got.Regions, tt.want)
			}
		})
	}
}

func TestDetect_CodeRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want float64
	}{
		{"empty", "", 0},
		{"no code", "hello world", 0},
		{"all code", "```\nx\n```", 1},
		{"half code", "```\nx\n```\n0123456789", 0.5},
		{"inline code does not count", "`code`", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := region.Detect(tt.doc).CodeRatio
			if got != tt.want {
				t.Errorf("CodeRatio = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetect_Idempotent(t *testing.T) {
	t.Parallel()

	doc := "# Title\n\nUse `go test` and see https://go.dev.\n\n```go\nfunc main() {}\n```\n\n<http://a.b>\n"

	first := region.Detect(doc)
	second := region.Detect(doc)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Detect is not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestResult_OfKind(t *testing.T) {
	t.Parallel()

	res := region.Detect("`a` http://x.io\n```\nb\n```\n")

	if got := len(res.OfKind(region.KindFencedCode)); got != 1 {
		t.Errorf("fenced regions = %d, want 1", got)
	}
	if got := len(res.OfKind(region.KindInlineCode)); got != 1 {
		t.Errorf("inline regions = %d, want 1", got)
	}
	if got := len(res.OfKind(region.KindURL)); got != 1 {
		t.Errorf("url regions = %d, want 1", got)
	}
}

func TestKind_String(t *testing.T) {
	t.Parallel()

	tests := map[region.Kind]string{
		region.KindFencedCode: "fenced_code",
		region.KindInlineCode: "inline_code",
		region.KindURL:        "url",
		region.Kind(99):       "unknown",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func FuzzDetect(f *testing.F) {
	f.Add("")
	f.Add("```py\nprint( 1 )\n```")
	f.Add("`a` `b")
	f.Add("see [x](http://a.io) and <https://b.io>")
	f.Add("```\nunterminated `x` http://c.io")
	f.Add("http://a.io`x`http://b.io")

	f.Fuzz(func(t *testing.T, doc string) {
		res := region.Detect(doc)

		if res.CodeRatio < 0 || res.CodeRatio > 1 {
			t.Fatalf("CodeRatio = %v out of range", res.CodeRatio)
		}

		prevEnd := 0
		for idx, reg := range res.Regions {
			if !reg.ValidIn(len(doc)) {
				t.Fatalf("region %d %+v invalid for len %d", idx, reg, len(doc))
			}
			if reg.Start < prevEnd {
				t.Fatalf("region %d %+v overlaps or is unsorted (prev end %d)", idx, reg, prevEnd)
			}
			prevEnd = reg.End
		}
	})
}
