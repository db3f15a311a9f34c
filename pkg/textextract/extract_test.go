package textextract

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFromHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "   ", want: ""},
		{name: "plain text", in: "  Go 1.26   released\n today ", want: "Go 1.26 released today"},
		{name: "paragraphs", in: "<p>First</p><p>Second <b>bold</b></p>", want: "First Second bold"},
		{name: "entities", in: "Tom &amp; Jerry", want: "Tom & Jerry"},
		{name: "script stripped", in: "<div>Hello<script>alert(1)</script></div>", want: "Hello"},
		{name: "link text kept", in: `<a href="https://news.ycombinator.com/item?id=1">Comments</a>`, want: "Comments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromHTML(tt.in); got != tt.want {
				t.Errorf("FromHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "shorter than limit", in: "short", n: 100, want: "short"},
		{name: "exact", in: "abcde", n: 5, want: "abcde"},
		{name: "hard cut mid word", in: "transportation", n: 9, want: "transport"},
		{name: "zero", in: "abc", n: 0, want: ""},
		{name: "multibyte", in: "héllo wörld", n: 7, want: "héllo w"},
		{name: "cjk", in: "日本語のニュース", n: 3, want: "日本語"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.n)
			if got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("Truncate produced invalid UTF-8: %q", got)
			}
		})
	}
}

func TestTruncate_LongSummary(t *testing.T) {
	s := strings.Repeat("x", 250)
	if got := Truncate(s, 100); len(got) != 100 {
		t.Errorf("expected 100 characters, got %d", len(got))
	}
}
