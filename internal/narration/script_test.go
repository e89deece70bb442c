package narration

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"image removed", "before ![a cat](https://x/cat.png) after", "before after"},
		{"link flattened", "see [the docs](https://example.com) now", "see the docs now"},
		{"headings stripped", "# Title\n## Sub title\ntext", "Title Sub title text"},
		{"emphasis stripped", "**bold** and _it_ and `code` and ~~gone~~", "bold and it and code and gone"},
		{"quote marker", "> quoted line", "quoted line"},
		{"whitespace collapsed", "a\n\n\tb   c", "a b c"},
		{"image inside link text keeps no url", "[![img](u)](v) tail", "tail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitizeRemovesAllImageMarkdown(t *testing.T) {
	in := "![a](1) x ![b](2) [c](3) ![d](4)"
	out := Sanitize(in)
	assert.NotContains(t, out, "![")
	assert.NotContains(t, out, "](")
	assert.Equal(t, "x c", out)
}

func TestScriptPrefixesTitle(t *testing.T) {
	assert.Equal(t, "My Post. Hello world", Script("My Post", "# Hello **world**"))
}

func TestScriptIsCappedAt500Chars(t *testing.T) {
	long := strings.Repeat("word ", 400)
	got := Script("Title", long)
	assert.Equal(t, MaxScriptChars, utf8.RuneCountInString(got))
	assert.True(t, strings.HasPrefix(got, "Title. word"))
}

func TestScriptCapIsRuneSafe(t *testing.T) {
	got := Script("T", strings.Repeat("é", 1000))
	assert.Equal(t, MaxScriptChars, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
}

func TestScriptShortInputUntouched(t *testing.T) {
	assert.Equal(t, "A. b", Script("A", "b"))
}
