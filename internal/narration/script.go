package narration

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxScriptChars is the hard cap on narration text sent to the speech backend.
const MaxScriptChars = 500

var (
	imagePattern      = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	linkPattern       = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	headingPattern    = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]*`)
	quotePattern      = regexp.MustCompile(`(?m)^[ \t]*>+[ \t]?`)
	punctuationMarker = regexp.MustCompile("[*_`~]+")
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Sanitize turns a markdown-ish draft body into plain speakable text.
// Images are dropped, links keep their anchor text, heading and emphasis markers are removed.
func Sanitize(content string) string {
	s := imagePattern.ReplaceAllString(content, "")
	s = linkPattern.ReplaceAllString(s, "$1")
	s = headingPattern.ReplaceAllString(s, "")
	s = quotePattern.ReplaceAllString(s, "")
	s = punctuationMarker.ReplaceAllString(s, "")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Script builds "{title}. {content}" capped at MaxScriptChars runes.
func Script(title, content string) string {
	text := strings.TrimSpace(strings.TrimSpace(title) + ". " + Sanitize(content))
	return truncate(text, MaxScriptChars)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
