// Package readtime estimates how long an article takes to read.
package readtime

import (
	"fmt"
	"regexp"
	"strings"
)

// WordsPerMinute is the assumed average reading speed.
const WordsPerMinute = 200

// Empty is reported for content with no characters at all.
const Empty = "<1 min read"

var (
	htmlTag      = regexp.MustCompile(`<[^>]*>`)
	imageSpan    = regexp.MustCompile(`!\[.*?\]\(.*?\)`)
	linkSpan     = regexp.MustCompile(`\[.*?\]\(.*?\)`)
	markdownMark = regexp.MustCompile("[#*`_~\\[\\]()]")
)

// Calculate returns a label such as "3 min read" for the given markdown/HTML body.
//
// Image and link spans are dropped before markdown punctuation is stripped so their
// alt text and URLs do not count as words.
func Calculate(content string) string {
	if content == "" {
		return Empty
	}
	minutes := Minutes(content)
	return fmt.Sprintf("%d min read", minutes)
}

// Minutes is the numeric part of Calculate, never below one.
func Minutes(content string) int {
	words := WordCount(content)
	minutes := (words + WordsPerMinute - 1) / WordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// WordCount counts whitespace-separated words left after markup is removed.
func WordCount(content string) int {
	clean := htmlTag.ReplaceAllString(content, "")
	clean = imageSpan.ReplaceAllString(clean, "")
	clean = linkSpan.ReplaceAllString(clean, "")
	clean = markdownMark.ReplaceAllString(clean, "")
	return len(strings.Fields(clean))
}
