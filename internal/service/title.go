package service

import (
	"strings"
	"unicode/utf8"
)

const (
	maxTitleLength = 60
	fallbackTitle  = "Untitled Post"
)

// SmartTitle derives a title from a caption: the first sentence of its first
// line, cut to 60 characters.
func SmartTitle(caption string) string {
	if strings.TrimSpace(caption) == "" {
		return fallbackTitle
	}

	firstLine := strings.TrimSpace(strings.SplitN(caption, "\n", 2)[0])
	title := strings.TrimSpace(strings.SplitN(firstLine, ".", 2)[0])
	if title == "" {
		title = firstLine
	}

	if utf8.RuneCountInString(title) > maxTitleLength {
		runes := []rune(title)
		title = strings.TrimSpace(string(runes[:maxTitleLength-3])) + "..."
	}

	if title == "" {
		return fallbackTitle
	}
	return title
}
