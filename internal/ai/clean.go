package ai

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var ErrEmptyLine = errors.New("empty_flavor_line")

const maxLineLen = 200

// CleanLine normalizes model output into a single announcement-safe
// line: strips code fences and surrounding quotes, collapses
// whitespace, truncates at a rune boundary. Errors when nothing
// printable remains.
func CleanLine(text string) (string, error) {
	text = strings.TrimSpace(text)
	text = strings.Trim(text, "`")
	text = strings.Trim(text, `"'`)
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		text = text[:i]
	}
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "", fmt.Errorf("%w", ErrEmptyLine)
	}
	runes := []rune(text)
	if len(runes) > maxLineLen {
		text = strings.TrimRightFunc(string(runes[:maxLineLen]), unicode.IsSpace)
	}
	return text, nil
}
