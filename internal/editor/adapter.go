package editor

import (
	"regexp"
	"strings"
)

var reWhitespace = regexp.MustCompile(`\s+`)

// Sanitizer restricts markup to what the toolbar can produce.
type Sanitizer interface {
	Sanitize(markup string) string
}

// Adapter is the server side of the editor widget: every change event
// arrives here as the full markup.
type Adapter struct {
	sanitizer Sanitizer
}

func NewAdapter(s Sanitizer) *Adapter {
	return &Adapter{sanitizer: s}
}

// Normalize strips pasted markup down to the toolbar's capability set.
func (a *Adapter) Normalize(markup string) string {
	if a.sanitizer == nil {
		return markup
	}
	return a.sanitizer.Sanitize(markup)
}

// WordCount splits the trimmed content on whitespace runs. Empty content
// counts as one word.
func WordCount(content string) int {
	return len(reWhitespace.Split(strings.TrimSpace(content), -1))
}
