// Package textfmt holds the small text helpers shared by the presenters:
// display names for ids, wrapping, and the family-friendly filter.
package textfmt

import (
	"strings"

	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// DisplayName turns an identifier such as "stranger_things" into
// "Stranger Things".
func DisplayName(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	return titleCaser.String(strings.Join(words, " "))
}

// Wrap word-wraps text to width. A width below 1 leaves the text untouched.
func Wrap(text string, width int) string {
	if width < 1 {
		return text
	}
	return wordwrap.String(text, width)
}

