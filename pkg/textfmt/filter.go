package textfmt

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Replacements used by the family filter. Longer phrases are matched first
// so "bloody hell" is not rewritten word by word.
var familyReplacements = map[string]string{
	"fuck":        "blast",
	"fucking":     "blasted",
	"shit":        "shoot",
	"damn":        "dang",
	"goddamn":     "gosh-dang",
	"hell":        "heck",
	"bloody":      "blooming",
	"bloody hell": "good grief",
	"bastard":     "scoundrel",
	"bastards":    "scoundrels",
	"bitch":       "jerk",
	"arse":        "backside",
	"ass":         "backside",
	"crap":        "crud",
	"christ":      "crikey",
	"bullshit":    "baloney",
}

// FamilyFilter rewrites profanity in narration for family-friendly play.
type FamilyFilter struct {
	words   []string
	regexes map[string]*regexp.Regexp
}

// NewFamilyFilter creates a filter with its patterns precompiled.
func NewFamilyFilter() *FamilyFilter {
	f := &FamilyFilter{regexes: make(map[string]*regexp.Regexp, len(familyReplacements))}
	for word := range familyReplacements {
		f.words = append(f.words, word)
		f.regexes[word] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	}
	sort.Slice(f.words, func(i, j int) bool {
		if len(f.words[i]) != len(f.words[j]) {
			return len(f.words[i]) > len(f.words[j])
		}
		return f.words[i] < f.words[j]
	})
	return f
}

// Filter replaces profanity, keeping the case pattern of each match.
// A nil filter returns text unchanged.
func (f *FamilyFilter) Filter(text string) string {
	if f == nil {
		return text
	}
	for _, word := range f.words {
		replacement := familyReplacements[word]
		text = f.regexes[word].ReplaceAllStringFunc(text, func(match string) string {
			return preserveCase(match, replacement)
		})
	}
	return text
}

// preserveCase applies the case pattern of the original word to the replacement
func preserveCase(original, replacement string) string {
	switch {
	case original == "":
		return replacement
	case strings.ToUpper(original) == original:
		return strings.ToUpper(replacement)
	case strings.ToLower(original) == original:
		return strings.ToLower(replacement)
	case titleCaser.String(strings.ToLower(original)) == original:
		return titleCaser.String(replacement)
	}

	orig := []rune(original)
	out := []rune(replacement)
	for i, r := range out {
		if i < len(orig) && unicode.IsUpper(orig[i]) {
			out[i] = unicode.ToUpper(r)
		} else {
			out[i] = unicode.ToLower(r)
		}
	}
	return string(out)
}

// FilterEnabled reports whether a content rating calls for the family filter.
func FilterEnabled(rating string) bool {
	switch strings.ToUpper(strings.TrimSpace(rating)) {
	case "G", "PG", "PG13", "PG-13":
		return true
	default:
		return false
	}
}
