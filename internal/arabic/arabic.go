// Package arabic provides Arabic-aware text normalization for search.
package arabic

import "strings"

const tatweel = 'ـ'

// isDiacritic reports whether r is a combining mark used with Arabic script:
// harakat, shadda, sukun, superscript alef, and the Quranic recitation and
// stop-sign annotation ranges. Hamza and alef variants are base letters and
// are never treated as diacritics.
func isDiacritic(r rune) bool {
	switch {
	case r >= 0x0610 && r <= 0x061A: // honorifics and small marks
		return true
	case r >= 0x064B && r <= 0x065F: // fathatan..wavy hamza below
		return true
	case r == 0x0670: // superscript alef
		return true
	case r >= 0x06D6 && r <= 0x06DC: // Quranic stop signs
		return true
	case r >= 0x06DF && r <= 0x06E8: // small high marks
		return true
	case r >= 0x06EA && r <= 0x06ED: // empty centre marks
		return true
	}
	return false
}

// Normalize removes tatweel, collapses whitespace runs to single spaces, and
// trims the ends. Diacritics and all hamza/alef letter variants are preserved.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	space := false
	for _, r := range text {
		switch {
		case r == tatweel:
			// elongation only, no semantic content
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			space = true
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StripDiacritics removes all Arabic combining marks in addition to what
// Normalize removes. Letter variants (أ إ آ ء ئ ؤ) are left untouched.
func StripDiacritics(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range Normalize(text) {
		if isDiacritic(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isSeparator reports whether r splits tokens: whitespace plus Latin and
// Arabic punctuation variants.
func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r',
		'.', ',', '!', '?', ';', ':', '(', ')', '[', ']', '"', '\'',
		'،', // Arabic comma
		'؛', // Arabic semicolon
		'؟', // Arabic question mark
		'«', '»': // guillemets
		return true
	}
	return false
}

// Tokenize splits text on whitespace and punctuation, strips diacritics from
// each token, drops empties, and de-duplicates preserving first-occurrence
// order. It is a pure function.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, isSeparator)
	seen := make(map[string]struct{}, len(fields))
	var out []string
	for _, f := range fields {
		tok := StripDiacritics(f)
		if tok == "" {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// ContainsArabic reports whether any rune of text falls in the Arabic Unicode
// block, including Arabic-Indic digits.
func ContainsArabic(text string) bool {
	for _, r := range text {
		if r >= 0x0600 && r <= 0x06FF {
			return true
		}
	}
	return false
}
