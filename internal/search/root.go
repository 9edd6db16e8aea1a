package search

import "regexp"

// rootDashRe matches dashed triliteral/quadriliteral root notation
// such as "k-t-b" or "d-h-r-j".
var rootDashRe = regexp.MustCompile(`^(?i)[a-z]-[a-z]-[a-z](-[a-z])?$`)

// looksLikeRoot reports whether a Latin query is plausibly a root lookup:
// either dashed notation, or 2-4 bare letters with no adjacent vowel pair
// (root skeletons are written consonant-heavy, e.g. "ktb", "slm").
func looksLikeRoot(q string) bool {
	if rootDashRe.MatchString(q) {
		return true
	}
	if len(q) < 2 || len(q) > 4 {
		return false
	}
	prevVowel := false
	for i := 0; i < len(q); i++ {
		c := q[i] | 0x20 // ascii lowercase
		if c < 'a' || c > 'z' {
			return false
		}
		vowel := c == 'a' || c == 'e' || c == 'i' || c == 'o' || c == 'u'
		if vowel && prevVowel {
			return false
		}
		prevVowel = vowel
	}
	return true
}
