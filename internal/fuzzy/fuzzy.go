// Package fuzzy scores a query against text using substring and
// ordered-subsequence heuristics. It is deliberately not edit distance:
// prefix/contains matches are cheap and score high, scattered character
// matches are discounted.
package fuzzy

import "strings"

const (
	substringScore = 0.9
	// gapDivisor controls how quickly scattered matches are penalized.
	gapDivisor = 8.0
)

// Score returns a match score in [0,1] for query against text.
// An exact substring match (case-insensitive) scores 1.0; otherwise each
// whitespace-separated query token is scored independently and the mean is
// returned. Empty queries score 0.
func Score(query, text string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	t := strings.ToLower(text)
	if q == "" || t == "" {
		return 0
	}
	if strings.Contains(t, q) {
		return 1.0
	}

	tokens := strings.Fields(q)
	if len(tokens) == 0 {
		return 0
	}
	var sum float64
	for _, tok := range tokens {
		if strings.Contains(t, tok) {
			sum += substringScore
			continue
		}
		sum += subsequenceScore(tok, t)
	}
	score := sum / float64(len(tokens))
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// subsequenceScore walks query and text in order. If every query rune is
// found, the score rewards match density and penalizes gaps consumed in the
// haystack between matches; otherwise it is 0.
func subsequenceScore(query, text string) float64 {
	qr := []rune(query)
	tr := []rune(text)

	matched := 0
	consumed := 0
	gaps := 0
	qi := 0
	for ti := 0; ti < len(tr) && qi < len(qr); ti++ {
		if matched > 0 || tr[ti] == qr[qi] {
			consumed++
		}
		if tr[ti] == qr[qi] {
			matched++
			qi++
		} else if matched > 0 {
			gaps++
		}
	}
	if qi < len(qr) {
		return 0
	}
	if consumed == 0 {
		return 0
	}
	density := float64(matched) / float64(consumed)
	return density * (1.0 / (1.0 + float64(gaps)/gapDivisor))
}
