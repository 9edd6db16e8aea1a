// Package search ranks study entities against a user query. Arabic queries
// are compared diacritic-insensitively, root-shaped Latin queries are compared
// against latinized root forms, and everything else goes through the fuzzy
// matcher. Scores are comparable only within a type; the final list is one
// stable sort over the concatenation.
package search

import (
	"sort"
	"strings"

	"github.com/starford/fihrist/internal/arabic"
	"github.com/starford/fihrist/internal/fuzzy"
	"github.com/starford/fihrist/internal/model"
)

// MatchType classifies how a result matched the query.
type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchPrefix   MatchType = "prefix"
	MatchContains MatchType = "contains"
	MatchFuzzy    MatchType = "fuzzy"
)

// Scoring constants. These reproduce the ranking the study center UI was
// tuned around; tests reference them by name.
const (
	ScoreExact    = 1.0
	ScoreRawExact = 0.95 // diacritics-intact raw match, below stripped-exact
	ScorePrefix   = 0.9
	ScoreContains = 0.7
	NoiseFloor    = 0.3
	minQueryLen   = 2
)

// Result is one ranked search hit.
type Result struct {
	Ref         model.Ref `json:"ref"`
	DisplayText string    `json:"display_text"`
	Subtitle    string    `json:"subtitle,omitempty"`
	Score       float64   `json:"score"`
	MatchType   MatchType `json:"match_type"`
}

// Collections holds the live entity collections supplied by the caller,
// keyed by kind. Missing kinds are treated as empty.
type Collections map[model.Kind][]model.Entity

// Filters optionally restricts which kinds are searched.
type Filters struct {
	Kinds []model.Kind
}

func (f *Filters) allows(k model.Kind) bool {
	if f == nil || len(f.Kinds) == 0 {
		return true
	}
	for _, want := range f.Kinds {
		if k == want {
			return true
		}
	}
	return false
}

// Search scores every entity in cols against query and returns hits above the
// noise floor, sorted by descending score. The sort is stable, so ties keep
// the kind-order of assembly. Queries shorter than two characters return nil.
func Search(query string, cols Collections, filters *Filters) []Result {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minQueryLen {
		return nil
	}

	isArabic := arabic.ContainsArabic(query)
	isRoot := !isArabic && looksLikeRoot(query)

	var out []Result
	for _, kind := range model.Kinds {
		if !filters.allows(kind) {
			continue
		}
		for _, e := range cols[kind] {
			var score float64
			var mt MatchType
			switch {
			case isArabic:
				score, mt = scoreArabic(query, &e)
			case kind == model.KindRoot && isRoot:
				score, mt = scoreRoot(query, &e)
			default:
				score, mt = scoreLatin(query, &e)
			}
			if score <= NoiseFloor {
				continue
			}
			out = append(out, Result{
				Ref:         e.Ref,
				DisplayText: displayText(&e),
				Subtitle:    subtitle(&e),
				Score:       score,
				MatchType:   mt,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// scoreArabic compares the diacritic-stripped query against the entity's
// precomputed stripped text, computing it on the fly when the index is stale
// or absent. A raw match with diacritics intact scores just below a
// stripped-exact match.
func scoreArabic(query string, e *model.Entity) (float64, MatchType) {
	stripped := e.Stripped
	if stripped == "" && e.Arabic != "" {
		stripped = arabic.StripDiacritics(e.Arabic)
	}
	if stripped == "" {
		return 0, ""
	}
	q := arabic.StripDiacritics(query)
	if q == "" {
		return 0, ""
	}
	switch {
	case stripped == q:
		return ScoreExact, MatchExact
	case arabic.Normalize(query) == arabic.Normalize(e.Arabic):
		return ScoreRawExact, MatchExact
	case strings.HasPrefix(stripped, q):
		return ScorePrefix, MatchPrefix
	case strings.Contains(stripped, q):
		return ScoreContains, MatchContains
	}
	return 0, ""
}

// scoreRoot compares latinized root forms with dashes removed on both sides.
func scoreRoot(query string, e *model.Entity) (float64, MatchType) {
	q := dashless(query)
	r := dashless(e.RefString)
	if r == "" {
		r = dashless(e.Translit)
	}
	if q == "" || r == "" {
		return 0, ""
	}
	switch {
	case r == q:
		return ScoreExact, MatchExact
	case strings.HasPrefix(r, q):
		return ScorePrefix, MatchPrefix
	case strings.Contains(r, q):
		return ScoreContains, MatchContains
	}
	return band(fuzzy.Score(q, r))
}

// scoreLatin takes the best fuzzy score across the transliteration, title,
// meanings, and (for verses and hadith) the citation string.
func scoreLatin(query string, e *model.Entity) (float64, MatchType) {
	best := 0.0
	for _, field := range candidateFields(e) {
		if s := fuzzy.Score(query, field); s > best {
			best = s
		}
	}
	return band(best)
}

func candidateFields(e *model.Entity) []string {
	fields := make([]string, 0, len(e.Meanings)+3)
	if e.Translit != "" {
		fields = append(fields, e.Translit)
	}
	if e.Title != "" {
		fields = append(fields, e.Title)
	}
	if e.RefString != "" {
		fields = append(fields, e.RefString)
	}
	fields = append(fields, e.Meanings...)
	return fields
}

// band classifies a raw fuzzy score into a match type.
func band(score float64) (float64, MatchType) {
	switch {
	case score >= ScoreExact:
		return score, MatchExact
	case score >= ScorePrefix:
		return score, MatchPrefix
	case score >= ScoreContains:
		return score, MatchContains
	case score > 0:
		return score, MatchFuzzy
	}
	return 0, ""
}

func displayText(e *model.Entity) string {
	if e.Arabic != "" {
		return e.Arabic
	}
	return e.Title
}

func subtitle(e *model.Entity) string {
	if len(e.Meanings) > 0 {
		return e.Meanings[0]
	}
	if e.RefString != "" {
		return e.RefString
	}
	return e.Translit
}

func dashless(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "-", ""))
}
