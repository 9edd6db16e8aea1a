package arabic

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"removes tatweel", "كـــتاب", "كتاب"},
		{"collapses whitespace", "  كتاب   جديد \n", "كتاب جديد"},
		{"preserves diacritics", "كِتَاب", "كِتَاب"},
		{"empty input", "", ""},
		{"all tatweel", "ـــــ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripDiacritics(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"harakat removed", "كِتَاب", "كتاب"},
		{"hamza on alef preserved", "أَحْمَد", "أحمد"},
		{"alef madda preserved", "آمَنَ", "آمن"},
		{"shadda and sukun removed", "مُحَمَّدْ", "محمد"},
		{"quranic stop signs removed", "بَلَىٰۛ", "بلى"},
		{"only diacritics", "ًٌٍَُِّْ", ""},
		{"latin untouched", "kitab", "kitab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripDiacritics(tt.in); got != tt.want {
				t.Errorf("StripDiacritics(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// Already-stripped text is a fixed point.
func TestStripDiacriticsIdempotent(t *testing.T) {
	inputs := []string{"كِتَاب", "أَحْمَد", "بِسْمِ اللَّهِ الرَّحْمَٰنِ الرَّحِيمِ", "hello", ""}
	for _, in := range inputs {
		once := StripDiacritics(in)
		twice := StripDiacritics(once)
		if once != twice {
			t.Errorf("StripDiacritics not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"dedup repeated tokens", "كتاب كتاب كتاب", []string{"كتاب"}},
		{"arabic punctuation splits", "قال: كتاب، قلم؛ ورقة؟", []string{"قال", "كتاب", "قلم", "ورقة"}},
		{"strips diacritics per token", "كِتَاب جَدِيد", []string{"كتاب", "جديد"}},
		{"empty input", "", nil},
		{"only punctuation", "، ؛ ؟ ()", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTokenizeIsPure(t *testing.T) {
	in := "كتاب قلم كتاب"
	first := Tokenize(in)
	second := Tokenize(in)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Tokenize not restartable: %v != %v", first, second)
	}
}

func TestContainsArabic(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"كتاب", true},
		{"hello كتاب world", true},
		{"٣٤٥", true}, // Arabic-Indic digits
		{"hello", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ContainsArabic(tt.in); got != tt.want {
			t.Errorf("ContainsArabic(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
