package insight

import "strings"

// minKeywordLen is the exclusive lower bound on keyword length.
const minKeywordLen = 4

// ExtractKeyword returns the longest run of ASCII letters in text that is
// longer than four characters, lower-cased. Ties go to the first occurrence.
// fallback is returned when no run qualifies.
func ExtractKeyword(text, fallback string) string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !isASCIILetter(r)
	})

	best := ""
	for _, w := range words {
		if len(w) > minKeywordLen && len(w) > len(best) {
			best = w
		}
	}
	if best == "" {
		return fallback
	}
	return strings.ToLower(best)
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
