package text

import "strings"

const minTokenLen = 3

// Normalize applies light preprocessing suitable for embedding input:
// lowercase, every character outside [a-z0-9 ] replaced by a space, and
// whitespace collapsed to single spaces. Missing or empty input yields an
// empty string; the function never fails.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	lowered := strings.ToLower(s)
	mapped := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return ' '
	}, lowered)

	return strings.Join(strings.Fields(mapped), " ")
}

// NormalizeKeywords applies keyword-mode preprocessing: light
// normalization followed by removal of stopwords and tokens shorter than
// three characters. This depth is used for anything surfaced as keyword
// evidence.
func NormalizeKeywords(s string) string {
	return strings.Join(KeywordTokens(s), " ")
}

// KeywordTokens returns the keyword-mode tokens of s in input order.
func KeywordTokens(s string) []string {
	fields := strings.Fields(Normalize(s))
	tokens := make([]string, 0, len(fields))
	for _, tok := range fields {
		if len(tok) < minTokenLen || stopwords[tok] {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}
