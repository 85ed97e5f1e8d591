package text

import (
	"sort"
	"strings"
)

const (
	// DefaultOverlapCap bounds the keyword evidence returned per match.
	DefaultOverlapCap = 7

	fallbackMinWordLen = 5
	bigramSize         = 2
)

// Phrases derives the candidate keyword phrases of a text: every
// keyword-mode token plus every adjacent-token bigram, in input order.
// Duplicates are preserved so callers can count frequencies.
func Phrases(s string) []string {
	tokens := KeywordTokens(s)
	if len(tokens) == 0 {
		return nil
	}

	phrases := make([]string, 0, 2*len(tokens))
	phrases = append(phrases, tokens...)
	for i := 0; i+bigramSize <= len(tokens); i++ {
		phrases = append(phrases, tokens[i]+" "+tokens[i+1])
	}
	return phrases
}

// ExtractOverlap surfaces up to cap human-readable phrases shared between
// two texts, as "why matched" evidence. Exact intersections are seeded
// first; if the cap is not reached, remaining phrases from either side are
// appended by descending frequency across both sides. When no phrases
// intersect, the most frequent phrases of the union are returned instead.
// Every path returns an alphabetically sorted, deduplicated list.
//
// The output is advisory only and must never influence ranking.
func ExtractOverlap(a, b string, limit int) []string {
	if limit <= 0 {
		limit = DefaultOverlapCap
	}

	phrasesA := Phrases(a)
	phrasesB := Phrases(b)

	setA := toSet(phrasesA)
	setB := toSet(phrasesB)

	freq := make(map[string]int, len(phrasesA)+len(phrasesB))
	for _, p := range phrasesA {
		freq[p]++
	}
	for _, p := range phrasesB {
		freq[p]++
	}

	intersection := make([]string, 0)
	for p := range setA {
		if setB[p] {
			intersection = append(intersection, p)
		}
	}

	if len(intersection) > 0 {
		result := intersection
		if len(result) > limit {
			result = selectByFrequency(result, freq, limit)
		} else if len(result) < limit {
			remaining := make([]string, 0, len(freq))
			inResult := toSet(result)
			for p := range freq {
				if !inResult[p] {
					remaining = append(remaining, p)
				}
			}
			result = append(result, selectByFrequency(remaining, freq, limit-len(result))...)
		}
		sort.Strings(result)
		return result
	}

	if len(freq) > 0 {
		union := make([]string, 0, len(freq))
		for p := range freq {
			union = append(union, p)
		}
		result := selectByFrequency(union, freq, limit)
		sort.Strings(result)
		return result
	}

	// Degenerate input: neither side produced phrases. Scan the raw text
	// for longer words outside a small additional stoplist.
	return fallbackKeywords(a+" "+b, limit)
}

// selectByFrequency returns up to limit phrases ordered by descending
// frequency; ties break alphabetically so extraction stays deterministic.
func selectByFrequency(phrases []string, freq map[string]int, limit int) []string {
	sorted := make([]string, len(phrases))
	copy(sorted, phrases)
	sort.Slice(sorted, func(i, j int) bool {
		if freq[sorted[i]] != freq[sorted[j]] {
			return freq[sorted[i]] > freq[sorted[j]]
		}
		return sorted[i] < sorted[j]
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func fallbackKeywords(raw string, limit int) []string {
	seen := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(raw)) {
		cleaned := strings.Trim(word, ".,;:!?()[]{}\"'")
		if len(cleaned) < fallbackMinWordLen || fallbackStoplist[cleaned] {
			continue
		}
		seen[cleaned] = true
	}
	if len(seen) == 0 {
		return nil
	}

	words := make([]string, 0, len(seen))
	for w := range seen {
		words = append(words, w)
	}
	sort.Strings(words)
	if len(words) > limit {
		words = words[:limit]
	}
	return words
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
