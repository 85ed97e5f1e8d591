package text

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhrases(t *testing.T) {
	phrases := Phrases("machine learning applications")
	assert.Equal(t, []string{
		"machine", "learning", "applications",
		"machine learning", "learning applications",
	}, phrases)
}

func TestPhrases_Empty(t *testing.T) {
	assert.Empty(t, Phrases(""))
	assert.Empty(t, Phrases("the of and"))
}

func TestExtractOverlap_IntersectionSeeded(t *testing.T) {
	a := "machine learning for water treatment"
	b := "machine learning applied to robotics"

	keywords := ExtractOverlap(a, b, 7)
	require.NotEmpty(t, keywords)

	// Shared phrases must be present.
	assert.Contains(t, keywords, "machine")
	assert.Contains(t, keywords, "learning")
	assert.Contains(t, keywords, "machine learning")

	assert.True(t, sort.StringsAreSorted(keywords), "output should be alphabetical")
	assert.LessOrEqual(t, len(keywords), 7)
}

func TestExtractOverlap_SymmetricOnIntersection(t *testing.T) {
	a := "renewable energy storage systems"
	b := "grid scale energy storage"

	ab := ExtractOverlap(a, b, 7)
	ba := ExtractOverlap(b, a, 7)
	assert.Equal(t, ab, ba, "intersection path should be symmetric in content")
}

func TestExtractOverlap_NoIntersectionUsesFrequency(t *testing.T) {
	a := "robotics robotics automation"
	b := "chemistry lab equipment"

	keywords := ExtractOverlap(a, b, 3)
	require.Len(t, keywords, 3)
	// "robotics" occurs twice on side a and must survive the frequency cut.
	assert.Contains(t, keywords, "robotics")
	assert.True(t, sort.StringsAreSorted(keywords))
}

func TestExtractOverlap_CapRespected(t *testing.T) {
	a := "one two three four five six seven eight nine ten eleven twelve"
	b := "alpha beta gamma delta epsilon zeta"

	keywords := ExtractOverlap(a, b, 4)
	assert.Len(t, keywords, 4)
}

func TestExtractOverlap_DefaultCap(t *testing.T) {
	a := "one two three four five six seven eight nine ten"
	b := "one two three four five six seven eight nine ten"

	keywords := ExtractOverlap(a, b, 0)
	assert.Len(t, keywords, DefaultOverlapCap)
}

func TestExtractOverlap_DegenerateFallback(t *testing.T) {
	// Keyword-mode phrases are empty (stopwords and short tokens only),
	// so the raw text is scanned for longer words.
	a := "el th de"
	b := "during before against between"

	keywords := ExtractOverlap(a, b, 7)
	require.NotEmpty(t, keywords)
	assert.Contains(t, keywords, "against")
	assert.Contains(t, keywords, "between")
	assert.True(t, sort.StringsAreSorted(keywords))
}

func TestExtractOverlap_BothEmpty(t *testing.T) {
	assert.Empty(t, ExtractOverlap("", "", 7))
}

func TestExtractOverlap_Deduplicated(t *testing.T) {
	a := "solar solar solar power"
	b := "solar power installations"

	keywords := ExtractOverlap(a, b, 7)
	seen := make(map[string]int)
	for _, k := range keywords {
		seen[k]++
	}
	for k, count := range seen {
		assert.Equal(t, 1, count, "keyword %q duplicated", k)
	}
}
