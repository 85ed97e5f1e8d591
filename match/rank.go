package match

import (
	"sort"

	"github.com/poiesic/affinity/core"
)

// Ranked is one candidate that survived the similarity floor, with its score
// and dense rank.
type Ranked struct {
	Profile *core.Profile
	Score   float32
	Rank    int
}

// RankBySimilarity scores every candidate vector against the source vector,
// drops candidates at or below the threshold, and returns the survivors in
// descending score order with ranks assigned from 1. The sort is stable, so
// equal-scoring candidates keep their input order and repeat runs over the
// same data produce identical rankings. A topN of 0 or less means no cap.
func RankBySimilarity(sourceVec []float32, candidates *CandidateSet, threshold float32, topN int) []Ranked {
	if candidates == nil || len(candidates.Profiles) == 0 {
		return nil
	}

	ranked := make([]Ranked, 0, len(candidates.Profiles))
	for i, profile := range candidates.Profiles {
		score := dotProduct(sourceVec, candidates.Vectors[i])
		if score <= threshold {
			continue
		}
		ranked = append(ranked, Ranked{Profile: profile, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
