package match

import (
	"strings"

	"github.com/poiesic/affinity/core"
	"github.com/poiesic/affinity/text"
)

// profileFields returns a profile's matchable free-text attributes in their
// fixed composite order. The order is part of the matching contract: the
// composite text feeds the embedder, and reordering fields changes vectors.
func profileFields(p *core.Profile) []string {
	switch p.Population {
	case core.PopulationProvider:
		return []string{p.ExpertiseAreas, p.ExperienceSummary, p.SectorsInterested}
	case core.PopulationSeeker:
		return []string{p.ExpertiseSought, p.OrganizationFocus, p.ChallengeDescription}
	default:
		return nil
	}
}

// RawProfileText joins a profile's non-empty matchable attributes with ". ".
// Used as input for keyword evidence extraction.
func RawProfileText(p *core.Profile) string {
	fields := profileFields(p)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			parts = append(parts, strings.TrimSpace(f))
		}
	}
	return strings.Join(parts, ". ")
}

// BuildProfileText builds the lightly normalized composite text that is
// embedded for a profile. Returns an empty string when the profile has no
// matchable text; such profiles produce zero matches and must not be sent to
// the embedder.
func BuildProfileText(p *core.Profile) string {
	return text.Normalize(RawProfileText(p))
}
