package match

import (
	"testing"

	"github.com/poiesic/affinity/core"
	"github.com/stretchr/testify/assert"
)

func TestBuildProfileText_Provider(t *testing.T) {
	p := &core.Profile{
		Population:        core.PopulationProvider,
		ExpertiseAreas:    "Machine Learning, NLP",
		ExperienceSummary: "10 years in applied AI.",
		SectorsInterested: "Healthcare; Energy",
	}

	// Fixed field order: expertise, experience, sectors
	assert.Equal(t,
		"machine learning nlp 10 years in applied ai healthcare energy",
		BuildProfileText(p))
}

func TestBuildProfileText_Seeker(t *testing.T) {
	p := &core.Profile{
		Population:           core.PopulationSeeker,
		ExpertiseSought:      "Water treatment",
		OrganizationFocus:    "Municipal utilities",
		ChallengeDescription: "Scaling filtration",
	}

	// Fixed field order: sought, focus, challenge
	assert.Equal(t,
		"water treatment municipal utilities scaling filtration",
		BuildProfileText(p))
}

func TestBuildProfileText_SkipsEmptyFields(t *testing.T) {
	p := &core.Profile{
		Population:     core.PopulationProvider,
		ExpertiseAreas: "Robotics",
	}
	assert.Equal(t, "robotics", BuildProfileText(p))
}

func TestBuildProfileText_AllEmpty(t *testing.T) {
	p := &core.Profile{Population: core.PopulationSeeker}
	assert.Equal(t, "", BuildProfileText(p))

	p = &core.Profile{
		Population:      core.PopulationSeeker,
		ExpertiseSought: "   ",
	}
	assert.Equal(t, "", BuildProfileText(p))
}

func TestBuildProfileText_IgnoresOppositeFields(t *testing.T) {
	p := &core.Profile{
		Population:      core.PopulationProvider,
		ExpertiseAreas:  "Chemistry",
		ExpertiseSought: "should not appear",
	}
	assert.Equal(t, "chemistry", BuildProfileText(p))
}

func TestRawProfileText(t *testing.T) {
	p := &core.Profile{
		Population:        core.PopulationProvider,
		ExpertiseAreas:    "Machine Learning",
		SectorsInterested: "Energy",
	}
	assert.Equal(t, "Machine Learning. Energy", RawProfileText(p))
}

func TestNormalizeVector(t *testing.T) {
	v := NormalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)
}

func TestNormalizeVector_Zero(t *testing.T) {
	v := NormalizeVector([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, v)
	assert.Empty(t, NormalizeVector(nil))
}

func TestDotProduct(t *testing.T) {
	assert.Equal(t, float32(1), dotProduct([]float32{1, 0}, []float32{1, 0}))
	assert.Equal(t, float32(0), dotProduct([]float32{1, 0}, []float32{0, 1}))
	assert.Equal(t, float32(0.5), dotProduct([]float32{0.5, 0.5}, []float32{1, 0}))
}
