package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// PopulationTag identifies which of the two matched populations a profile
// belongs to. The populations are disjoint; only cross-population pairings
// are ever produced.
type PopulationTag int

const (
	// PopulationSeeker represents a profile looking for expertise.
	PopulationSeeker PopulationTag = iota + 1
	// PopulationProvider represents a profile offering expertise.
	PopulationProvider
)

// ParsePopulationTag converts the lowercase tag name to its PopulationTag.
// Returns ErrInvalidPopulationTag for anything else.
func ParsePopulationTag(s string) (PopulationTag, error) {
	switch s {
	case "seeker":
		return PopulationSeeker, nil
	case "provider":
		return PopulationProvider, nil
	default:
		return 0, ErrInvalidPopulationTag
	}
}

// Opposite returns the counterpart population.
func (p PopulationTag) Opposite() PopulationTag {
	if p == PopulationSeeker {
		return PopulationProvider
	}
	return PopulationSeeker
}

// String returns the lowercase tag name used in storage keys and display.
func (p PopulationTag) String() string {
	switch p {
	case PopulationSeeker:
		return "seeker"
	case PopulationProvider:
		return "provider"
	default:
		return "unknown"
	}
}

// Profile represents one registered participant.
// The free-text attributes carry different meaning per population:
// providers describe what they offer, seekers describe what they need.
// Attributes belonging to the other population stay empty.
type Profile struct {
	Id           ID
	Name         string
	Email        string // unique contact address, lowercase-normalized
	Organization string
	Population   PopulationTag

	// Provider attributes
	Department        string
	ExpertiseAreas    string
	ExperienceSummary string
	SectorsInterested string

	// Seeker attributes
	OrganizationFocus    string
	ChallengeDescription string
	ExpertiseSought      string
	LabToursInterested   string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MatchRecord is a persisted directed pairing from a source profile to a
// candidate in the opposite population.
type MatchRecord struct {
	Id          ID
	SourceId    ID
	CandidateId ID
	Score       float32 // cosine similarity in [0,1]
	Rank        int     // 1 = best, unique per source within an epoch
	CreatedAt   time.Time
}

// MatchResult is one entry of an on-demand match query. Fields specific to
// the candidate's population are populated; the others stay empty.
type MatchResult struct {
	Rank             int
	Name             string
	Email            string
	Organization     string
	Population       PopulationTag
	Score            float64 // rounded to 4 decimals
	Percentage       float64 // rounded to 2 decimals
	MatchingKeywords []string

	// Provider candidates
	Department        string
	ExpertiseAreas    string
	ExperienceSummary string

	// Seeker candidates
	OrganizationFocus    string
	ExpertiseSought      string
	ChallengeDescription string
}

// BatchProgress reports the outcome of one incremental batch run.
type BatchProgress struct {
	BatchNumber        int
	ProcessedThisBatch int
	TotalMatched       int // source profiles processed so far, across all runs
	TotalProfiles      int
	Remaining          int
	NextBatch          int // 0 when complete
	Complete           bool
}

// ContactLogEntry records that an introduction between a seeker and a
// provider was acted upon. The matching engine never reads these; match
// displays cross-reference them.
type ContactLogEntry struct {
	Id         ID
	SeekerId   ID
	ProviderId ID
	SentAt     time.Time
}

func roundTo(v float64, decimals int) float64 {
	scale := 1.0
	for i := 0; i < decimals; i++ {
		scale *= 10
	}
	if v < 0 {
		return float64(int64(v*scale-0.5)) / scale
	}
	return float64(int64(v*scale+0.5)) / scale
}

// RoundScore rounds a similarity score the way results present it.
func RoundScore(score float32) float64 {
	return roundTo(float64(score), 4)
}

// RoundPercentage converts a similarity score to its percentage form.
func RoundPercentage(score float32) float64 {
	return roundTo(float64(score)*100, 2)
}
