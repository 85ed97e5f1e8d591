package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileMUS_RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	p := Profile{
		Id:                IDFromContent("ada@example.org"),
		Name:              "Ada Lovelace",
		Email:             "ada@example.org",
		Organization:      "Analytical Engines Ltd",
		Population:        PopulationProvider,
		Department:        "Applied Mathematics",
		ExpertiseAreas:    "symbolic computation, algorithms",
		ExperienceSummary: "Decades of work on mechanical computation.",
		SectorsInterested: "manufacturing, education",
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	bs := make([]byte, ProfileMUS.Size(p))
	n := ProfileMUS.Marshal(p, bs)
	require.Equal(t, len(bs), n, "Marshal should fill exactly Size bytes")

	got, n, err := ProfileMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, len(bs), n)
	assert.Equal(t, p, got)
}

func TestMatchRecordMUS_RoundTrip(t *testing.T) {
	rec := MatchRecord{
		Id:          42,
		SourceId:    IDFromContent("seeker@example.org"),
		CandidateId: IDFromContent("provider@example.org"),
		Score:       0.8731,
		Rank:        1,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}

	bs := make([]byte, MatchRecordMUS.Size(rec))
	MatchRecordMUS.Marshal(rec, bs)

	got, _, err := MatchRecordMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestMatchRecordMUS_TruncatedData(t *testing.T) {
	rec := MatchRecord{SourceId: 1, CandidateId: 2, Score: 0.5, Rank: 1, CreatedAt: time.Now()}
	bs := make([]byte, MatchRecordMUS.Size(rec))
	MatchRecordMUS.Marshal(rec, bs)

	_, _, err := MatchRecordMUS.Unmarshal(bs[:3])
	assert.Error(t, err)
}

func TestContactLogEntryMUS_RoundTrip(t *testing.T) {
	entry := ContactLogEntry{
		Id:         7,
		SeekerId:   IDFromContent("seeker@example.org"),
		ProviderId: IDFromContent("provider@example.org"),
		SentAt:     time.Now().UTC().Truncate(time.Microsecond),
	}

	bs := make([]byte, ContactLogEntryMUS.Size(entry))
	ContactLogEntryMUS.Marshal(entry, bs)

	got, _, err := ContactLogEntryMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, entry, got)
}
