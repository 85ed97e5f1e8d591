package storage

import (
	"testing"
	"time"

	"github.com/poiesic/affinity/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("alice@example.com")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Empty(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.Error(t, err)
}

func TestMarshalUnmarshalProfile(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	original := &core.Profile{
		Id:                core.IDFromContent("alice@example.com"),
		Name:              "Alice",
		Email:             "alice@example.com",
		Organization:      "Example Labs",
		Population:        core.PopulationSeeker,
		OrganizationFocus: "municipal water treatment",
		ExpertiseSought:   "machine learning",
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	data := MarshalProfile(original)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalProfile(data)
	require.NoError(t, err)
	assert.Equal(t, original.Id, decoded.Id)
	assert.Equal(t, original.Email, decoded.Email)
	assert.Equal(t, original.Population, decoded.Population)
	assert.Equal(t, original.ExpertiseSought, decoded.ExpertiseSought)
	assert.True(t, original.CreatedAt.Equal(decoded.CreatedAt))
}

func TestUnmarshalProfile_Invalid(t *testing.T) {
	_, err := UnmarshalProfile([]byte{1, 2})
	assert.Error(t, err)
}

func TestMarshalUnmarshalMatchRecord(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	original := &core.MatchRecord{
		Id:          core.ID(7),
		SourceId:    core.ID(1),
		CandidateId: core.ID(2),
		Score:       0.8745,
		Rank:        1,
		CreatedAt:   now,
	}

	data := MarshalMatchRecord(original)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalMatchRecord(data)
	require.NoError(t, err)
	assert.Equal(t, original.SourceId, decoded.SourceId)
	assert.Equal(t, original.CandidateId, decoded.CandidateId)
	assert.Equal(t, original.Score, decoded.Score)
	assert.Equal(t, original.Rank, decoded.Rank)
}
