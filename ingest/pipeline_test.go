package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/poiesic/affinity/core"
	badgerstore "github.com/poiesic/affinity/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPipeline(t *testing.T) (*Pipeline, *badgerstore.Repositories) {
	t.Helper()
	repos, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	pipeline, err := NewPipeline(repos.Profiles)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)
	return pipeline, repos
}

func TestNewPipeline_RequiresRepository(t *testing.T) {
	_, err := NewPipeline(nil)
	assert.ErrorIs(t, err, ErrProfileRepositoryRequired)
}

func TestPipeline_LoadReader(t *testing.T) {
	pipeline, repos := setupPipeline(t)
	ctx := context.Background()

	input := strings.Join([]string{
		`{"name":"Wendy Water","email":"Wendy@Example.com","organization":"Aqua Labs","population":"provider","expertise_areas":"water treatment"}`,
		`{"name":"Sam Seeker","email":"sam@example.com","organization":"Cityworks","population":"seeker","expertise_sought":"water treatment"}`,
	}, "\n")

	stats, err := pipeline.LoadReader(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Loaded)
	assert.Zero(t, stats.Skipped)

	// Email normalized on the way in
	profile, err := repos.Profiles.GetProfileByEmail(ctx, "wendy@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Wendy Water", profile.Name)
	assert.Equal(t, core.PopulationProvider, profile.Population)
	assert.Equal(t, "water treatment", profile.ExpertiseAreas)

	seekers, err := repos.Profiles.CountByPopulation(ctx, core.PopulationSeeker)
	require.NoError(t, err)
	assert.Equal(t, 1, seekers)
}

func TestPipeline_SkipsInvalidLines(t *testing.T) {
	pipeline, repos := setupPipeline(t)
	ctx := context.Background()

	input := strings.Join([]string{
		`{"name":"Valid","email":"valid@x.com","population":"seeker"}`,
		`not json at all`,
		`{"name":"No Email","population":"seeker"}`,
		`{"name":"Bad Population","email":"bad@x.com","population":"wizard"}`,
	}, "\n")

	stats, err := pipeline.LoadReader(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Loaded)
	assert.Equal(t, 3, stats.Skipped)

	count, err := repos.Profiles.CountByPopulation(ctx, core.PopulationSeeker)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPipeline_SkipsDuplicates(t *testing.T) {
	pipeline, _ := setupPipeline(t)
	ctx := context.Background()

	input := strings.Join([]string{
		`{"name":"First","email":"dup@x.com","population":"seeker"}`,
		`{"name":"Second","email":"DUP@x.com","population":"provider"}`,
	}, "\n")

	stats, err := pipeline.LoadReader(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Loaded)
	assert.Equal(t, 1, stats.Skipped)
}

func TestPipeline_EmptyInput(t *testing.T) {
	pipeline, _ := setupPipeline(t)

	stats, err := pipeline.LoadReader(context.Background(), strings.NewReader("\n\n"))
	require.NoError(t, err)
	assert.Zero(t, stats.Loaded)
	assert.Zero(t, stats.Skipped)
}
