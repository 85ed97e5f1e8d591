package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/affinity/ai/mock"
	"github.com/poiesic/affinity/core"
	"github.com/poiesic/affinity/match"
	badgerstore "github.com/poiesic/affinity/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() *Config {
	cfg := DefaultConfig()
	cfg.MaxRetries = 1
	cfg.RetryDelay = time.Millisecond
	return cfg
}

func setupController(t *testing.T, embedder *mock.MockEmbedder, cfg *Config) (*Controller, *badgerstore.Repositories) {
	t.Helper()
	repos, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	engine, err := match.NewEngine(repos.Profiles, mock.NewMockProviderWithEmbedder(embedder))
	require.NoError(t, err)

	if cfg == nil {
		cfg = fastConfig()
	}
	return NewController(repos.Profiles, repos.Matches, engine, cfg), repos
}

func seedSeekers(t *testing.T, repos *badgerstore.Repositories, n int) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		p := &core.Profile{
			Name:            fmt.Sprintf("Seeker %02d", i),
			Email:           fmt.Sprintf("seeker%02d@x.com", i),
			Population:      core.PopulationSeeker,
			ExpertiseSought: fmt.Sprintf("topic number %d expertise", i),
			CreatedAt:       base.Add(time.Duration(i) * time.Minute),
		}
		_, err := repos.Profiles.AddProfiles(ctx, p)
		require.NoError(t, err)
	}
}

func seedProviders(t *testing.T, repos *badgerstore.Repositories, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		p := &core.Profile{
			Name:           fmt.Sprintf("Provider %02d", i),
			Email:          fmt.Sprintf("provider%02d@x.com", i),
			Population:     core.PopulationProvider,
			ExpertiseAreas: fmt.Sprintf("specialty area %d", i),
		}
		_, err := repos.Profiles.AddProfiles(ctx, p)
		require.NoError(t, err)
	}
}

func TestController_RunBatchSequence(t *testing.T) {
	controller, repos := setupController(t, mock.NewMockEmbedder(), nil)
	ctx := context.Background()

	seedSeekers(t, repos, 23)
	seedProviders(t, repos, 3)

	// Batch 1: 10 of 23
	progress, err := controller.Run(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, progress.BatchNumber)
	assert.Equal(t, 10, progress.ProcessedThisBatch)
	assert.Equal(t, 10, progress.TotalMatched)
	assert.Equal(t, 23, progress.TotalProfiles)
	assert.Equal(t, 13, progress.Remaining)
	assert.Equal(t, 2, progress.NextBatch)
	assert.False(t, progress.Complete)

	// Batch 2: 10 more
	progress, err = controller.Run(ctx, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, progress.ProcessedThisBatch)
	assert.Equal(t, 20, progress.TotalMatched)
	assert.Equal(t, 3, progress.Remaining)
	assert.False(t, progress.Complete)

	// Batch 3: final 3
	progress, err = controller.Run(ctx, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, progress.ProcessedThisBatch)
	assert.Equal(t, 23, progress.TotalMatched)
	assert.Zero(t, progress.Remaining)
	assert.Zero(t, progress.NextBatch)
	assert.True(t, progress.Complete)
}

func TestController_RerunIsIdempotent(t *testing.T) {
	controller, repos := setupController(t, mock.NewMockEmbedder(), nil)
	ctx := context.Background()

	seedSeekers(t, repos, 5)
	seedProviders(t, repos, 2)

	progress, err := controller.Run(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, progress.ProcessedThisBatch)

	recordsBefore, err := repos.Matches.Count(ctx)
	require.NoError(t, err)

	// Same batch again: nothing new is processed, records unchanged
	progress, err = controller.Run(ctx, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, progress.ProcessedThisBatch)
	assert.Equal(t, 5, progress.TotalMatched)
	assert.True(t, progress.Complete)

	recordsAfter, err := repos.Matches.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, recordsBefore, recordsAfter)
}

func TestController_EmptyTextSourceMarkedWithoutEmbedding(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	controller, repos := setupController(t, embedder, nil)
	ctx := context.Background()

	empty := &core.Profile{
		Name:       "Empty Seeker",
		Email:      "empty@x.com",
		Population: core.PopulationSeeker,
	}
	_, err := repos.Profiles.AddProfiles(ctx, empty)
	require.NoError(t, err)
	seedProviders(t, repos, 2)

	progress, err := controller.Run(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, progress.ProcessedThisBatch)
	assert.True(t, progress.Complete)

	// Marked processed despite producing zero matches
	exists, err := repos.Matches.ExistsForSource(ctx, core.IDFromContent("empty@x.com"))
	require.NoError(t, err)
	assert.True(t, exists)

	total, err := repos.Matches.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)

	// Only the candidate-set batch call reached the embedder
	assert.Equal(t, 1, embedder.CallCount())
}

func TestController_FailureKeepsCommittedSources(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	failingText := "topic number 2 expertise"
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if text == failingText {
			return nil, errors.New("embedding service unavailable")
		}
		return []float32{1, 0, 0}, nil
	}

	controller, repos := setupController(t, embedder, nil)
	ctx := context.Background()

	seedSeekers(t, repos, 4)
	seedProviders(t, repos, 1)

	progress, err := controller.Run(ctx, 1, 10)
	require.Error(t, err)
	require.NotNil(t, progress)

	// Seekers 0 and 1 committed before the failure
	assert.Equal(t, 2, progress.ProcessedThisBatch)
	assert.Equal(t, 2, progress.TotalMatched)

	// The failing source stays unmarked and is retried by the next run
	exists, err := repos.Matches.ExistsForSource(ctx, core.IDFromContent("seeker02@x.com"))
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repos.Matches.ExistsForSource(ctx, core.IDFromContent("seeker01@x.com"))
	require.NoError(t, err)
	assert.True(t, exists)

	// After the service recovers, rerunning the batch picks up the rest
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}
	progress, err = controller.Run(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, progress.ProcessedThisBatch)
	assert.True(t, progress.Complete)
}

func TestController_TopNPersisted(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{1, 0, 0}
		}
		return vectors, nil
	}

	controller, repos := setupController(t, embedder, nil)
	ctx := context.Background()

	seedSeekers(t, repos, 1)
	seedProviders(t, repos, 5)

	progress, err := controller.Run(ctx, 1, 10)
	require.NoError(t, err)
	require.True(t, progress.Complete)

	// Default TopN of 1: every provider scores 1.0, only the best survives
	records, err := repos.Matches.ListBySource(ctx, core.IDFromContent("seeker00@x.com"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Rank)
	assert.Equal(t, float32(1.0), records[0].Score)
}

func TestController_BatchPastEnd(t *testing.T) {
	controller, repos := setupController(t, mock.NewMockEmbedder(), nil)
	ctx := context.Background()

	seedSeekers(t, repos, 3)
	seedProviders(t, repos, 1)

	_, err := controller.Run(ctx, 1, 10)
	require.NoError(t, err)

	progress, err := controller.Run(ctx, 5, 10)
	require.NoError(t, err)
	assert.Zero(t, progress.ProcessedThisBatch)
	assert.True(t, progress.Complete)
}

func TestController_InvalidArguments(t *testing.T) {
	controller, _ := setupController(t, mock.NewMockEmbedder(), nil)

	_, err := controller.Run(context.Background(), 0, 10)
	assert.ErrorIs(t, err, ErrInvalidBatchNumber)
}

func TestController_RunAll(t *testing.T) {
	controller, repos := setupController(t, mock.NewMockEmbedder(), nil)
	ctx := context.Background()

	seedSeekers(t, repos, 23)
	seedProviders(t, repos, 2)

	var out testWriter
	require.NoError(t, controller.RunAll(ctx, 1, &out))

	processed, err := repos.Matches.ProcessedCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 23, processed)
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }
