package badger

import (
	"context"
	"testing"

	"github.com/poiesic/affinity/core"
	"github.com/poiesic/affinity/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMatch(candidateID core.ID, score float32, rank int) *core.MatchRecord {
	return &core.MatchRecord{
		CandidateId: candidateID,
		Score:       score,
		Rank:        rank,
	}
}

func TestMatchRepository_SaveAndListBySource(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	sourceID := core.ID(100)
	err := repos.Matches.SaveForSource(ctx, sourceID, []*core.MatchRecord{
		newTestMatch(core.ID(201), 0.91, 1),
		newTestMatch(core.ID(202), 0.72, 2),
		newTestMatch(core.ID(203), 0.55, 3),
	})
	require.NoError(t, err)

	records, err := repos.Matches.ListBySource(ctx, sourceID)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Rank order, not insertion order
	assert.Equal(t, 1, records[0].Rank)
	assert.Equal(t, core.ID(201), records[0].CandidateId)
	assert.Equal(t, 2, records[1].Rank)
	assert.Equal(t, 3, records[2].Rank)

	for _, record := range records {
		assert.Equal(t, sourceID, record.SourceId)
		assert.NotZero(t, record.Id)
		assert.False(t, record.CreatedAt.IsZero())
	}
}

func TestMatchRepository_SaveForSource_MarksProcessed(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	sourceID := core.ID(100)
	exists, err := repos.Matches.ExistsForSource(ctx, sourceID)
	require.NoError(t, err)
	assert.False(t, exists)

	err = repos.Matches.SaveForSource(ctx, sourceID, []*core.MatchRecord{
		newTestMatch(core.ID(201), 0.8, 1),
	})
	require.NoError(t, err)

	exists, err = repos.Matches.ExistsForSource(ctx, sourceID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMatchRepository_SaveForSource_EmptyStillMarks(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	// A source whose text was empty produces zero matches but must still
	// be marked processed, or every later batch would retry it.
	sourceID := core.ID(100)
	require.NoError(t, repos.Matches.SaveForSource(ctx, sourceID, nil))

	exists, err := repos.Matches.ExistsForSource(ctx, sourceID)
	require.NoError(t, err)
	assert.True(t, exists)

	processed, err := repos.Matches.ProcessedCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	total, err := repos.Matches.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestMatchRepository_SaveForSource_ReplacesPriorRecords(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	sourceID := core.ID(100)
	require.NoError(t, repos.Matches.SaveForSource(ctx, sourceID, []*core.MatchRecord{
		newTestMatch(core.ID(201), 0.9, 1),
		newTestMatch(core.ID(202), 0.8, 2),
	}))
	require.NoError(t, repos.Matches.SaveForSource(ctx, sourceID, []*core.MatchRecord{
		newTestMatch(core.ID(203), 0.7, 1),
	}))

	records, err := repos.Matches.ListBySource(ctx, sourceID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, core.ID(203), records[0].CandidateId)

	total, err := repos.Matches.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	processed, err := repos.Matches.ProcessedCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
}

func TestMatchRepository_ListTop(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.Matches.SaveForSource(ctx, core.ID(1), []*core.MatchRecord{
		newTestMatch(core.ID(11), 0.41, 1),
	}))
	require.NoError(t, repos.Matches.SaveForSource(ctx, core.ID(2), []*core.MatchRecord{
		newTestMatch(core.ID(12), 0.93, 1),
	}))
	require.NoError(t, repos.Matches.SaveForSource(ctx, core.ID(3), []*core.MatchRecord{
		newTestMatch(core.ID(13), 0.67, 1),
	}))

	top, err := repos.Matches.ListTop(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, float32(0.93), top[0].Score)
	assert.Equal(t, float32(0.67), top[1].Score)

	all, err := repos.Matches.ListTop(ctx, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, float32(0.41), all[2].Score)
}

func TestMatchRepository_ListTop_InvalidLimit(t *testing.T) {
	repos := setupRepos(t)

	_, err := repos.Matches.ListTop(context.Background(), 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestMatchRepository_ListAll(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.Matches.SaveForSource(ctx, core.ID(1), []*core.MatchRecord{
		newTestMatch(core.ID(11), 0.5, 1),
		newTestMatch(core.ID(12), 0.4, 2),
	}))
	require.NoError(t, repos.Matches.SaveForSource(ctx, core.ID(2), []*core.MatchRecord{
		newTestMatch(core.ID(13), 0.6, 1),
	}))

	all, err := repos.Matches.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMatchRepository_DeleteAll(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.Matches.SaveForSource(ctx, core.ID(1), []*core.MatchRecord{
		newTestMatch(core.ID(11), 0.5, 1),
	}))
	require.NoError(t, repos.Matches.SaveForSource(ctx, core.ID(2), nil))

	require.NoError(t, repos.Matches.DeleteAll(ctx))

	total, err := repos.Matches.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)

	processed, err := repos.Matches.ProcessedCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, processed)

	exists, err := repos.Matches.ExistsForSource(ctx, core.ID(1))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestContactLogRepository_AddAndHas(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	entry, err := repos.ContactLog.AddEntry(ctx, &core.ContactLogEntry{
		SeekerId:   core.ID(1),
		ProviderId: core.ID(2),
	})
	require.NoError(t, err)
	assert.NotZero(t, entry.Id)
	assert.False(t, entry.SentAt.IsZero())

	has, err := repos.ContactLog.HasEntry(ctx, core.ID(1), core.ID(2))
	require.NoError(t, err)
	assert.True(t, has)

	has, err = repos.ContactLog.HasEntry(ctx, core.ID(2), core.ID(1))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestContactLogRepository_DuplicatePair(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	_, err := repos.ContactLog.AddEntry(ctx, &core.ContactLogEntry{SeekerId: 1, ProviderId: 2})
	require.NoError(t, err)

	_, err = repos.ContactLog.AddEntry(ctx, &core.ContactLogEntry{SeekerId: 1, ProviderId: 2})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestContactLogRepository_ListEntries(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	_, err := repos.ContactLog.AddEntry(ctx, &core.ContactLogEntry{SeekerId: 1, ProviderId: 2})
	require.NoError(t, err)
	_, err = repos.ContactLog.AddEntry(ctx, &core.ContactLogEntry{SeekerId: 3, ProviderId: 4})
	require.NoError(t, err)

	entries, err := repos.ContactLog.ListEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
