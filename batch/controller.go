package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/affinity/core"
	"github.com/poiesic/affinity/match"
	"github.com/poiesic/affinity/storage"
)

// Config holds configuration for incremental batch computation.
type Config struct {
	// BatchSize is the number of source profiles per batch
	BatchSize int

	// TopN is how many matches are persisted per source profile
	TopN int

	// SourcePopulation is the population iterated in batches; candidates
	// come from the opposite population
	SourcePopulation core.PopulationTag

	// ReportInterval is how often to report progress (number of profiles)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed embeddings
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:        10,
		TopN:             1,
		SourcePopulation: core.PopulationSeeker,
		ReportInterval:   10,
		MaxRetries:       3,
		RetryDelay:       1 * time.Second,
	}
}

// Controller computes the persisted match set in resumable increments.
type Controller struct {
	profiles storage.ProfileRepository
	matches  storage.MatchRepository
	engine   *match.Engine
	config   *Config
	logger   *slog.Logger
}

// NewController creates a batch controller.
func NewController(profiles storage.ProfileRepository, matches storage.MatchRepository, engine *match.Engine, config *Config) *Controller {
	if config == nil {
		config = DefaultConfig()
	}

	return &Controller{
		profiles: profiles,
		matches:  matches,
		engine:   engine,
		config:   config,
		logger:   slog.Default().With("component", "batch-controller"),
	}
}

// Run processes one batch of source profiles and reports overall progress.
//
// batchNumber is 1-based; batchSize <= 0 falls back to the configured size.
// Sources already marked processed are skipped, so rerunning a batch number
// is a no-op and an interrupted run can be resumed with the same arguments.
// Each source commits independently; on failure the returned progress
// reflects the sources that did commit, and nothing is rolled back.
func (c *Controller) Run(ctx context.Context, batchNumber, batchSize int) (*core.BatchProgress, error) {
	if batchNumber < 1 {
		return nil, ErrInvalidBatchNumber
	}
	if batchSize <= 0 {
		batchSize = c.config.BatchSize
	}
	if batchSize < 1 {
		return nil, ErrInvalidBatchSize
	}

	sources, err := c.profiles.ListByPopulation(ctx, c.config.SourcePopulation)
	if err != nil {
		return nil, err
	}
	total := len(sources)

	start := (batchNumber - 1) * batchSize
	end := start + batchSize
	if end > total {
		end = total
	}

	if start >= total {
		// Past the end of the population: report, don't fail
		return c.progressReport(ctx, batchNumber, 0, total)
	}

	window := sources[start:end]

	// Skip work entirely when every source in the window is already done
	pending := make([]*core.Profile, 0, len(window))
	for _, source := range window {
		done, err := c.matches.ExistsForSource(ctx, source.Id)
		if err != nil {
			return nil, err
		}
		if done {
			c.logger.Debug("source already processed", "email", source.Email)
			continue
		}
		pending = append(pending, source)
	}

	if len(pending) == 0 {
		return c.progressReport(ctx, batchNumber, 0, total)
	}

	candidates, err := c.engine.BuildCandidateSet(ctx, c.config.SourcePopulation.Opposite())
	if err != nil {
		return nil, err
	}

	processed := 0
	for _, source := range pending {
		if err := ctx.Err(); err != nil {
			progress, reportErr := c.progressReport(ctx, batchNumber, processed, total)
			if reportErr != nil {
				return nil, reportErr
			}
			return progress, err
		}

		var ranked []match.Ranked
		err := RetryWithBackoff(ctx, func() error {
			var rankErr error
			ranked, rankErr = c.engine.FindMatchesIn(ctx, source, candidates, c.config.TopN)
			return rankErr
		}, c.config.MaxRetries, c.config.RetryDelay)
		if err != nil {
			// Committed sources stay committed; the failing one stays
			// unmarked and will be retried by the next run.
			c.logger.Error("failed to match source profile", "email", source.Email, "err", err)
			progress, reportErr := c.progressReport(ctx, batchNumber, processed, total)
			if reportErr != nil {
				return nil, reportErr
			}
			return progress, fmt.Errorf("matching %s: %w", source.Email, err)
		}

		records := make([]*core.MatchRecord, 0, len(ranked))
		for _, r := range ranked {
			records = append(records, &core.MatchRecord{
				CandidateId: r.Profile.Id,
				Score:       r.Score,
				Rank:        r.Rank,
			})
		}

		if err := c.matches.SaveForSource(ctx, source.Id, records); err != nil {
			progress, reportErr := c.progressReport(ctx, batchNumber, processed, total)
			if reportErr != nil {
				return nil, reportErr
			}
			return progress, fmt.Errorf("saving matches for %s: %w", source.Email, err)
		}

		processed++
		c.logger.Debug("source processed", "email", source.Email, "matches", len(records))
	}

	return c.progressReport(ctx, batchNumber, processed, total)
}

// RunAll processes batches from the given batch number until the source
// population is exhausted, reporting progress to w.
func (c *Controller) RunAll(ctx context.Context, startBatch int, w io.Writer) error {
	if startBatch < 1 {
		startBatch = 1
	}

	total, err := c.profiles.CountByPopulation(ctx, c.config.SourcePopulation)
	if err != nil {
		return err
	}
	if total == 0 {
		fmt.Fprintf(w, "No profiles found in %s population (0 profiles)\n", c.config.SourcePopulation)
		return nil
	}

	fmt.Fprintf(w, "Computing matches for %d %s profiles (batch size: %d)\n",
		total, c.config.SourcePopulation, c.config.BatchSize)

	tracker := NewProgressTracker(w, total, c.config.ReportInterval)
	tracker.Start()

	lastBatch := (total + c.config.BatchSize - 1) / c.config.BatchSize
	batchNumber := startBatch
	for {
		progress, err := c.Run(ctx, batchNumber, c.config.BatchSize)
		if err != nil {
			return err
		}

		tracker.Update(progress.TotalMatched)
		if progress.Complete || batchNumber >= lastBatch {
			break
		}
		batchNumber = progress.NextBatch
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(w, "Match computation complete. Processed %d profiles in %v\n",
		total, elapsed.Round(time.Second))
	return nil
}

// progressReport assembles a BatchProgress from the stored processed markers.
func (c *Controller) progressReport(ctx context.Context, batchNumber, processedThisBatch, totalProfiles int) (*core.BatchProgress, error) {
	totalMatched, err := c.matches.ProcessedCount(ctx)
	if err != nil {
		return nil, err
	}

	remaining := totalProfiles - totalMatched
	if remaining < 0 {
		remaining = 0
	}

	progress := &core.BatchProgress{
		BatchNumber:        batchNumber,
		ProcessedThisBatch: processedThisBatch,
		TotalMatched:       totalMatched,
		TotalProfiles:      totalProfiles,
		Remaining:          remaining,
		Complete:           remaining == 0,
	}
	if !progress.Complete {
		progress.NextBatch = batchNumber + 1
	}
	return progress, nil
}
