package match

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/affinity/ai"
	"github.com/poiesic/affinity/core"
	"github.com/poiesic/affinity/storage"
	"github.com/poiesic/affinity/text"
)

// DefaultThreshold is the similarity floor. Candidates scoring at or below
// it are excluded, which keeps near-orthogonal pairings out of results.
const DefaultThreshold float32 = 0.1

// Engine ranks profiles against the opposite population by embedding
// similarity. It holds no mutable state between calls; all persistence goes
// through the repositories handed to it.
type Engine struct {
	profiles     storage.ProfileRepository
	embedder     ai.Embedder
	threshold    float32
	keywordLimit int
	logger       *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithThreshold overrides the similarity floor.
func WithThreshold(threshold float32) Option {
	return func(e *Engine) error {
		e.threshold = threshold
		return nil
	}
}

// WithKeywordLimit overrides the keyword evidence cap per match.
func WithKeywordLimit(limit int) Option {
	return func(e *Engine) error {
		e.keywordLimit = limit
		return nil
	}
}

// NewEngine creates a matching engine.
func NewEngine(profiles storage.ProfileRepository, provider ai.Provider, opts ...Option) (*Engine, error) {
	if profiles == nil {
		return nil, ErrProfileRepositoryRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	e := &Engine{
		profiles:     profiles,
		embedder:     provider.Embedder(),
		threshold:    DefaultThreshold,
		keywordLimit: text.DefaultOverlapCap,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// CandidateSet is one population's embeddable profiles with their unit
// vectors, embedded in a single batch call. Profiles with no matchable text
// are excluded at construction; they can never appear in results.
type CandidateSet struct {
	Population core.PopulationTag
	Profiles   []*core.Profile
	Vectors    [][]float32
}

// BuildCandidateSet lists a population's profiles and embeds their composite
// texts in one batch request. Building the set once and reusing it across
// many sources is what keeps a batch run at one embedding call per source.
func (e *Engine) BuildCandidateSet(ctx context.Context, population core.PopulationTag) (*CandidateSet, error) {
	profiles, err := e.profiles.ListByPopulation(ctx, population)
	if err != nil {
		return nil, err
	}

	set := &CandidateSet{Population: population}
	texts := make([]string, 0, len(profiles))
	for _, profile := range profiles {
		composite := BuildProfileText(profile)
		if composite == "" {
			e.logger.Debug("skipping candidate with no matchable text", "email", profile.Email)
			continue
		}
		set.Profiles = append(set.Profiles, profile)
		texts = append(texts, composite)
	}

	if len(texts) == 0 {
		return set, nil
	}

	vectors, err := e.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		e.logger.Error("failed to embed candidate texts", "count", len(texts), "err", err)
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, ErrEmbeddingMismatch
	}

	set.Vectors = make([][]float32, len(vectors))
	for i, vec := range vectors {
		set.Vectors[i] = NormalizeVector(vec)
	}
	return set, nil
}

// FindMatchesIn embeds one source profile and ranks it against a prebuilt
// candidate set. An empty candidate pool or a source with no matchable text
// yields nil without calling the embedder.
func (e *Engine) FindMatchesIn(ctx context.Context, source *core.Profile, candidates *CandidateSet, topN int) ([]Ranked, error) {
	if candidates == nil || len(candidates.Profiles) == 0 {
		return nil, nil
	}

	composite := BuildProfileText(source)
	if composite == "" {
		return nil, nil
	}

	vec, err := e.embedder.EmbedText(ctx, composite)
	if err != nil {
		e.logger.Error("failed to embed source text", "email", source.Email, "err", err)
		return nil, err
	}

	return RankBySimilarity(NormalizeVector(vec), candidates, e.threshold, topN), nil
}

// FindMatches computes the top matches for one profile on demand, against
// the opposite population, and decorates them with keyword evidence.
func (e *Engine) FindMatches(ctx context.Context, sourceID core.ID, topN int) ([]*core.MatchResult, error) {
	source, err := e.profiles.GetProfile(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	return e.findMatchesFor(ctx, source, topN)
}

// FindMatchesByEmail is FindMatches keyed by the registered email address.
// An unknown address is an empty result, not an error.
func (e *Engine) FindMatchesByEmail(ctx context.Context, email string, topN int) ([]*core.MatchResult, error) {
	source, err := e.profiles.GetProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return e.findMatchesFor(ctx, source, topN)
}

func (e *Engine) findMatchesFor(ctx context.Context, source *core.Profile, topN int) ([]*core.MatchResult, error) {
	candidates, err := e.BuildCandidateSet(ctx, source.Population.Opposite())
	if err != nil {
		return nil, err
	}

	ranked, err := e.FindMatchesIn(ctx, source, candidates, topN)
	if err != nil {
		return nil, err
	}

	results := make([]*core.MatchResult, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, e.buildResult(source, r))
	}
	return results, nil
}

// BuildResult converts one ranked candidate into a presentable result for
// the given source, including the shared keyword evidence.
func (e *Engine) BuildResult(source *core.Profile, r Ranked) *core.MatchResult {
	return e.buildResult(source, r)
}

func (e *Engine) buildResult(source *core.Profile, r Ranked) *core.MatchResult {
	candidate := r.Profile
	result := &core.MatchResult{
		Rank:         r.Rank,
		Name:         candidate.Name,
		Email:        candidate.Email,
		Organization: candidate.Organization,
		Population:   candidate.Population,
		Score:        core.RoundScore(r.Score),
		Percentage:   core.RoundPercentage(r.Score),
		MatchingKeywords: text.ExtractOverlap(
			RawProfileText(source), RawProfileText(candidate), e.keywordLimit),
	}

	switch candidate.Population {
	case core.PopulationProvider:
		result.Department = candidate.Department
		result.ExpertiseAreas = candidate.ExpertiseAreas
		result.ExperienceSummary = candidate.ExperienceSummary
	case core.PopulationSeeker:
		result.OrganizationFocus = candidate.OrganizationFocus
		result.ExpertiseSought = candidate.ExpertiseSought
		result.ChallengeDescription = candidate.ChallengeDescription
	}
	return result
}

// Threshold returns the engine's similarity floor.
func (e *Engine) Threshold() float32 {
	return e.threshold
}
