package storage

import (
	"context"

	"github.com/poiesic/affinity/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// ProfileRepository provides operations for managing seeker and provider
// profiles.
type ProfileRepository interface {
	Repository

	// AddProfiles adds one or more profiles to storage.
	// For profiles with Id=0, derives a content-based ID from the
	// normalized email address. Sets CreatedAt if not already set.
	// Returns ErrDuplicateKey if a profile with the same email exists.
	// Returns the profiles with IDs and timestamps populated.
	AddProfiles(ctx context.Context, profiles ...*core.Profile) ([]*core.Profile, error)

	// UpdateProfiles updates existing profiles.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any profile doesn't exist.
	UpdateProfiles(ctx context.Context, profiles ...*core.Profile) ([]*core.Profile, error)

	// DeleteProfiles removes profiles by their IDs, along with their
	// index entries. Returns ErrNotFound if any profile doesn't exist.
	DeleteProfiles(ctx context.Context, ids ...core.ID) error

	// GetProfile retrieves a single profile by ID.
	// Returns ErrNotFound if the profile doesn't exist.
	GetProfile(ctx context.Context, id core.ID) (*core.Profile, error)

	// GetProfileByEmail retrieves a profile by its normalized email address.
	// Returns ErrNotFound if no profile has that email.
	GetProfileByEmail(ctx context.Context, email string) (*core.Profile, error)

	// ListByPopulation retrieves every profile in a population, ordered by
	// registration time ascending. The order is stable across calls, which
	// batch processing relies on.
	ListByPopulation(ctx context.Context, population core.PopulationTag) ([]*core.Profile, error)

	// CountByPopulation returns the number of profiles in a population.
	CountByPopulation(ctx context.Context, population core.PopulationTag) (int, error)

	// DeleteAll removes every profile and its indexes.
	DeleteAll(ctx context.Context) error
}

// MatchRepository provides operations for persisted match records and the
// per-source progress markers that make batch computation resumable.
type MatchRepository interface {
	Repository

	// SaveForSource stores the match records computed for one source
	// profile and marks the source as processed, in a single transaction.
	// An empty records slice is valid: the source is marked processed with
	// no matches. Calling SaveForSource again for the same source replaces
	// its records.
	SaveForSource(ctx context.Context, sourceID core.ID, records []*core.MatchRecord) error

	// ExistsForSource reports whether a source profile has already been
	// processed, regardless of how many matches it produced.
	ExistsForSource(ctx context.Context, sourceID core.ID) (bool, error)

	// ProcessedCount returns the number of source profiles marked processed.
	ProcessedCount(ctx context.Context) (int, error)

	// Count returns the total number of stored match records.
	Count(ctx context.Context) (int, error)

	// ListBySource retrieves the match records for one source profile,
	// ordered by rank ascending.
	ListBySource(ctx context.Context, sourceID core.ID) ([]*core.MatchRecord, error)

	// ListTop retrieves the highest-scoring match records across all
	// sources, ordered by score descending, up to limit results.
	ListTop(ctx context.Context, limit int) ([]*core.MatchRecord, error)

	// ListAll retrieves every stored match record.
	ListAll(ctx context.Context) ([]*core.MatchRecord, error)

	// DeleteAll removes every match record and processed marker.
	DeleteAll(ctx context.Context) error
}

// ContactLogRepository tracks which introductions have already been sent, so
// repeat runs don't email the same pair twice.
type ContactLogRepository interface {
	Repository

	// AddEntry records that an introduction was sent for a seeker/provider
	// pair. Generates a sequential ID and sets SentAt if not already set.
	AddEntry(ctx context.Context, entry *core.ContactLogEntry) (*core.ContactLogEntry, error)

	// HasEntry reports whether an introduction was already sent for the pair.
	HasEntry(ctx context.Context, seekerID, providerID core.ID) (bool, error)

	// ListEntries retrieves every contact log entry.
	ListEntries(ctx context.Context) ([]*core.ContactLogEntry, error)
}
