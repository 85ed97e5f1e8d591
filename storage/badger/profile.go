package badger

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/affinity/core"
	"github.com/poiesic/affinity/storage"
)

// ProfileRepository implements storage.ProfileRepository for BadgerDB.
type ProfileRepository struct {
	backend *Backend
}

var _ storage.ProfileRepository = (*ProfileRepository)(nil)

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(backend *Backend) (*ProfileRepository, error) {
	return &ProfileRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *ProfileRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ProfileRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddProfiles adds one or more profiles to storage.
func (r *ProfileRepository) AddProfiles(ctx context.Context, profiles ...*core.Profile) ([]*core.Profile, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, profile := range profiles {
			profile.Email = core.NormalizeEmail(profile.Email)
			if profile.Id == 0 {
				profile.Id = core.IDFromContent(profile.Email)
			}

			// Reject a second registration under the same email
			emailKey := makeEmailKey(profile.Email)
			if _, err := tx.Get(emailKey); err == nil {
				return storage.ErrDuplicateKey
			} else if err != badger.ErrKeyNotFound {
				return err
			}

			if profile.CreatedAt.IsZero() {
				profile.CreatedAt = time.Now().UTC()
			}
			profile.UpdatedAt = profile.CreatedAt

			if err := core.ValidateProfile(profile); err != nil {
				return err
			}

			key := makeProfileKey(profile.Id)
			if err := tx.Set(key, storage.MarshalProfile(profile)); err != nil {
				return err
			}

			if err := tx.Set(emailKey, storage.MarshalID(profile.Id)); err != nil {
				return err
			}

			popKey := makePopulationKey(profile.Population, profile.CreatedAt, profile.Id)
			if err := tx.Set(popKey, storage.MarshalID(profile.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return profiles, err
}

// UpdateProfiles updates existing profiles. The population tag is immutable
// once set; a profile never moves between populations.
func (r *ProfileRepository) UpdateProfiles(ctx context.Context, profiles ...*core.Profile) ([]*core.Profile, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, profile := range profiles {
			key := makeProfileKey(profile.Id)

			old, err := readProfile(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			if profile.Population != old.Population {
				return fmt.Errorf("%w: population tag is immutable", core.ErrInvalidProfile)
			}

			profile.Email = core.NormalizeEmail(profile.Email)
			profile.CreatedAt = old.CreatedAt
			profile.UpdatedAt = time.Now().UTC()

			if err := core.ValidateProfile(profile); err != nil {
				return err
			}

			if err := tx.Set(key, storage.MarshalProfile(profile)); err != nil {
				return err
			}

			// Update email index if the address changed
			if old.Email != profile.Email {
				if err := tx.Delete(makeEmailKey(old.Email)); err != nil {
					return err
				}
				if err := tx.Set(makeEmailKey(profile.Email), storage.MarshalID(profile.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return profiles, err
}

// DeleteProfiles removes profiles by their IDs.
func (r *ProfileRepository) DeleteProfiles(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeProfileKey(id)

			profile, err := readProfile(tx, key)
			if err != nil {
				return err
			}
			if profile == nil {
				return storage.ErrNotFound
			}

			if err := tx.Delete(makeEmailKey(profile.Email)); err != nil {
				return err
			}
			popKey := makePopulationKey(profile.Population, profile.CreatedAt, profile.Id)
			if err := tx.Delete(popKey); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetProfile retrieves a single profile by ID.
func (r *ProfileRepository) GetProfile(ctx context.Context, id core.ID) (*core.Profile, error) {
	var result *core.Profile
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readProfile(tx, makeProfileKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetProfileByEmail retrieves a profile by its normalized email address.
func (r *ProfileRepository) GetProfileByEmail(ctx context.Context, email string) (*core.Profile, error) {
	email = core.NormalizeEmail(email)

	var result *core.Profile
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEmailKey(email))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		var id core.ID
		if err := item.Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}

		result, err = readProfile(tx, makeProfileKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListByPopulation retrieves every profile in a population, ordered by
// registration time ascending.
func (r *ProfileRepository) ListByPopulation(ctx context.Context, population core.PopulationTag) ([]*core.Profile, error) {
	var results []*core.Profile
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialPopulationKey(population)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			profile, err := readProfile(tx, makeProfileKey(id))
			if err != nil {
				return err
			}
			if profile != nil {
				results = append(results, profile)
			}
		}
		return nil
	}, false)

	return results, err
}

// CountByPopulation returns the number of profiles in a population.
func (r *ProfileRepository) CountByPopulation(ctx context.Context, population core.PopulationTag) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialPopulationKey(population)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// DeleteAll removes every profile and its indexes.
func (r *ProfileRepository) DeleteAll(ctx context.Context) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, prefix := range [][]byte{
			[]byte(profileRecordPrefix + ":"),
			[]byte(profileEmailPrefix + ":"),
			[]byte(profilePopPrefix + ":"),
		} {
			if err := deletePrefix(tx, prefix); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// readProfile reads a profile from the transaction.
// Returns nil without error when the key is absent.
func readProfile(tx *badger.Txn, key []byte) (*core.Profile, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var profile *core.Profile
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		profile, unmarshalErr = storage.UnmarshalProfile(val)
		return unmarshalErr
	})
	return profile, err
}

// deletePrefix removes every key under a prefix within the transaction.
func deletePrefix(tx *badger.Txn, prefix []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		key := iter.Item().KeyCopy(nil)
		if !bytes.HasPrefix(key, prefix) {
			break
		}
		keys = append(keys, key)
	}
	iter.Close()

	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
