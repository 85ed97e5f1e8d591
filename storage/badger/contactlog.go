package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/affinity/core"
	"github.com/poiesic/affinity/storage"
)

// ContactLogRepository implements storage.ContactLogRepository for BadgerDB.
type ContactLogRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ContactLogRepository = (*ContactLogRepository)(nil)

// NewContactLogRepository creates a new ContactLogRepository.
func NewContactLogRepository(backend *Backend) (*ContactLogRepository, error) {
	idSeq, err := backend.GetSequence(contactLogIDSeq)
	if err != nil {
		return nil, err
	}

	return &ContactLogRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ContactLogRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *ContactLogRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddEntry records that an introduction was sent for a seeker/provider pair.
func (r *ContactLogRepository) AddEntry(ctx context.Context, entry *core.ContactLogEntry) (*core.ContactLogEntry, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		pairKey := makeContactLogPairKey(entry.SeekerId, entry.ProviderId)
		if _, err := tx.Get(pairKey); err == nil {
			return storage.ErrDuplicateKey
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		nextID, err := r.idSeq.Next()
		if err != nil {
			return err
		}
		if nextID == 0 {
			nextID, err = r.idSeq.Next()
			if err != nil {
				return err
			}
		}
		entry.Id = core.ID(nextID)
		if entry.SentAt.IsZero() {
			entry.SentAt = time.Now().UTC()
		}

		key := makeContactLogKey(entry.Id)
		if err := tx.Set(key, storage.MarshalContactLogEntry(entry)); err != nil {
			return err
		}
		if err := tx.Set(pairKey, storage.MarshalID(entry.Id)); err != nil {
			return err
		}

		return tx.Commit()
	}, true)

	return entry, err
}

// HasEntry reports whether an introduction was already sent for the pair.
func (r *ContactLogRepository) HasEntry(ctx context.Context, seekerID, providerID core.ID) (bool, error) {
	exists := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeContactLogPairKey(seekerID, providerID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	}, false)
	return exists, err
}

// ListEntries retrieves every contact log entry.
func (r *ContactLogRepository) ListEntries(ctx context.Context) ([]*core.ContactLogEntry, error) {
	var results []*core.ContactLogEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(contactLogPrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var entry *core.ContactLogEntry
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalContactLogEntry(val)
				return err
			}); err != nil {
				return err
			}
			if entry != nil {
				results = append(results, entry)
			}
		}
		return nil
	}, false)

	return results, err
}
