package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/affinity/core"
	"github.com/poiesic/affinity/storage"
)

// MatchRepository implements storage.MatchRepository for BadgerDB.
//
// Besides the match records themselves, it maintains a per-source processed
// marker written in the same transaction as the records. The marker is what
// makes batch computation resumable: a source that produced zero matches is
// still marked and never reprocessed.
type MatchRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.MatchRepository = (*MatchRepository)(nil)

// NewMatchRepository creates a new MatchRepository.
func NewMatchRepository(backend *Backend) (*MatchRepository, error) {
	idSeq, err := backend.GetSequence(matchRecordIDSeq)
	if err != nil {
		return nil, err
	}

	return &MatchRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *MatchRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *MatchRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// SaveForSource stores the match records computed for one source profile and
// marks the source as processed, in a single transaction.
func (r *MatchRepository) SaveForSource(ctx context.Context, sourceID core.ID, records []*core.MatchRecord) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		// Replace any records from an earlier run for this source
		if err := r.deleteSourceRecords(tx, sourceID); err != nil {
			return err
		}

		for _, record := range records {
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			record.Id = core.ID(nextID)
			record.SourceId = sourceID
			if record.CreatedAt.IsZero() {
				record.CreatedAt = time.Now().UTC()
			}

			if err := core.ValidateMatchRecord(record); err != nil {
				return err
			}

			key := makeMatchKey(record.Id)
			if err := tx.Set(key, storage.MarshalMatchRecord(record)); err != nil {
				return err
			}

			sourceKey := makeMatchSourceKey(sourceID, record.Rank)
			if err := tx.Set(sourceKey, storage.MarshalID(record.Id)); err != nil {
				return err
			}

			scoreKey := makeMatchScoreKey(record.Score, record.Id)
			if err := tx.Set(scoreKey, storage.MarshalID(record.Id)); err != nil {
				return err
			}
		}

		if err := tx.Set(makeMatchDoneKey(sourceID), []byte{1}); err != nil {
			return err
		}

		return tx.Commit()
	}, true)
}

// ExistsForSource reports whether a source profile has already been processed.
func (r *MatchRepository) ExistsForSource(ctx context.Context, sourceID core.ID) (bool, error) {
	exists := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeMatchDoneKey(sourceID))
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

// ProcessedCount returns the number of source profiles marked processed.
func (r *MatchRepository) ProcessedCount(ctx context.Context) (int, error) {
	return r.countPrefix([]byte(matchDonePrefix + ":"))
}

// Count returns the total number of stored match records.
func (r *MatchRepository) Count(ctx context.Context) (int, error) {
	return r.countPrefix([]byte(matchRecordPrefix + ":"))
}

// ListBySource retrieves the match records for one source profile, ordered by
// rank ascending.
func (r *MatchRepository) ListBySource(ctx context.Context, sourceID core.ID) ([]*core.MatchRecord, error) {
	var results []*core.MatchRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialMatchSourceKey(sourceID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			record, err := r.resolveIndexedRecord(tx, iter.Item())
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)

	return results, err
}

// ListTop retrieves the highest-scoring match records across all sources,
// ordered by score descending, up to limit results. It walks the score index
// in reverse, so the cost is proportional to limit rather than to the total
// number of records.
func (r *MatchRepository) ListTop(ctx context.Context, limit int) ([]*core.MatchRecord, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.MatchRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(matchScorePrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek past the last possible key under the prefix
		seekKey := append(append([]byte{}, prefix...), 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)

		for iter.Seek(seekKey); iter.Valid() && len(results) < limit; iter.Next() {
			record, err := r.resolveIndexedRecord(tx, iter.Item())
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)

	return results, err
}

// ListAll retrieves every stored match record.
func (r *MatchRepository) ListAll(ctx context.Context) ([]*core.MatchRecord, error) {
	var results []*core.MatchRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(matchRecordPrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.MatchRecord
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalMatchRecord(val)
				return err
			}); err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)

	return results, err
}

// DeleteAll removes every match record and processed marker.
func (r *MatchRepository) DeleteAll(ctx context.Context) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, prefix := range [][]byte{
			[]byte(matchRecordPrefix + ":"),
			[]byte(matchSourcePrefix + ":"),
			[]byte(matchScorePrefix + ":"),
			[]byte(matchDonePrefix + ":"),
		} {
			if err := deletePrefix(tx, prefix); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// deleteSourceRecords removes the records and index entries of one source.
func (r *MatchRepository) deleteSourceRecords(tx *badger.Txn, sourceID core.ID) error {
	prefix := makePartialMatchSourceKey(sourceID)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)

	type stale struct {
		sourceKey []byte
		id        core.ID
		score     float32
	}
	var staleEntries []stale

	for iter.Rewind(); iter.Valid(); iter.Next() {
		record, err := r.resolveIndexedRecord(tx, iter.Item())
		if err != nil {
			iter.Close()
			return err
		}
		if record == nil {
			continue
		}
		staleEntries = append(staleEntries, stale{
			sourceKey: iter.Item().KeyCopy(nil),
			id:        record.Id,
			score:     record.Score,
		})
	}
	iter.Close()

	for _, entry := range staleEntries {
		if err := tx.Delete(entry.sourceKey); err != nil {
			return err
		}
		if err := tx.Delete(makeMatchScoreKey(entry.score, entry.id)); err != nil {
			return err
		}
		if err := tx.Delete(makeMatchKey(entry.id)); err != nil {
			return err
		}
	}
	return nil
}

// resolveIndexedRecord follows an index entry to its full match record.
func (r *MatchRepository) resolveIndexedRecord(tx *badger.Txn, item *badger.Item) (*core.MatchRecord, error) {
	var id core.ID
	if err := item.Value(func(val []byte) error {
		var err error
		id, err = storage.UnmarshalID(val)
		return err
	}); err != nil {
		return nil, err
	}

	recordItem, err := tx.Get(makeMatchKey(id))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.MatchRecord
	err = recordItem.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalMatchRecord(val)
		return unmarshalErr
	})
	return record, err
}

// countPrefix counts keys under a prefix without prefetching values.
func (r *MatchRepository) countPrefix(prefix []byte) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
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
