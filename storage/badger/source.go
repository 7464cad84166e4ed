package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/topiary/core"
	"github.com/poiesic/topiary/storage"
)

// SourceRepository implements storage.SourceRepository for BadgerDB.
type SourceRepository struct {
	backend *Backend
}

var _ storage.SourceRepository = (*SourceRepository)(nil)

// NewSourceRepository creates a new SourceRepository.
func NewSourceRepository(backend *Backend) (*SourceRepository, error) {
	return &SourceRepository{
		backend: backend,
	}, nil
}

// Close releases resources. SourceRepository has no resources to release.
func (r *SourceRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *SourceRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddSourceUnit records a source unit if its (topic, fingerprint) key is
// absent. Returns created=false for an already-known unit.
func (r *SourceRepository) AddSourceUnit(ctx context.Context, unit *core.SourceUnit) (bool, error) {
	created := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSourceUnitKey(unit.Topic, unit.Fingerprint)
		_, err := tx.Get(key)
		if err == nil {
			return nil
		}
		if err != badger.ErrKeyNotFound {
			return err
		}

		unit.InsertedAt = time.Now().UTC()
		if err := tx.Set(key, storage.MarshalSourceUnit(unit)); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		created = true
		return nil
	}, true)

	// A concurrent writer recording the same unit is still a duplicate.
	if err == badger.ErrConflict {
		return false, nil
	}
	return created, err
}

// HasSourceUnit reports whether a fingerprint is recorded for the topic.
func (r *SourceRepository) HasSourceUnit(ctx context.Context, topic string, fingerprint core.ID) (bool, error) {
	found := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeSourceUnitKey(topic, fingerprint))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	}, false)
	return found, err
}

// GetSourceUnits returns all units recorded for a topic.
func (r *SourceRepository) GetSourceUnits(ctx context.Context, topic string) ([]*core.SourceUnit, error) {
	var results []*core.SourceUnit
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := makePartialSourceUnitKey(topic)
		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			var unit *core.SourceUnit
			err := iter.Item().Value(func(val []byte) error {
				var err error
				unit, err = storage.UnmarshalSourceUnit(val)
				return err
			})
			if err != nil {
				return err
			}
			if unit != nil {
				results = append(results, unit)
			}
		}
		return nil
	}, false)
	return results, err
}
