package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/topiary/core"
	"github.com/poiesic/topiary/storage"
)

// RunRepository implements storage.RunRepository for BadgerDB.
type RunRepository struct {
	backend *Backend
}

var _ storage.RunRepository = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository.
func NewRunRepository(backend *Backend) (*RunRepository, error) {
	return &RunRepository{
		backend: backend,
	}, nil
}

// Close releases resources. RunRepository has no resources to release.
func (r *RunRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *RunRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// SavePipelineRun stores a run record keyed by its ID.
func (r *RunRepository) SavePipelineRun(ctx context.Context, run *core.PipelineRun) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makePipelineRunKey(run.Id)
		if err := tx.Set(key, storage.MarshalPipelineRun(run)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetPipelineRun retrieves a run record by ID.
func (r *RunRepository) GetPipelineRun(ctx context.Context, id string) (*core.PipelineRun, error) {
	var result *core.PipelineRun
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makePipelineRunKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			result, err = storage.UnmarshalPipelineRun(val)
			return err
		})
	}, false)
	return result, err
}
