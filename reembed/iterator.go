// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"

	"github.com/poiesic/topiary/core"
	"github.com/poiesic/topiary/storage"
)

const (
	// DefaultBatchSize is the default number of entities fetched per batch
	DefaultBatchSize = 100
)

// StaleEntityIterator walks the entities flagged for re-embedding in batches.
type StaleEntityIterator struct {
	graph     storage.GraphRepository
	batchSize int
}

// NewStaleEntityIterator creates a new iterator.
// batchSize: number of entities to fetch in each batch (must be > 0)
func NewStaleEntityIterator(graph storage.GraphRepository, batchSize int) *StaleEntityIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &StaleEntityIterator{
		graph:     graph,
		batchSize: batchSize,
	}
}

// ForEach fetches stale entities batch by batch, calling fn for each batch.
// fn is expected to clear the stale flag of every entity it handles; an fn
// that leaves a batch stale stops iteration rather than loop on it forever.
// Iteration stops on the first error from fn. Context cancellation is
// checked between batches.
func (it *StaleEntityIterator) ForEach(ctx context.Context, fn func([]*core.Entity) error) error {
	var lastFirst core.ID

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, err := it.graph.GetStaleEntities(ctx, it.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		if batch[0].Id == lastFirst {
			return nil
		}
		lastFirst = batch[0].Id

		if err := fn(batch); err != nil {
			return err
		}
	}
}
