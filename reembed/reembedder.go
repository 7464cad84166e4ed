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
	"fmt"
	"io"
	"time"

	"github.com/poiesic/topiary/ai"
	"github.com/poiesic/topiary/core"
	"github.com/poiesic/topiary/storage"
)

// Config holds configuration for a re-embedding pass.
type Config struct {
	// BatchSize is the number of entities to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of entities)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder refreshes the embeddings of entities whose descriptions changed
// during graph merges (the stale flag).
type Reembedder struct {
	graph     storage.GraphRepository
	embedder  ai.Embedder
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *StaleEntityIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(graph storage.GraphRepository, embedder ai.Embedder, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}

	processor := NewBatchProcessor(graph, embedder, config.MaxRetries, config.RetryDelay)
	iterator := NewStaleEntityIterator(graph, config.BatchSize)

	return &Reembedder{
		graph:     graph,
		embedder:  embedder,
		config:    config,
		progress:  progress,
		processor: processor,
		iterator:  iterator,
	}
}

// Run re-embeds every stale entity, reporting progress to the configured
// writer. Returns the number of entities refreshed.
func (r *Reembedder) Run(ctx context.Context) (int, error) {
	stale, err := r.graph.GetStaleEntities(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to query stale entities: %w", err)
	}

	total := len(stale)
	if total == 0 {
		fmt.Fprintf(r.progress, "No stale entities found\n")
		return 0, nil
	}

	fmt.Fprintf(r.progress, "Re-embedding %d stale entities (batch size: %d)\n",
		total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	err = r.iterator.ForEach(ctx, func(entities []*core.Entity) error {
		if err := r.processor.Process(ctx, entities); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		processed += len(entities)
		tracker.Update(processed)
		return nil
	})
	if err != nil {
		return processed, err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Re-embedding complete. Processed %d entities in %v (%.1f entities/sec)\n",
		processed, elapsed.Round(time.Second), float64(processed)/elapsed.Seconds())

	return processed, nil
}
