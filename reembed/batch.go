package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/topiary/ai"
	"github.com/poiesic/topiary/core"
	"github.com/poiesic/topiary/storage"
)

// BatchProcessor re-embeds batches of stale entities.
type BatchProcessor struct {
	graph          storage.GraphRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(graph storage.GraphRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		graph:          graph,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds the descriptions of a batch of entities, normalizes the
// vectors for cosine similarity, clears the stale flag, and stores the
// updated entities.
func (bp *BatchProcessor) Process(ctx context.Context, entities []*core.Entity) error {
	if len(entities) == 0 {
		return nil
	}

	texts := make([]string, len(entities))
	for i, entity := range entities {
		texts[i] = entity.Description
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(entities) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(entities), len(embeddings))
	}

	for i, entity := range entities {
		entity.Vector = NormalizeVector(embeddings[i])
		entity.EmbedStale = false
		if _, err := bp.graph.UpdateEntity(ctx, entity); err != nil {
			return fmt.Errorf("failed to update entity %q: %w", entity.Canonical, err)
		}
	}

	return nil
}
