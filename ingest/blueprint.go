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


package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/topiary/ai"
	"github.com/poiesic/topiary/core"
	"github.com/poiesic/topiary/pipeline"
)

// BlueprintGenerationTool runs graph extraction over every passage
// concurrently. Results keep passage order: pc.Blueprints[i] belongs to
// pc.Passages[i]. A passage whose extraction fails gets an empty blueprint
// and a failed outcome; the tool fails only when every passage fails.
type BlueprintGenerationTool struct {
	extractor ai.GraphExtractor
	embedder  ai.Embedder
	pool      *ants.Pool
	logger    *slog.Logger
}

var _ pipeline.Tool = (*BlueprintGenerationTool)(nil)

// BlueprintOption configures a BlueprintGenerationTool.
type BlueprintOption func(*BlueprintGenerationTool) error

// WithPoolSize sets the worker pool size for concurrent extraction.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) BlueprintOption {
	return func(t *BlueprintGenerationTool) error {
		if size < 1 {
			size = 1
		}
		if t.pool != nil {
			t.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		t.pool = pool
		return nil
	}
}

// NewBlueprintGenerationTool creates the extraction tool.
func NewBlueprintGenerationTool(extractor ai.GraphExtractor, embedder ai.Embedder, opts ...BlueprintOption) (*BlueprintGenerationTool, error) {
	if extractor == nil || embedder == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	t := &BlueprintGenerationTool{
		extractor: extractor,
		embedder:  embedder,
		pool:      pool,
		logger:    slog.Default().With("tool", pipeline.ToolBlueprintGeneration),
	}

	for _, opt := range opts {
		if err := opt(t); err != nil {
			t.Release()
			return nil, err
		}
	}
	return t, nil
}

// Name returns the tool's registry name.
func (t *BlueprintGenerationTool) Name() string {
	return pipeline.ToolBlueprintGeneration
}

// Run extracts a blueprint per passage using the worker pool.
func (t *BlueprintGenerationTool) Run(ctx context.Context, pc *pipeline.Context) error {
	blueprints := make([]*core.Blueprint, len(pc.Passages))
	errs := make([]error, len(pc.Passages))

	var wg sync.WaitGroup
	for i, passage := range pc.Passages {
		wg.Add(1)
		i, passage := i, passage
		submitErr := t.pool.Submit(func() {
			defer wg.Done()
			blueprints[i], errs[i] = extractBlueprint(ctx, t.extractor, t.embedder, passage)
		})
		if submitErr != nil {
			// Pool rejected the task; run it inline
			blueprints[i], errs[i] = extractBlueprint(ctx, t.extractor, t.embedder, passage)
			wg.Done()
		}
	}
	wg.Wait()

	failedUnits := make(map[core.ID]error)
	failures := 0
	for i, err := range errs {
		if err != nil {
			failures++
			unit := pc.Passages[i].UnitFingerprint
			if _, seen := failedUnits[unit]; !seen {
				failedUnits[unit] = err
			}
			t.logger.Warn("extraction failed for passage",
				"unit", unit, "seq", pc.Passages[i].Seq, "err", err)
		}
	}

	for unit, err := range failedUnits {
		pc.RecordOutcome(unit, originForUnit(pc, unit), t.Name(), core.UnitFailed, err)
	}

	pc.Blueprints = blueprints

	if len(pc.Passages) > 0 && failures == len(pc.Passages) {
		return fmt.Errorf("%w: extraction failed for all %d passages", core.ErrExtraction, failures)
	}

	t.logger.Info("blueprint generation finished",
		"topic", pc.Topic.Name,
		"passages", len(pc.Passages),
		"failed_passages", failures)
	return nil
}

// Release releases the worker pool.
// The tool should not be used after calling Release.
func (t *BlueprintGenerationTool) Release() {
	if t.pool != nil {
		t.pool.Release()
	}
}

// extractBlueprint extracts one passage and embeds every candidate
// description in a single batch.
func extractBlueprint(ctx context.Context, extractor ai.GraphExtractor, embedder ai.Embedder, passage *core.Passage) (*core.Blueprint, error) {
	if err := ctx.Err(); err != nil {
		return &core.Blueprint{UnitFingerprint: passage.UnitFingerprint}, err
	}

	entities, relationships, err := extractor.ExtractGraph(ctx, passage.Text)
	if err != nil {
		return &core.Blueprint{UnitFingerprint: passage.UnitFingerprint},
			fmt.Errorf("%w: %v", core.ErrExtraction, err)
	}

	bp := &core.Blueprint{
		UnitFingerprint: passage.UnitFingerprint,
		Entities:        make([]core.BlueprintEntity, 0, len(entities)),
		Relationships:   make([]core.BlueprintRelationship, 0, len(relationships)),
	}
	texts := make([]string, 0, len(entities)+len(relationships))
	for _, e := range entities {
		bp.Entities = append(bp.Entities, core.BlueprintEntity{
			Name:        e.Name,
			Type:        e.Type,
			Description: e.Description,
		})
		texts = append(texts, e.Description)
	}
	for _, r := range relationships {
		bp.Relationships = append(bp.Relationships, core.BlueprintRelationship{
			Source:      r.Source,
			Target:      r.Target,
			Description: r.Description,
		})
		texts = append(texts, r.Description)
	}

	if len(texts) == 0 {
		return bp, nil
	}

	vectors, err := embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return &core.Blueprint{UnitFingerprint: passage.UnitFingerprint},
			fmt.Errorf("%w: %v", core.ErrEmbedding, err)
	}
	if len(vectors) != len(texts) {
		return &core.Blueprint{UnitFingerprint: passage.UnitFingerprint},
			fmt.Errorf("%w: expected %d vectors, got %d", core.ErrEmbedding, len(texts), len(vectors))
	}

	for i := range bp.Entities {
		bp.Entities[i].Vector = vectors[i]
	}
	for i := range bp.Relationships {
		bp.Relationships[i].Vector = vectors[len(bp.Entities)+i]
	}
	return bp, nil
}

// originForUnit finds the display origin recorded for a unit, if any.
func originForUnit(pc *pipeline.Context, unit core.ID) string {
	for _, u := range pc.Units {
		if u.Fingerprint == unit {
			return u.Origin
		}
	}
	return ""
}
