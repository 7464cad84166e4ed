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
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/topiary/ai"
	"github.com/poiesic/topiary/core"
	"github.com/poiesic/topiary/pipeline"
	"github.com/poiesic/topiary/storage"
)

// GraphBuildTool merges blueprints into the topic's persistent graph. It is
// self-sufficient: when it runs without upstream tools (memory pipelines, or
// the single-document pipeline that skips blueprint generation) it converts
// raw inputs to passages and generates the missing blueprints itself.
//
// Builds of the same topic are serialized by a per-topic lock, so entity
// merges never interleave.
type GraphBuildTool struct {
	graph     storage.GraphRepository
	sources   storage.SourceRepository
	topics    storage.TopicRepository
	extractor ai.GraphExtractor
	embedder  ai.Embedder
	locks     *topicLocks
	logger    *slog.Logger
}

var _ pipeline.Tool = (*GraphBuildTool)(nil)

// NewGraphBuildTool creates the graph build tool.
func NewGraphBuildTool(
	graph storage.GraphRepository,
	sources storage.SourceRepository,
	topics storage.TopicRepository,
	provider ai.AIProvider,
) (*GraphBuildTool, error) {
	if graph == nil {
		return nil, ErrGraphRepositoryRequired
	}
	if sources == nil {
		return nil, ErrSourceRepositoryRequired
	}
	if topics == nil {
		return nil, ErrTopicRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	return &GraphBuildTool{
		graph:     graph,
		sources:   sources,
		topics:    topics,
		extractor: provider.GraphExtractor(),
		embedder:  provider.Embedder(),
		locks:     newTopicLocks(),
		logger:    slog.Default().With("tool", pipeline.ToolGraphBuild),
	}, nil
}

// Name returns the tool's registry name.
func (t *GraphBuildTool) Name() string {
	return pipeline.ToolGraphBuild
}

// Run prepares missing inputs, then merges each passage's blueprint into
// the graph. Persistence failures abort the tool; extraction or embedding
// failures fail only the affected unit. A first successful build clears the
// topic's IsNew flag.
func (t *GraphBuildTool) Run(ctx context.Context, pc *pipeline.Context) error {
	if err := t.preparePassages(ctx, pc); err != nil {
		return err
	}
	failedUnits := make(map[core.ID]error)
	if err := t.prepareBlueprints(ctx, pc, failedUnits); err != nil {
		return err
	}

	// Units an upstream tool already failed get no second outcome here.
	upstreamFailed := make(map[core.ID]bool)
	for _, o := range pc.Outcomes {
		if o.Status == core.UnitFailed {
			upstreamFailed[o.Unit] = true
		}
	}

	unlock := t.locks.acquire(pc.Topic.Name)
	defer unlock()

	builtUnits := make(map[core.ID]bool)
	entitiesMerged, relationshipsAdded := 0, 0

	for i, passage := range pc.Passages {
		if err := ctx.Err(); err != nil {
			return err
		}

		bp := pc.Blueprints[i]
		unit := passage.UnitFingerprint
		if upstreamFailed[unit] {
			continue
		}
		if _, failed := failedUnits[unit]; failed {
			continue
		}

		merged, added, err := t.mergeBlueprint(ctx, pc.Topic.Name, bp)
		if err != nil {
			if isFatal(err) {
				return err
			}
			failedUnits[unit] = err
			t.logger.Warn("blueprint merge failed",
				"unit", unit, "seq", passage.Seq, "err", err)
			continue
		}
		builtUnits[unit] = true
		entitiesMerged += merged
		relationshipsAdded += added
	}

	for unit, err := range failedUnits {
		delete(builtUnits, unit)
		pc.RecordOutcome(unit, originForUnit(pc, unit), t.Name(), core.UnitFailed, err)
	}
	for unit := range builtUnits {
		pc.RecordOutcome(unit, originForUnit(pc, unit), t.Name(), core.UnitSucceeded, nil)
	}

	if len(pc.Passages) > 0 && len(builtUnits) == 0 && len(failedUnits) > 0 {
		// Nothing merged at all
		var first error
		for _, err := range failedUnits {
			first = err
			break
		}
		return fmt.Errorf("graph build produced nothing: %w", first)
	}

	if pc.Topic.IsNew {
		if err := t.topics.MarkTopicBuilt(ctx, pc.Topic.Name); err != nil {
			return fmt.Errorf("%w: marking topic %q built: %v", core.ErrPersistence, pc.Topic.Name, err)
		}
		pc.Topic.IsNew = false
	}

	t.logger.Info("graph build finished",
		"topic", pc.Topic.Name,
		"passages", len(pc.Passages),
		"entities_merged", entitiesMerged,
		"relationships_added", relationshipsAdded,
		"failed_units", len(failedUnits))
	return nil
}

// preparePassages converts raw inputs to passages when no upstream intake
// ran. Each input becomes one source unit and one passage; duplicate
// fingerprints are skipped, as in document intake. Any recorded outcome
// means an intake tool already consumed the inputs, even if it produced no
// passages (all duplicates).
func (t *GraphBuildTool) preparePassages(ctx context.Context, pc *pipeline.Context) error {
	if len(pc.Passages) > 0 || len(pc.Inputs) == 0 || len(pc.Outcomes) > 0 {
		return nil
	}

	for _, input := range pc.Inputs {
		text, origin, err := readInput(input)
		if err != nil {
			pc.RecordOutcome(0, origin, t.Name(), core.UnitFailed, err)
			continue
		}

		fingerprint := core.IDFromContent(text)
		unit := &core.SourceUnit{
			Fingerprint: fingerprint,
			Topic:       pc.Topic.Name,
			Origin:      origin,
			Modality:    pc.Modality,
		}

		created, err := t.sources.AddSourceUnit(ctx, unit)
		if err != nil {
			return fmt.Errorf("%w: recording source unit %s: %v", core.ErrPersistence, origin, err)
		}
		if !created {
			pc.RecordOutcome(fingerprint, origin, t.Name(), core.UnitSkipped, nil)
			continue
		}

		pc.Units = append(pc.Units, unit)
		pc.Passages = append(pc.Passages, &core.Passage{
			UnitFingerprint: fingerprint,
			Seq:             0,
			Text:            text,
			Modality:        pc.Modality,
		})
	}
	return nil
}

// prepareBlueprints generates blueprints for passages that arrived without
// one. Extraction runs sequentially; the batch pipelines already did the
// concurrent variant upstream. Units whose extraction fails are added to
// failedUnits and left with an empty blueprint.
func (t *GraphBuildTool) prepareBlueprints(ctx context.Context, pc *pipeline.Context, failedUnits map[core.ID]error) error {
	if len(pc.Blueprints) == len(pc.Passages) {
		return nil
	}

	blueprints := make([]*core.Blueprint, len(pc.Passages))
	copy(blueprints, pc.Blueprints)

	for i := len(pc.Blueprints); i < len(pc.Passages); i++ {
		bp, err := extractBlueprint(ctx, t.extractor, t.embedder, pc.Passages[i])
		blueprints[i] = bp
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			t.logger.Warn("inline extraction failed",
				"unit", pc.Passages[i].UnitFingerprint, "err", err)
			failedUnits[pc.Passages[i].UnitFingerprint] = err
		}
	}

	pc.Blueprints = blueprints
	return nil
}

// mergeBlueprint merges one blueprint's candidates into the topic graph.
// Returns the number of entities touched and relationships inserted.
func (t *GraphBuildTool) mergeBlueprint(ctx context.Context, topic string, bp *core.Blueprint) (int, int, error) {
	if bp == nil || bp.Empty() {
		return 0, 0, nil
	}

	// canonical name -> stored entity id, for endpoint resolution
	resolved := make(map[string]core.ID, len(bp.Entities))
	merged := 0

	for _, candidate := range bp.Entities {
		canonical := core.CanonicalName(candidate.Name)
		if canonical == "" {
			continue
		}

		vector := candidate.Vector
		if len(vector) == 0 && candidate.Description != "" {
			v, err := t.embedder.EmbedText(ctx, candidate.Description)
			if err != nil {
				return merged, 0, fmt.Errorf("%w: embedding entity %q: %v", core.ErrEmbedding, candidate.Name, err)
			}
			vector = v
		}

		entity := &core.Entity{
			Id:          core.EntityID(topic, canonical),
			Topic:       topic,
			Name:        candidate.Name,
			Canonical:   canonical,
			Description: candidate.Description,
			Vector:      vector,
		}
		if err := core.ValidateEntity(entity); err != nil {
			t.logger.Debug("dropping invalid entity candidate", "name", candidate.Name, "err", err)
			continue
		}

		stored, created, err := t.graph.GetOrCreateEntity(ctx, entity)
		if err != nil {
			return merged, 0, fmt.Errorf("%w: storing entity %q: %v", core.ErrPersistence, canonical, err)
		}
		if !created && len(candidate.Description) > len(stored.Description) {
			// Keep the longest description; its embedding is now stale
			stored.Description = candidate.Description
			stored.EmbedStale = true
			if _, err := t.graph.UpdateEntity(ctx, stored); err != nil {
				return merged, 0, fmt.Errorf("%w: updating entity %q: %v", core.ErrPersistence, canonical, err)
			}
		}
		resolved[canonical] = stored.Id
		merged++
	}

	added := 0
	for _, candidate := range bp.Relationships {
		srcID, srcOK := resolved[core.CanonicalName(candidate.Source)]
		tgtID, tgtOK := resolved[core.CanonicalName(candidate.Target)]
		if !srcOK || !tgtOK {
			t.logger.Debug("dropping relationship with unresolved endpoint",
				"source", candidate.Source, "target", candidate.Target)
			continue
		}
		if candidate.Description == "" {
			continue
		}

		vector := candidate.Vector
		if len(vector) == 0 {
			v, err := t.embedder.EmbedText(ctx, candidate.Description)
			if err != nil {
				return merged, added, fmt.Errorf("%w: embedding relationship: %v", core.ErrEmbedding, err)
			}
			vector = v
		}

		descFP := core.IDFromContent(candidate.Description)
		rel := &core.Relationship{
			Id:              core.RelationshipID(topic, srcID, tgtID, descFP),
			Topic:           topic,
			SourceId:        srcID,
			TargetId:        tgtID,
			Description:     candidate.Description,
			DescFingerprint: descFP,
			Vector:          vector,
		}

		created, err := t.graph.AddRelationship(ctx, rel)
		if err != nil {
			return merged, added, fmt.Errorf("%w: storing relationship: %v", core.ErrPersistence, err)
		}
		if created {
			added++
		}
	}

	return merged, added, nil
}

// isFatal reports whether a merge error must abort the whole tool rather
// than fail one unit. Storage problems are fatal; AI problems are not.
func isFatal(err error) bool {
	return errors.Is(err, core.ErrPersistence)
}
