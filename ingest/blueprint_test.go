package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/topiary/ai"
	"github.com/poiesic/topiary/ai/mock"
	"github.com/poiesic/topiary/core"
	"github.com/poiesic/topiary/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addPassage(pc *pipeline.Context, origin, text string) *core.Passage {
	fingerprint := core.IDFromContent(text)
	pc.Units = append(pc.Units, &core.SourceUnit{
		Fingerprint: fingerprint,
		Topic:       pc.Topic.Name,
		Origin:      origin,
		Modality:    pc.Modality,
	})
	passage := &core.Passage{
		UnitFingerprint: fingerprint,
		Seq:             0,
		Text:            text,
		Modality:        pc.Modality,
	}
	pc.Passages = append(pc.Passages, passage)
	return passage
}

func TestBlueprintGeneration_ProducesParallelBlueprints(t *testing.T) {
	stores := newTestStores(t)

	extractor := mock.NewMockGraphExtractor()
	extractor.ExtractGraphFunc = func(ctx context.Context, text string) ([]ai.ExtractedEntity, []ai.ExtractedRelationship, error) {
		return []ai.ExtractedEntity{
				{Name: "Enterprise", Type: "object", Description: "An aircraft carrier named in " + text},
				{Name: "Pacific Fleet", Type: "organization", Description: "The fleet the carrier belonged to"},
			}, []ai.ExtractedRelationship{
				{Source: "Enterprise", Target: "Pacific Fleet", Description: "Enterprise served in the Pacific Fleet"},
			}, nil
	}

	tool, err := NewBlueprintGenerationTool(extractor, mock.NewMockEmbedder(), WithPoolSize(2))
	require.NoError(t, err)
	defer tool.Release()

	pc := newTestContext(t, stores, core.DomainKnowledgeGraph, core.ModalityDocument, nil)
	addPassage(pc, "a.txt", "First passage about the Enterprise.")
	addPassage(pc, "b.txt", "Second passage about the Enterprise.")
	addPassage(pc, "c.txt", "Third passage about the Enterprise.")

	require.NoError(t, tool.Run(context.Background(), pc))

	require.Len(t, pc.Blueprints, 3)
	for i, bp := range pc.Blueprints {
		require.NotNil(t, bp)
		assert.Equal(t, pc.Passages[i].UnitFingerprint, bp.UnitFingerprint)
		require.Len(t, bp.Entities, 2)
		require.Len(t, bp.Relationships, 1)
		for _, e := range bp.Entities {
			assert.NotEmpty(t, e.Vector)
		}
		assert.NotEmpty(t, bp.Relationships[0].Vector)
	}
}

func TestBlueprintGeneration_FailedPassageFailsUnitOnly(t *testing.T) {
	stores := newTestStores(t)

	extractor := mock.NewMockGraphExtractor()
	extractor.ExtractGraphFunc = func(ctx context.Context, text string) ([]ai.ExtractedEntity, []ai.ExtractedRelationship, error) {
		if text == "broken passage" {
			return nil, nil, errors.New("model unavailable")
		}
		return []ai.ExtractedEntity{{Name: "Topic", Type: "concept", Description: "fine"}}, nil, nil
	}

	tool, err := NewBlueprintGenerationTool(extractor, mock.NewMockEmbedder())
	require.NoError(t, err)
	defer tool.Release()

	pc := newTestContext(t, stores, core.DomainKnowledgeGraph, core.ModalityDocument, nil)
	addPassage(pc, "good.txt", "a healthy passage")
	broken := addPassage(pc, "bad.txt", "broken passage")

	require.NoError(t, tool.Run(context.Background(), pc))

	failed := outcomesByStatus(pc, pipeline.ToolBlueprintGeneration, core.UnitFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, broken.UnitFingerprint, failed[0].Unit)
	assert.Equal(t, "bad.txt", failed[0].Origin)
	assert.NotEmpty(t, pc.Blueprints[0].Entities)
}

func TestBlueprintGeneration_AllPassagesFailed(t *testing.T) {
	stores := newTestStores(t)

	extractor := mock.NewMockGraphExtractor()
	extractor.ExtractGraphFunc = func(ctx context.Context, text string) ([]ai.ExtractedEntity, []ai.ExtractedRelationship, error) {
		return nil, nil, errors.New("model unavailable")
	}

	tool, err := NewBlueprintGenerationTool(extractor, mock.NewMockEmbedder())
	require.NoError(t, err)
	defer tool.Release()

	pc := newTestContext(t, stores, core.DomainKnowledgeGraph, core.ModalityDocument, nil)
	addPassage(pc, "a.txt", "first")
	addPassage(pc, "b.txt", "second")

	err = tool.Run(context.Background(), pc)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrExtraction)
}

func TestBlueprintGeneration_EmbeddingFailureFailsUnit(t *testing.T) {
	stores := newTestStores(t)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("embedding host down")
	}

	tool, err := NewBlueprintGenerationTool(mock.NewMockGraphExtractor(), embedder)
	require.NoError(t, err)
	defer tool.Release()

	pc := newTestContext(t, stores, core.DomainKnowledgeGraph, core.ModalityDocument, nil)
	addPassage(pc, "a.txt", "The Enterprise sailed with Admiral Halsey.")

	err = tool.Run(context.Background(), pc)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrExtraction)

	failed := outcomesByStatus(pc, pipeline.ToolBlueprintGeneration, core.UnitFailed)
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].Error, "embedding")
}

func TestBlueprintGeneration_RequiresServices(t *testing.T) {
	_, err := NewBlueprintGenerationTool(nil, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, ErrAIProviderRequired)

	_, err = NewBlueprintGenerationTool(mock.NewMockGraphExtractor(), nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)
}
