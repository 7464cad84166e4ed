package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/topiary/ai"
	"github.com/poiesic/topiary/ai/mock"
	"github.com/poiesic/topiary/core"
	"github.com/poiesic/topiary/pipeline"
	"github.com/poiesic/topiary/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGraphBuildTool(t *testing.T, stores *badger.Stores, provider ai.AIProvider) *GraphBuildTool {
	t.Helper()
	tool, err := NewGraphBuildTool(stores.Graph, stores.Sources, stores.Topics, provider)
	require.NoError(t, err)
	return tool
}

func blueprintFor(passage *core.Passage, entities []core.BlueprintEntity, relationships []core.BlueprintRelationship) *core.Blueprint {
	return &core.Blueprint{
		UnitFingerprint: passage.UnitFingerprint,
		Entities:        entities,
		Relationships:   relationships,
	}
}

func TestGraphBuild_MergesBlueprintIntoGraph(t *testing.T) {
	stores := newTestStores(t)
	tool := newGraphBuildTool(t, stores, mock.NewMockProvider())

	pc := newTestContext(t, stores, core.DomainKnowledgeGraph, core.ModalityDocument, nil)
	passage := addPassage(pc, "a.txt", "Ada Lovelace wrote notes on the Analytical Engine.")
	pc.Blueprints = []*core.Blueprint{blueprintFor(passage,
		[]core.BlueprintEntity{
			{Name: "Ada Lovelace", Type: "person", Description: "An English mathematician", Vector: []float32{0.1, 0.2, 0.3}},
			{Name: "Analytical Engine", Type: "technology", Description: "A proposed mechanical computer", Vector: []float32{0.2, 0.3, 0.4}},
		},
		[]core.BlueprintRelationship{
			{Source: "Ada Lovelace", Target: "Analytical Engine", Description: "Ada Lovelace wrote notes on the Analytical Engine", Vector: []float32{0.3, 0.4, 0.5}},
		},
	)}

	require.NoError(t, tool.Run(context.Background(), pc))

	ctx := context.Background()
	entities, err := stores.Graph.GetTopicEntities(ctx, pc.Topic.Name)
	require.NoError(t, err)
	assert.Len(t, entities, 2)

	relationships, err := stores.Graph.GetTopicRelationships(ctx, pc.Topic.Name)
	require.NoError(t, err)
	require.Len(t, relationships, 1)
	assert.Equal(t, core.IDFromContent("Ada Lovelace wrote notes on the Analytical Engine"), relationships[0].DescFingerprint)

	succeeded := outcomesByStatus(pc, pipeline.ToolGraphBuild, core.UnitSucceeded)
	require.Len(t, succeeded, 1)
	assert.Equal(t, passage.UnitFingerprint, succeeded[0].Unit)
}

func TestGraphBuild_ClearsTopicIsNew(t *testing.T) {
	stores := newTestStores(t)
	tool := newGraphBuildTool(t, stores, mock.NewMockProvider())

	pc := newTestContext(t, stores, core.DomainKnowledgeGraph, core.ModalityDocument, nil)
	require.True(t, pc.Topic.IsNew)

	passage := addPassage(pc, "a.txt", "Charles Babbage designed calculating machines.")
	pc.Blueprints = []*core.Blueprint{blueprintFor(passage,
		[]core.BlueprintEntity{{Name: "Charles Babbage", Type: "person", Description: "An inventor", Vector: []float32{0.1}}},
		nil,
	)}

	require.NoError(t, tool.Run(context.Background(), pc))
	assert.False(t, pc.Topic.IsNew)

	stored, err := stores.Topics.GetTopic(context.Background(), pc.Topic.Name)
	require.NoError(t, err)
	assert.False(t, stored.IsNew)
}

func TestGraphBuild_KeepsLongestDescription(t *testing.T) {
	stores := newTestStores(t)
	tool := newGraphBuildTool(t, stores, mock.NewMockProvider())
	ctx := context.Background()

	short := "A pianist"
	long := "A pianist and composer who toured Europe in the 1890s"

	pc := newTestContext(t, stores, core.DomainKnowledgeGraph, core.ModalityDocument, nil)
	first := addPassage(pc, "a.txt", "First mention of Li Ming.")
	second := addPassage(pc, "b.txt", "Second mention of li  ming.")
	pc.Blueprints = []*core.Blueprint{
		blueprintFor(first,
			[]core.BlueprintEntity{{Name: "Li Ming", Type: "person", Description: short, Vector: []float32{0.1}}}, nil),
		blueprintFor(second,
			[]core.BlueprintEntity{{Name: "li  ming", Type: "person", Description: long, Vector: []float32{0.2}}}, nil),
	}

	require.NoError(t, tool.Run(ctx, pc))

	entities, err := stores.Graph.GetTopicEntities(ctx, pc.Topic.Name)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "li ming", entities[0].Canonical)
	assert.Equal(t, long, entities[0].Description)
	assert.True(t, entities[0].EmbedStale)
}

func TestGraphBuild_ShorterDescriptionDoesNotOverwrite(t *testing.T) {
	stores := newTestStores(t)
	tool := newGraphBuildTool(t, stores, mock.NewMockProvider())
	ctx := context.Background()

	long := "A harbor city on the southern coast with a long shipping history"

	pc := newTestContext(t, stores, core.DomainKnowledgeGraph, core.ModalityDocument, nil)
	first := addPassage(pc, "a.txt", "About the harbor.")
	second := addPassage(pc, "b.txt", "More about the harbor.")
	pc.Blueprints = []*core.Blueprint{
		blueprintFor(first,
			[]core.BlueprintEntity{{Name: "Porton", Type: "place", Description: long, Vector: []float32{0.1}}}, nil),
		blueprintFor(second,
			[]core.BlueprintEntity{{Name: "Porton", Type: "place", Description: "A city", Vector: []float32{0.2}}}, nil),
	}

	require.NoError(t, tool.Run(ctx, pc))

	entities, err := stores.Graph.GetTopicEntities(ctx, pc.Topic.Name)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, long, entities[0].Description)
	assert.False(t, entities[0].EmbedStale)
}

func TestGraphBuild_RelationshipDeduplication(t *testing.T) {
	stores := newTestStores(t)
	tool := newGraphBuildTool(t, stores, mock.NewMockProvider())
	ctx := context.Background()

	entities := []core.BlueprintEntity{
		{Name: "Alice", Type: "person", Description: "A cryptographer", Vector: []float32{0.1}},
		{Name: "Bob", Type: "person", Description: "Her correspondent", Vector: []float32{0.2}},
	}
	relationships := []core.BlueprintRelationship{
		{Source: "Alice", Target: "Bob", Description: "Alice writes to Bob", Vector: []float32{0.3}},
	}

	for _, text := range []string{"first run text", "second run text"} {
		pc := newTestContext(t, stores, core.DomainKnowledgeGraph, core.ModalityDocument, nil)
		passage := addPassage(pc, "x.txt", text)
		pc.Blueprints = []*core.Blueprint{blueprintFor(passage, entities, relationships)}
		require.NoError(t, tool.Run(ctx, pc))
	}

	stored, err := stores.Graph.GetTopicRelationships(ctx, "test-topic")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestGraphBuild_DropsUnresolvedEndpoints(t *testing.T) {
	stores := newTestStores(t)
	tool := newGraphBuildTool(t, stores, mock.NewMockProvider())
	ctx := context.Background()

	pc := newTestContext(t, stores, core.DomainKnowledgeGraph, core.ModalityDocument, nil)
	passage := addPassage(pc, "a.txt", "A passage.")
	pc.Blueprints = []*core.Blueprint{blueprintFor(passage,
		[]core.BlueprintEntity{{Name: "Known", Type: "concept", Description: "present", Vector: []float32{0.1}}},
		[]core.BlueprintRelationship{
			{Source: "Known", Target: "Phantom", Description: "points at a missing entity", Vector: []float32{0.2}},
		},
	)}

	require.NoError(t, tool.Run(ctx, pc))

	stored, err := stores.Graph.GetTopicRelationships(ctx, pc.Topic.Name)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestGraphBuild_SelfServesMemoryInputs(t *testing.T) {
	stores := newTestStores(t)
	tool := newGraphBuildTool(t, stores, mock.NewMockProvider())
	ctx := context.Background()

	pc := newTestContext(t, stores, core.DomainPersonalMemory, core.ModalityDialogue, []pipeline.SourceInput{
		{Origin: "chat-1", Text: "Ada Lovelace met Charles Babbage at a salon."},
	})

	require.NoError(t, tool.Run(ctx, pc))

	require.Len(t, pc.Passages, 1)
	require.Len(t, pc.Blueprints, 1)

	entities, err := stores.Graph.GetTopicEntities(ctx, pc.Topic.Name)
	require.NoError(t, err)
	assert.NotEmpty(t, entities)

	units, err := stores.Sources.GetSourceUnits(ctx, pc.Topic.Name)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "chat-1", units[0].Origin)
}

func TestGraphBuild_SkipsDuplicateMemoryInputs(t *testing.T) {
	stores := newTestStores(t)
	tool := newGraphBuildTool(t, stores, mock.NewMockProvider())
	ctx := context.Background()

	text := "The same remembered line."

	pc := newTestContext(t, stores, core.DomainPersonalMemory, core.ModalityText, []pipeline.SourceInput{
		{Origin: "note-1", Text: text},
	})
	require.NoError(t, tool.Run(ctx, pc))

	again := newTestContext(t, stores, core.DomainPersonalMemory, core.ModalityText, []pipeline.SourceInput{
		{Origin: "note-2", Text: text},
	})
	require.NoError(t, tool.Run(ctx, again))

	assert.Empty(t, again.Passages)
	skipped := outcomesByStatus(again, pipeline.ToolGraphBuild, core.UnitSkipped)
	require.Len(t, skipped, 1)
	assert.Equal(t, core.IDFromContent(text), skipped[0].Unit)
}

func TestGraphBuild_InlineExtractionFailureFailsUnit(t *testing.T) {
	stores := newTestStores(t)

	extractor := mock.NewMockGraphExtractor()
	extractor.ExtractGraphFunc = func(ctx context.Context, text string) ([]ai.ExtractedEntity, []ai.ExtractedRelationship, error) {
		if text == "poisoned" {
			return nil, nil, errors.New("model refused")
		}
		return []ai.ExtractedEntity{{Name: "Fine", Type: "concept", Description: "ok"}}, nil, nil
	}
	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), extractor, mock.NewMockGenerator())
	tool := newGraphBuildTool(t, stores, provider)
	ctx := context.Background()

	pc := newTestContext(t, stores, core.DomainPersonalMemory, core.ModalityText, []pipeline.SourceInput{
		{Origin: "good", Text: "a fine memory"},
		{Origin: "bad", Text: "poisoned"},
	})

	require.NoError(t, tool.Run(ctx, pc))

	failed := outcomesByStatus(pc, pipeline.ToolGraphBuild, core.UnitFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, core.IDFromContent("poisoned"), failed[0].Unit)
	assert.Len(t, outcomesByStatus(pc, pipeline.ToolGraphBuild, core.UnitSucceeded), 1)
}

func TestGraphBuild_AllUnitsFailed(t *testing.T) {
	stores := newTestStores(t)

	extractor := mock.NewMockGraphExtractor()
	extractor.ExtractGraphFunc = func(ctx context.Context, text string) ([]ai.ExtractedEntity, []ai.ExtractedRelationship, error) {
		return nil, nil, errors.New("model down")
	}
	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), extractor, mock.NewMockGenerator())
	tool := newGraphBuildTool(t, stores, provider)

	pc := newTestContext(t, stores, core.DomainPersonalMemory, core.ModalityText, []pipeline.SourceInput{
		{Origin: "only", Text: "doomed input"},
	})

	err := tool.Run(context.Background(), pc)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrExtraction)
}

func TestGraphBuild_SkipsUnitsFailedUpstream(t *testing.T) {
	stores := newTestStores(t)
	tool := newGraphBuildTool(t, stores, mock.NewMockProvider())
	ctx := context.Background()

	pc := newTestContext(t, stores, core.DomainKnowledgeGraph, core.ModalityDocument, nil)
	good := addPassage(pc, "good.txt", "A merged passage.")
	bad := addPassage(pc, "bad.txt", "A passage a previous tool rejected.")
	pc.Blueprints = []*core.Blueprint{
		blueprintFor(good,
			[]core.BlueprintEntity{{Name: "Merged", Type: "concept", Description: "stored", Vector: []float32{0.1}}}, nil),
		blueprintFor(bad, nil, nil),
	}
	pc.RecordOutcome(bad.UnitFingerprint, "bad.txt", pipeline.ToolBlueprintGeneration, core.UnitFailed, errors.New("upstream failure"))

	require.NoError(t, tool.Run(ctx, pc))

	succeeded := outcomesByStatus(pc, pipeline.ToolGraphBuild, core.UnitSucceeded)
	require.Len(t, succeeded, 1)
	assert.Equal(t, good.UnitFingerprint, succeeded[0].Unit)
	assert.Empty(t, outcomesByStatus(pc, pipeline.ToolGraphBuild, core.UnitFailed))
}

func TestGraphBuild_RequiresDependencies(t *testing.T) {
	stores := newTestStores(t)
	provider := mock.NewMockProvider()

	_, err := NewGraphBuildTool(nil, stores.Sources, stores.Topics, provider)
	assert.ErrorIs(t, err, ErrGraphRepositoryRequired)

	_, err = NewGraphBuildTool(stores.Graph, nil, stores.Topics, provider)
	assert.ErrorIs(t, err, ErrSourceRepositoryRequired)

	_, err = NewGraphBuildTool(stores.Graph, stores.Sources, nil, provider)
	assert.ErrorIs(t, err, ErrTopicRepositoryRequired)

	_, err = NewGraphBuildTool(stores.Graph, stores.Sources, stores.Topics, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)
}
