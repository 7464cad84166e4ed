package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/topiary/core"
	"github.com/poiesic/topiary/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentETL_InlineInputs(t *testing.T) {
	stores := newTestStores(t)
	tool, err := NewDocumentETLTool(stores.Sources)
	require.NoError(t, err)

	pc := newTestContext(t, stores, core.DomainKnowledgeGraph, core.ModalityDocument, []pipeline.SourceInput{
		{Origin: "a.txt", Text: "The carrier departed Pearl Harbor in May."},
		{Origin: "b.txt", Text: "The task force refueled at sea two days later."},
	})

	require.NoError(t, tool.Run(context.Background(), pc))

	assert.Len(t, pc.Units, 2)
	assert.Len(t, pc.Passages, 2)
	assert.Len(t, outcomesByStatus(pc, pipeline.ToolDocumentETL, core.UnitSucceeded), 2)

	units, err := stores.Sources.GetSourceUnits(context.Background(), pc.Topic.Name)
	require.NoError(t, err)
	assert.Len(t, units, 2)
}

func TestDocumentETL_DeduplicatesByContent(t *testing.T) {
	stores := newTestStores(t)
	tool, err := NewDocumentETLTool(stores.Sources)
	require.NoError(t, err)

	text := "Same content, different origins."
	pc := newTestContext(t, stores, core.DomainKnowledgeGraph, core.ModalityDocument, []pipeline.SourceInput{
		{Origin: "first.txt", Text: text},
		{Origin: "second.txt", Text: text},
	})

	require.NoError(t, tool.Run(context.Background(), pc))

	assert.Len(t, pc.Units, 1)
	assert.Len(t, pc.Passages, 1)

	skipped := outcomesByStatus(pc, pipeline.ToolDocumentETL, core.UnitSkipped)
	require.Len(t, skipped, 1)
	assert.Equal(t, "second.txt", skipped[0].Origin)
	assert.Equal(t, core.IDFromContent(text), skipped[0].Unit)
}

func TestDocumentETL_FileInput(t *testing.T) {
	stores := newTestStores(t)
	tool, err := NewDocumentETLTool(stores.Sources)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("A document read from disk."), 0o644))

	pc := newTestContext(t, stores, core.DomainKnowledgeGraph, core.ModalityDocument, []pipeline.SourceInput{
		{Origin: path},
	})

	require.NoError(t, tool.Run(context.Background(), pc))

	require.Len(t, pc.Passages, 1)
	assert.Equal(t, "A document read from disk.", pc.Passages[0].Text)
	require.Len(t, pc.Units, 1)
	assert.Equal(t, path, pc.Units[0].Origin)
}

func TestDocumentETL_ChunksLongDocuments(t *testing.T) {
	stores := newTestStores(t)
	tool, err := NewDocumentETLTool(stores.Sources, WithChunker(NewChunker(80, 10)))
	require.NoError(t, err)

	var sb strings.Builder
	for i := 0; i < 30; i++ {
		sb.WriteString("Every sentence in this document adds a little more text.\n\n")
	}

	pc := newTestContext(t, stores, core.DomainKnowledgeGraph, core.ModalityDocument, []pipeline.SourceInput{
		{Origin: "long.txt", Text: sb.String()},
	})

	require.NoError(t, tool.Run(context.Background(), pc))

	require.Greater(t, len(pc.Passages), 1)
	fingerprint := pc.Units[0].Fingerprint
	for i, passage := range pc.Passages {
		assert.Equal(t, fingerprint, passage.UnitFingerprint)
		assert.Equal(t, i, passage.Seq)
		assert.NotEmpty(t, passage.Text)
	}
}

func TestDocumentETL_UnreadableInputFailsUnitOnly(t *testing.T) {
	stores := newTestStores(t)
	tool, err := NewDocumentETLTool(stores.Sources)
	require.NoError(t, err)

	pc := newTestContext(t, stores, core.DomainKnowledgeGraph, core.ModalityDocument, []pipeline.SourceInput{
		{Origin: filepath.Join(t.TempDir(), "missing.txt")},
		{Origin: "ok.txt", Text: "Still processed normally."},
	})

	require.NoError(t, tool.Run(context.Background(), pc))

	assert.Len(t, pc.Units, 1)
	assert.Len(t, outcomesByStatus(pc, pipeline.ToolDocumentETL, core.UnitFailed), 1)
	assert.Len(t, outcomesByStatus(pc, pipeline.ToolDocumentETL, core.UnitSucceeded), 1)
}

func TestDocumentETL_AllInputsFailed(t *testing.T) {
	stores := newTestStores(t)
	tool, err := NewDocumentETLTool(stores.Sources)
	require.NoError(t, err)

	pc := newTestContext(t, stores, core.DomainKnowledgeGraph, core.ModalityDocument, []pipeline.SourceInput{
		{Origin: filepath.Join(t.TempDir(), "nope.txt")},
		{},
	})

	err = tool.Run(context.Background(), pc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoUsableInputs)
}

func TestDocumentETL_RequiresSourceRepository(t *testing.T) {
	_, err := NewDocumentETLTool(nil)
	assert.ErrorIs(t, err, ErrSourceRepositoryRequired)
}
