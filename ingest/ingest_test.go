package ingest

import (
	"context"
	"testing"

	"github.com/poiesic/topiary/core"
	"github.com/poiesic/topiary/pipeline"
	"github.com/poiesic/topiary/storage/badger"
	"github.com/stretchr/testify/require"
)

func newTestStores(t *testing.T) *badger.Stores {
	t.Helper()
	stores, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })
	return stores
}

func newTestContext(t *testing.T, stores *badger.Stores, domain core.Domain, modality core.Modality, inputs []pipeline.SourceInput) *pipeline.Context {
	t.Helper()
	topic, err := stores.Topics.GetOrCreateTopic(context.Background(), "test-topic", domain)
	require.NoError(t, err)
	return &pipeline.Context{
		Topic:    topic,
		Domain:   domain,
		Modality: modality,
		Inputs:   inputs,
		Run:      &core.PipelineRun{},
	}
}

func outcomesByStatus(pc *pipeline.Context, tool string, status core.UnitStatus) []core.UnitOutcome {
	var matched []core.UnitOutcome
	for _, o := range pc.Outcomes {
		if o.Tool == tool && o.Status == status {
			matched = append(matched, o)
		}
	}
	return matched
}
