package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/topiary/ai/mock"
	"github.com/poiesic/topiary/core"
	"github.com/poiesic/topiary/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStores(t *testing.T) *badger.Stores {
	t.Helper()
	stores, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })
	return stores
}

func seedEntity(t *testing.T, stores *badger.Stores, topic, name string, stale bool) *core.Entity {
	t.Helper()
	canonical := core.CanonicalName(name)
	entity := &core.Entity{
		Id:          core.EntityID(topic, canonical),
		Topic:       topic,
		Name:        name,
		Canonical:   canonical,
		Description: name + " description",
		Vector:      []float32{9, 9, 9},
		EmbedStale:  stale,
	}
	stored, created, err := stores.Graph.GetOrCreateEntity(context.Background(), entity)
	require.NoError(t, err)
	require.True(t, created)
	return stored
}

func TestReembedder_RefreshesStaleEntities(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	seedEntity(t, stores, "books", "Ada Lovelace", true)
	seedEntity(t, stores, "books", "Charles Babbage", true)
	seedEntity(t, stores, "books", "Analytical Engine", true)
	fresh := seedEntity(t, stores, "books", "London", false)

	var out bytes.Buffer
	reembedder := NewReembedder(stores.Graph, mock.NewMockEmbedder(), nil, &out)

	processed, err := reembedder.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, processed)

	remaining, err := stores.Graph.GetStaleEntities(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	entities, err := stores.Graph.GetTopicEntities(ctx, "books")
	require.NoError(t, err)
	for _, entity := range entities {
		if entity.Id == fresh.Id {
			assert.Equal(t, []float32{9, 9, 9}, entity.Vector, "fresh entity must not be touched")
			continue
		}
		assert.False(t, entity.EmbedStale)
		assert.InDelta(t, 1.0, magnitude(entity.Vector), 1e-5, "refreshed vectors are normalized")
	}
}

func TestReembedder_NothingStale(t *testing.T) {
	stores := newTestStores(t)
	seedEntity(t, stores, "books", "London", false)

	var out bytes.Buffer
	reembedder := NewReembedder(stores.Graph, mock.NewMockEmbedder(), nil, &out)

	processed, err := reembedder.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, processed)
	assert.Contains(t, out.String(), "No stale entities")
}

func TestReembedder_EmbeddingFailure(t *testing.T) {
	stores := newTestStores(t)
	seedEntity(t, stores, "books", "Ada Lovelace", true)

	embedder := mock.NewMockEmbedder()
	calls := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		return nil, errors.New("embedding host down")
	}

	var out bytes.Buffer
	config := &Config{BatchSize: 10, ReportInterval: 10, MaxRetries: 2, RetryDelay: time.Millisecond}
	reembedder := NewReembedder(stores.Graph, embedder, config, &out)

	_, err := reembedder.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, calls, "embedding is retried up to MaxRetries")

	remaining, err := stores.Graph.GetStaleEntities(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, remaining, 1, "failed entities stay stale")
}

func TestStaleEntityIterator_Batches(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	names := []string{"One", "Two", "Three", "Four", "Five"}
	for _, name := range names {
		seedEntity(t, stores, "books", name, true)
	}

	iterator := NewStaleEntityIterator(stores.Graph, 2)
	var batchSizes []int
	err := iterator.ForEach(ctx, func(entities []*core.Entity) error {
		batchSizes = append(batchSizes, len(entities))
		for _, entity := range entities {
			entity.EmbedStale = false
			if _, err := stores.Graph.UpdateEntity(ctx, entity); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, batchSizes)
}

func TestStaleEntityIterator_StopsWhenBatchStaysStale(t *testing.T) {
	stores := newTestStores(t)
	seedEntity(t, stores, "books", "Stubborn", true)

	iterator := NewStaleEntityIterator(stores.Graph, 10)
	calls := 0
	err := iterator.ForEach(context.Background(), func(entities []*core.Entity) error {
		calls++
		return nil // never clears the flag
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "an unchanged batch must not loop")
}

func TestStaleEntityIterator_PropagatesError(t *testing.T) {
	stores := newTestStores(t)
	seedEntity(t, stores, "books", "Ada", true)

	iterator := NewStaleEntityIterator(stores.Graph, 10)
	boom := errors.New("boom")
	err := iterator.ForEach(context.Background(), func([]*core.Entity) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}
