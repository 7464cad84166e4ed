package mock

import (
	"context"
	"math"
	"testing"
)

func TestMockEmbedderDefaults(t *testing.T) {
	embedder := NewMockEmbedder()
	ctx := context.Background()

	first, err := embedder.EmbedText(ctx, "Admiral Nimitz")
	if err != nil {
		t.Fatalf("EmbedText failed: %v", err)
	}
	if len(first) != DefaultDimensions {
		t.Fatalf("Expected %d dimensions, got %d", DefaultDimensions, len(first))
	}

	second, err := embedder.EmbedText(ctx, "Admiral Nimitz")
	if err != nil {
		t.Fatalf("EmbedText failed: %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Expected identical vectors for identical text, differ at %d", i)
		}
	}

	var sumSquares float64
	for _, v := range first {
		sumSquares += float64(v) * float64(v)
	}
	if magnitude := math.Sqrt(sumSquares); magnitude < 0.999 || magnitude > 1.001 {
		t.Fatalf("Expected unit vector, got magnitude %f", magnitude)
	}

	if embedder.CallCount() != 2 {
		t.Fatalf("Expected 2 calls, got %d", embedder.CallCount())
	}
}

func TestMockEmbedderDimensionsOverride(t *testing.T) {
	embedder := &MockEmbedder{Dimensions: 4}

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("EmbedTexts failed: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("Expected 2 vectors, got %d", len(vectors))
	}
	for i, v := range vectors {
		if len(v) != 4 {
			t.Fatalf("Vector %d: expected 4 dimensions, got %d", i, len(v))
		}
	}
}
