package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// GraphExtractor extracts entities and the relationships between them
// from a passage of text.
// Implementations must be thread-safe for concurrent use.
type GraphExtractor interface {
	// ExtractGraph analyzes text and returns the entities it mentions and
	// the relationships connecting them. Relationship endpoints refer to
	// entity names from the same extraction.
	// Returns empty slices if nothing is found.
	// Returns an error if extraction fails.
	ExtractGraph(ctx context.Context, text string) ([]ExtractedEntity, []ExtractedRelationship, error)
}

// Generator produces free-form text completions. It backs the
// answer-synthesis step of the query engine.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate produces a completion for the given system and user prompts.
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// ExtractedEntity represents an entity identified in text.
type ExtractedEntity struct {
	// Name is the entity's surface form as it appears in the text.
	// Example: "Admiral Nimitz", "USS Enterprise"
	Name string

	// Type categorizes the entity (e.g., "person", "organization", "place").
	// Must match one of the predefined entity types.
	Type string

	// Description is a short sentence summarizing what the text says
	// about the entity.
	Description string
}

// ExtractedRelationship represents a directed relationship between two
// entities from the same extraction.
type ExtractedRelationship struct {
	// Source is the name of the source entity.
	Source string

	// Target is the name of the target entity.
	Target string

	// Description states the relationship in one sentence.
	Description string
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder, GraphExtractor, and Generator instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// GraphExtractor returns the graph extraction service.
	// The returned GraphExtractor is safe for concurrent use.
	GraphExtractor() GraphExtractor

	// Generator returns the text generation service.
	// The returned Generator is safe for concurrent use.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
