// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.GraphExtractor,
// ai.Generator, and ai.AIProvider for use in unit tests. The mocks allow tests
// to run without external AI service dependencies and enable controlled,
// deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockExtractor := mock.NewMockGraphExtractor()
//	mockExtractor.ExtractGraphFunc = func(ctx context.Context, text string) ([]ai.ExtractedEntity, []ai.ExtractedRelationship, error) {
//	    return nil, nil, errors.New("extraction down")
//	}
//
//	// Check call counts
//	count := mockExtractor.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder: Returns deterministic vectors based on text hash
//   - MockGraphExtractor: Treats capitalized phrases as entities and links
//     consecutive entities
//   - MockGenerator: Returns a canned completion referencing the prompt
//   - MockProvider: Aggregates the three mocks
package mock
