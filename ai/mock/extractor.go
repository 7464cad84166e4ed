package mock

import (
	"context"
	"strings"
	"unicode"

	"github.com/poiesic/topiary/ai"
)

// MockGraphExtractor is a test double for ai.GraphExtractor.
// It allows custom behavior injection via function fields.
type MockGraphExtractor struct {
	// ExtractGraphFunc is called by ExtractGraph if set.
	// If nil, uses default capitalized-phrase extraction.
	ExtractGraphFunc func(ctx context.Context, text string) ([]ai.ExtractedEntity, []ai.ExtractedRelationship, error)

	callCount int
}

// NewMockGraphExtractor creates a mock graph extractor with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockExtractor().
func NewMockGraphExtractor() *MockGraphExtractor {
	return &MockGraphExtractor{}
}

// ExtractGraph extracts a simple deterministic graph from text.
// Default behavior: runs of capitalized words become entities, and each
// consecutive entity pair becomes a relationship.
func (m *MockGraphExtractor) ExtractGraph(ctx context.Context, text string) ([]ai.ExtractedEntity, []ai.ExtractedRelationship, error) {
	m.callCount++

	if m.ExtractGraphFunc != nil {
		return m.ExtractGraphFunc(ctx, text)
	}

	names := capitalizedPhrases(text)
	entities := make([]ai.ExtractedEntity, 0, len(names))
	for _, name := range names {
		entities = append(entities, ai.ExtractedEntity{
			Name:        name,
			Type:        "concept",
			Description: name + " appears in the text",
		})
	}

	var relationships []ai.ExtractedRelationship
	for i := 1; i < len(entities); i++ {
		relationships = append(relationships, ai.ExtractedRelationship{
			Source:      entities[i-1].Name,
			Target:      entities[i].Name,
			Description: entities[i-1].Name + " is mentioned alongside " + entities[i].Name,
		})
	}

	return entities, relationships, nil
}

// CallCount returns the number of times ExtractGraph was called.
func (m *MockGraphExtractor) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockGraphExtractor) Reset() {
	m.callCount = 0
	m.ExtractGraphFunc = nil
}

// capitalizedPhrases returns maximal runs of capitalized words, deduplicated
// in order of first appearance.
func capitalizedPhrases(text string) []string {
	words := strings.Fields(text)
	var phrases []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			phrases = append(phrases, strings.Join(current, " "))
			current = nil
		}
	}

	for _, word := range words {
		trimmed := strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if trimmed == "" {
			flush()
			continue
		}
		runes := []rune(trimmed)
		if unicode.IsUpper(runes[0]) {
			current = append(current, trimmed)
		} else {
			flush()
		}
	}
	flush()

	seen := make(map[string]bool, len(phrases))
	unique := phrases[:0]
	for _, p := range phrases {
		if !seen[p] {
			seen[p] = true
			unique = append(unique, p)
		}
	}
	return unique
}
