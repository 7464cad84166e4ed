package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/topiary/ai"
	"github.com/poiesic/topiary/ai/openai"
	"github.com/poiesic/topiary/core"
	"github.com/poiesic/topiary/storage"
)

// Default query bounds applied when a caller passes zero values through the
// convenience paths (Answer, CLI defaults).
const (
	DefaultThreshold float32 = 0.2
	DefaultTopK              = 20
)

// Engine answers similarity queries against stored relationship embeddings.
type Engine struct {
	graph     storage.GraphRepository
	topics    storage.TopicRepository
	embedder  ai.Embedder
	generator ai.Generator
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a new query engine.
func NewEngine(
	graph storage.GraphRepository,
	topics storage.TopicRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Engine, error) {
	if graph == nil {
		return nil, ErrGraphRepositoryRequired
	}
	if topics == nil {
		return nil, ErrTopicRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	e := &Engine{
		graph:     graph,
		topics:    topics,
		embedder:  provider.Embedder(),
		generator: provider.Generator(),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// QueryOption scopes a single query.
type QueryOption func(*querySettings)

type querySettings struct {
	topic   string
	monitor QueryMonitor
}

// InTopic restricts the query to one topic's relationships. Without it the
// query scans every topic.
func InTopic(name string) QueryOption {
	return func(qs *querySettings) {
		qs.topic = name
	}
}

// WithMonitor attaches hooks observing the query stages.
func WithMonitor(monitor QueryMonitor) QueryOption {
	return func(qs *querySettings) {
		if monitor != nil {
			qs.monitor = monitor
		}
	}
}

// SearchRelationships embeds the query and ranks stored relationships by
// cosine similarity against their description embeddings. Hits at or above
// threshold are returned in descending similarity order, ties in insertion
// order, truncated to topK. Each hit carries its resolved endpoint entities.
//
// threshold must lie in [-1, 1] and topK must be positive.
func (e *Engine) SearchRelationships(ctx context.Context, query string, threshold float32, topK int, opts ...QueryOption) ([]*core.RelationshipHit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top-k must be positive, got %d", core.ErrInvalidRequest, topK)
	}
	if threshold < -1 || threshold > 1 {
		return nil, fmt.Errorf("%w: threshold %v outside [-1, 1]", core.ErrInvalidRequest, threshold)
	}

	qs := querySettings{monitor: &noopMonitor{}}
	for _, opt := range opts {
		opt(&qs)
	}
	qs.monitor.Start(query, qs.topic)

	embedding, err := e.embedder.EmbedText(ctx, query)
	if err != nil {
		e.logger.Error("query embedding failed", "err", err)
		return nil, fmt.Errorf("%w: query embedding: %v", core.ErrEmbedding, err)
	}
	qs.monitor.AfterQueryEmbedding(embedding)

	hits, err := e.graph.FindSimilarRelationships(ctx, qs.topic, embedding, threshold, topK)
	if err != nil {
		e.logger.Error("similarity search failed", "topic", qs.topic, "err", err)
		return nil, fmt.Errorf("%w: similarity search: %v", core.ErrPersistence, err)
	}

	e.logger.Debug("similarity search finished",
		"topic", qs.topic, "threshold", threshold, "top_k", topK, "hits", len(hits))
	qs.monitor.Finish(hits)
	return hits, nil
}

// TopicGraph is a topic's full graph snapshot.
type TopicGraph struct {
	Topic         *core.Topic
	Entities      []*core.Entity
	Relationships []*core.Relationship
}

// QueryTopicGraph returns everything stored for one topic. Relationships are
// in insertion order.
func (e *Engine) QueryTopicGraph(ctx context.Context, topic string) (*TopicGraph, error) {
	stored, err := e.topics.GetTopic(ctx, topic)
	if err != nil {
		return nil, err
	}

	entities, err := e.graph.GetTopicEntities(ctx, topic)
	if err != nil {
		return nil, err
	}
	relationships, err := e.graph.GetTopicRelationships(ctx, topic)
	if err != nil {
		return nil, err
	}

	return &TopicGraph{
		Topic:         stored,
		Entities:      entities,
		Relationships: relationships,
	}, nil
}

// Answer embeds the question, retrieves the best-matching relationships with
// the default bounds, and asks the generation capability to answer from that
// context alone. Returns ErrNoResults when nothing clears the threshold.
func (e *Engine) Answer(ctx context.Context, question string, opts ...QueryOption) (string, error) {
	hits, err := e.SearchRelationships(ctx, question, DefaultThreshold, DefaultTopK, opts...)
	if err != nil {
		return "", err
	}
	if len(hits) == 0 {
		return "", ErrNoResults
	}

	graphContext := BuildContext(hits, DefaultContextBytes)
	prompt := fmt.Sprintf("Context:\n%s\nQuestion: %s", graphContext, question)

	answer, err := e.generator.Generate(ctx, openai.AnswerSystemPrompt(), prompt)
	if err != nil {
		e.logger.Error("answer generation failed", "err", err)
		return "", err
	}
	return answer, nil
}
