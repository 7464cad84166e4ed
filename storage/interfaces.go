package storage

import (
	"context"

	"github.com/poiesic/topiary/core"
)

// Repository provides common operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// TopicRepository provides operations for managing topics.
type TopicRepository interface {
	Repository

	// GetTopic retrieves a topic by name.
	// Returns ErrNotFound if the topic doesn't exist.
	GetTopic(ctx context.Context, name string) (*core.Topic, error)

	// GetOrCreateTopic finds or creates a topic by name.
	// A newly created topic starts with IsNew=true.
	// Thread-safe: handles concurrent creation attempts.
	GetOrCreateTopic(ctx context.Context, name string, domain core.Domain) (*core.Topic, error)

	// MarkTopicBuilt clears the topic's IsNew flag after the first
	// successful graph build. Idempotent.
	MarkTopicBuilt(ctx context.Context, name string) error

	// ListTopics returns all topics ordered by name.
	ListTopics(ctx context.Context) ([]*core.Topic, error)
}

// SourceRepository tracks ingested source units per topic so repeated
// submissions of the same content are skipped. A unit is keyed by
// (topic, content fingerprint).
type SourceRepository interface {
	Repository

	// AddSourceUnit records a source unit if its (topic, fingerprint) key
	// is absent. Returns created=false if the unit was already known,
	// which callers treat as "skip reprocessing".
	AddSourceUnit(ctx context.Context, unit *core.SourceUnit) (created bool, err error)

	// HasSourceUnit reports whether a fingerprint is already recorded for
	// the topic.
	HasSourceUnit(ctx context.Context, topic string, fingerprint core.ID) (bool, error)

	// GetSourceUnits returns all units recorded for a topic.
	GetSourceUnits(ctx context.Context, topic string) ([]*core.SourceUnit, error)
}

// GraphRepository provides operations for the per-topic entity and
// relationship graph, including the vector similarity scan used by the
// query engine.
type GraphRepository interface {
	Repository

	// GetEntity retrieves an entity by id.
	// Returns ErrNotFound if the entity doesn't exist.
	GetEntity(ctx context.Context, id core.ID) (*core.Entity, error)

	// GetEntityByCanonical retrieves an entity by its topic and canonical
	// name. Returns ErrNotFound if no such entity exists.
	GetEntityByCanonical(ctx context.Context, topic, canonical string) (*core.Entity, error)

	// GetOrCreateEntity inserts the entity if its id is absent and returns
	// the stored entity. The insert-if-absent is atomic, so concurrent
	// builds of the same topic cannot create duplicate canonical entities.
	GetOrCreateEntity(ctx context.Context, entity *core.Entity) (stored *core.Entity, created bool, err error)

	// UpdateEntity replaces a stored entity and refreshes its UpdatedAt
	// timestamp. Returns ErrNotFound if the entity doesn't exist.
	UpdateEntity(ctx context.Context, entity *core.Entity) (*core.Entity, error)

	// GetTopicEntities returns all entities of a topic.
	GetTopicEntities(ctx context.Context, topic string) ([]*core.Entity, error)

	// GetStaleEntities returns up to limit entities whose descriptions
	// changed since their embedding was computed (EmbedStale set).
	GetStaleEntities(ctx context.Context, limit int) ([]*core.Entity, error)

	// AddRelationship records a relationship if its id is absent.
	// Returns created=false for a known duplicate, which is never
	// re-inserted.
	AddRelationship(ctx context.Context, rel *core.Relationship) (created bool, err error)

	// GetTopicRelationships returns all relationships of a topic ordered
	// by insertion time.
	GetTopicRelationships(ctx context.Context, topic string) ([]*core.Relationship, error)

	// FindSimilarRelationships ranks stored relationships by cosine
	// similarity between vector and each relationship's description
	// embedding. Scope is the named topic, or every topic when topic is
	// empty. Results have similarity >= minSimilarity, are ordered by
	// descending similarity with ties stable in insertion order, and are
	// truncated to limit. Each hit carries the resolved source and target
	// entities.
	FindSimilarRelationships(ctx context.Context, topic string, vector []float32, minSimilarity float32, limit int) ([]*core.RelationshipHit, error)
}

// RunRepository persists finalized pipeline run records.
type RunRepository interface {
	Repository

	// SavePipelineRun stores a run record keyed by its id.
	SavePipelineRun(ctx context.Context, run *core.PipelineRun) error

	// GetPipelineRun retrieves a run record by id.
	// Returns ErrNotFound if no such run was recorded.
	GetPipelineRun(ctx context.Context, id string) (*core.PipelineRun, error)
}
