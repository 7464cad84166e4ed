package badger

import (
	"context"
	"math"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/topiary/core"
	"github.com/poiesic/topiary/storage"
)

// GraphRepository implements storage.GraphRepository for BadgerDB.
type GraphRepository struct {
	backend *Backend
}

var _ storage.GraphRepository = (*GraphRepository)(nil)

// NewGraphRepository creates a new GraphRepository.
func NewGraphRepository(backend *Backend) (*GraphRepository, error) {
	return &GraphRepository{
		backend: backend,
	}, nil
}

// Close releases resources. GraphRepository has no resources to release.
func (r *GraphRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *GraphRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// GetEntity retrieves an entity by ID.
func (r *GraphRepository) GetEntity(ctx context.Context, id core.ID) (*core.Entity, error) {
	var result *core.Entity
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readEntity(tx, makeEntityKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetEntityByCanonical retrieves an entity by its topic and canonical name.
func (r *GraphRepository) GetEntityByCanonical(ctx context.Context, topic, canonical string) (*core.Entity, error) {
	var result *core.Entity
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEntityCanonicalKey(topic, canonical))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		var entityID core.ID
		err = item.Value(func(val []byte) error {
			entityID, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return err
		}

		result, err = readEntity(tx, makeEntityKey(entityID))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetOrCreateEntity inserts the entity if its ID is absent and returns the
// stored entity. The insert is atomic: when two callers race on the same
// canonical name, exactly one creates and the other observes the stored row.
func (r *GraphRepository) GetOrCreateEntity(ctx context.Context, entity *core.Entity) (*core.Entity, bool, error) {
	var stored *core.Entity
	created := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeEntityKey(entity.Id)
		existing, err := readEntity(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			stored = existing
			return nil
		}

		now := time.Now().UTC()
		entity.InsertedAt = now
		entity.UpdatedAt = now
		if err := tx.Set(key, storage.MarshalEntity(entity)); err != nil {
			return err
		}
		canonicalKey := makeEntityCanonicalKey(entity.Topic, entity.Canonical)
		if err := tx.Set(canonicalKey, storage.MarshalID(entity.Id)); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		stored = entity
		created = true
		return nil
	}, true)

	// Lost a race with a concurrent creator: read their row.
	if err == badger.ErrConflict {
		existing, getErr := r.GetEntity(ctx, entity.Id)
		if getErr != nil {
			return nil, false, getErr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

// UpdateEntity replaces a stored entity and refreshes UpdatedAt.
func (r *GraphRepository) UpdateEntity(ctx context.Context, entity *core.Entity) (*core.Entity, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeEntityKey(entity.Id)
		old, err := readEntity(tx, key)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}

		entity.UpdatedAt = time.Now().UTC()
		if err := tx.Set(key, storage.MarshalEntity(entity)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// GetTopicEntities returns all entities of a topic, ordered by canonical name.
func (r *GraphRepository) GetTopicEntities(ctx context.Context, topic string) ([]*core.Entity, error) {
	var results []*core.Entity
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := makePartialEntityCanonicalKey(topic)
		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			var entityID core.ID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entityID, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				return err
			}

			entity, err := readEntity(tx, makeEntityKey(entityID))
			if err != nil {
				return err
			}
			if entity != nil {
				results = append(results, entity)
			}
		}
		return nil
	}, false)
	return results, err
}

// GetStaleEntities returns up to limit entities with EmbedStale set.
func (r *GraphRepository) GetStaleEntities(ctx context.Context, limit int) ([]*core.Entity, error) {
	var results []*core.Entity
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := []byte(entityRecordPrefix + ":")
		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			if limit > 0 && len(results) >= limit {
				break
			}

			var entity *core.Entity
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entity, err = storage.UnmarshalEntity(val)
				return err
			})
			if err != nil {
				return err
			}
			if entity != nil && entity.EmbedStale {
				results = append(results, entity)
			}
		}
		return nil
	}, false)
	return results, err
}

// AddRelationship records a relationship if its ID is absent.
// Returns created=false for a known duplicate.
func (r *GraphRepository) AddRelationship(ctx context.Context, rel *core.Relationship) (bool, error) {
	created := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeRelationshipKey(rel.Id)
		_, err := tx.Get(key)
		if err == nil {
			return nil
		}
		if err != badger.ErrKeyNotFound {
			return err
		}

		rel.InsertedAt = time.Now().UTC()
		if err := tx.Set(key, storage.MarshalRelationship(rel)); err != nil {
			return err
		}
		topicKey := makeRelationshipTopicKey(rel.Topic, rel.InsertedAt, rel.Id)
		if err := tx.Set(topicKey, storage.MarshalID(rel.Id)); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		created = true
		return nil
	}, true)

	if err == badger.ErrConflict {
		return false, nil
	}
	return created, err
}

// GetTopicRelationships returns all relationships of a topic in insertion
// order.
func (r *GraphRepository) GetTopicRelationships(ctx context.Context, topic string) ([]*core.Relationship, error) {
	var results []*core.Relationship
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := makePartialRelationshipTopicKey(topic)
		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			var relID core.ID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				relID, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				return err
			}

			rel, err := readRelationship(tx, makeRelationshipKey(relID))
			if err != nil {
				return err
			}
			if rel != nil {
				results = append(results, rel)
			}
		}
		return nil
	}, false)
	return results, err
}

// FindSimilarRelationships ranks stored relationships by cosine similarity
// against vector. Scope is the named topic, or every topic when topic is
// empty. Hits carry resolved source and target entities; ordering is by
// descending similarity with ties stable in insertion order.
func (r *GraphRepository) FindSimilarRelationships(ctx context.Context, topic string, vector []float32, minSimilarity float32, limit int) ([]*core.RelationshipHit, error) {
	var results []*core.RelationshipHit

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		entities := make(map[core.ID]*core.Entity)
		resolve := func(id core.ID) (*core.Entity, error) {
			if e, ok := entities[id]; ok {
				return e, nil
			}
			e, err := readEntity(tx, makeEntityKey(id))
			if err != nil {
				return nil, err
			}
			entities[id] = e
			return e, nil
		}

		score := func(rel *core.Relationship) error {
			if rel == nil || len(rel.Vector) == 0 {
				return nil
			}
			similarity := cosineSimilarity(vector, rel.Vector)
			if similarity < minSimilarity {
				return nil
			}
			source, err := resolve(rel.SourceId)
			if err != nil {
				return err
			}
			target, err := resolve(rel.TargetId)
			if err != nil {
				return err
			}
			results = append(results, &core.RelationshipHit{
				Relationship: rel,
				Source:       source,
				Target:       target,
				Score:        similarity,
			})
			return nil
		}

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		if topic != "" {
			// Topic scope: walk the insertion-ordered index so ties keep
			// insertion order after the stable sort.
			prefix := makePartialRelationshipTopicKey(topic)
			for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
				var relID core.ID
				err := iter.Item().Value(func(val []byte) error {
					var err error
					relID, err = storage.UnmarshalID(val)
					return err
				})
				if err != nil {
					return err
				}
				rel, err := readRelationship(tx, makeRelationshipKey(relID))
				if err != nil {
					return err
				}
				if err := score(rel); err != nil {
					return err
				}
			}
			return nil
		}

		prefix := []byte(relationshipPrefix + ":")
		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			var rel *core.Relationship
			err := iter.Item().Value(func(val []byte) error {
				var err error
				rel, err = storage.UnmarshalRelationship(val)
				return err
			})
			if err != nil {
				return err
			}
			if err := score(rel); err != nil {
				return err
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	// Equal scores fall back to insertion time. The topic scan already
	// yields insertion order, but the global scan walks record keys in id
	// order, so the tie key matters there.
	slices.SortStableFunc(results, func(a, b *core.RelationshipHit) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return a.Relationship.InsertedAt.Compare(b.Relationship.InsertedAt)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// cosineSimilarity computes cosine similarity between two vectors.
// Returns 0 for zero-magnitude or mismatched-length inputs.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// readEntity reads an entity from the transaction.
func readEntity(tx *badger.Txn, key []byte) (*core.Entity, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var entity *core.Entity
	err = item.Value(func(val []byte) error {
		var err error
		entity, err = storage.UnmarshalEntity(val)
		return err
	})
	return entity, err
}

// readRelationship reads a relationship from the transaction.
func readRelationship(tx *badger.Txn, key []byte) (*core.Relationship, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var rel *core.Relationship
	err = item.Value(func(val []byte) error {
		var err error
		rel, err = storage.UnmarshalRelationship(val)
		return err
	})
	return rel, err
}
