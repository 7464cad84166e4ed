package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/topiary/core"
	"github.com/poiesic/topiary/storage"
)

// TopicRepository implements storage.TopicRepository for BadgerDB.
type TopicRepository struct {
	backend *Backend
}

var _ storage.TopicRepository = (*TopicRepository)(nil)

// NewTopicRepository creates a new TopicRepository.
func NewTopicRepository(backend *Backend) (*TopicRepository, error) {
	return &TopicRepository{
		backend: backend,
	}, nil
}

// Close releases resources. TopicRepository has no resources to release.
func (r *TopicRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *TopicRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// GetTopic retrieves a topic by name.
func (r *TopicRepository) GetTopic(ctx context.Context, name string) (*core.Topic, error) {
	var result *core.Topic
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readTopic(tx, makeTopicKey(name))
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

// GetOrCreateTopic finds or creates a topic by name.
// A created topic starts with IsNew=true until its first graph build.
func (r *TopicRepository) GetOrCreateTopic(ctx context.Context, name string, domain core.Domain) (*core.Topic, error) {
	var result *core.Topic
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		existing, err := readTopic(tx, makeTopicKey(name))
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}

		now := time.Now().UTC()
		topic := &core.Topic{
			Name:       name,
			Domain:     domain,
			IsNew:      true,
			InsertedAt: now,
			UpdatedAt:  now,
		}
		if err := tx.Set(makeTopicKey(name), storage.MarshalTopic(topic)); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		result = topic
		return nil
	}, true)

	// A concurrent creator may win the commit. The stored topic is
	// authoritative either way.
	if err == badger.ErrConflict {
		return r.GetTopic(ctx, name)
	}
	return result, err
}

// MarkTopicBuilt clears the topic's IsNew flag. Idempotent.
func (r *TopicRepository) MarkTopicBuilt(ctx context.Context, name string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		topic, err := readTopic(tx, makeTopicKey(name))
		if err != nil {
			return err
		}
		if topic == nil {
			return storage.ErrNotFound
		}
		if !topic.IsNew {
			return nil
		}
		topic.IsNew = false
		topic.UpdatedAt = time.Now().UTC()
		if err := tx.Set(makeTopicKey(name), storage.MarshalTopic(topic)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListTopics returns all topics ordered by name.
func (r *TopicRepository) ListTopics(ctx context.Context) ([]*core.Topic, error) {
	var results []*core.Topic
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := []byte(topicRecordPrefix + ":")
		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			var topic *core.Topic
			err := iter.Item().Value(func(val []byte) error {
				var err error
				topic, err = storage.UnmarshalTopic(val)
				return err
			})
			if err != nil {
				return err
			}
			if topic != nil {
				results = append(results, topic)
			}
		}
		return nil
	}, false)
	return results, err
}

// readTopic reads a topic from the transaction.
func readTopic(tx *badger.Txn, key []byte) (*core.Topic, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var topic *core.Topic
	err = item.Value(func(val []byte) error {
		var err error
		topic, err = storage.UnmarshalTopic(val)
		return err
	})
	return topic, err
}
