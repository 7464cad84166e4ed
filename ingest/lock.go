package ingest

import "sync"

// topicLocks serializes graph builds per topic. Builds for different topics
// proceed concurrently; two builds of the same topic never interleave their
// entity merges.
type topicLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newTopicLocks() *topicLocks {
	return &topicLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

// acquire locks the named topic and returns the unlock function.
func (t *topicLocks) acquire(topic string) func() {
	t.mu.Lock()
	lock, ok := t.locks[topic]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[topic] = lock
	}
	t.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
