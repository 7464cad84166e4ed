package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/topiary/core"
)

// Key prefixes for different data types
const (
	topicRecordPrefix     = "toprec"
	sourceUnitPrefix      = "srcrec"
	entityRecordPrefix    = "entrec"
	entityCanonicalPrefix = "entcan"
	relationshipPrefix    = "relrec"
	relationshipTopPrefix = "reltop"
	pipelineRunPrefix     = "runrec"
)

// makeTopicKey generates a key for a topic by name.
func makeTopicKey(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s", topicRecordPrefix, name))
}

// makeSourceUnitKey generates a composite key for a source unit.
// Format: prefix:topic:fingerprint
func makeSourceUnitKey(topic string, fingerprint core.ID) []byte {
	prefix := sourceUnitPrefix + ":" + topic + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(fingerprint))
	return buf
}

// makePartialSourceUnitKey generates a partial key for scanning a
// topic's source units.
func makePartialSourceUnitKey(topic string) []byte {
	return []byte(sourceUnitPrefix + ":" + topic + ":")
}

// makeEntityKey generates a key for an entity by ID.
func makeEntityKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", entityRecordPrefix, id))
}

// makeEntityCanonicalKey generates a composite key for entity lookup
// by (topic, canonical name).
// Format: prefix:topic:canonical
func makeEntityCanonicalKey(topic, canonical string) []byte {
	return []byte(entityCanonicalPrefix + ":" + topic + ":" + canonical)
}

// makePartialEntityCanonicalKey generates a partial key for scanning a
// topic's entities through the canonical index.
func makePartialEntityCanonicalKey(topic string) []byte {
	return []byte(entityCanonicalPrefix + ":" + topic + ":")
}

// makeRelationshipKey generates a key for a relationship by ID.
func makeRelationshipKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", relationshipPrefix, id))
}

// makeRelationshipTopicKey generates a composite key for the per-topic
// relationship index, ordered by insertion time.
// Format: prefix:topic:timestamp:id
func makeRelationshipTopicKey(topic string, insertedAt time.Time, id core.ID) []byte {
	prefix := relationshipTopPrefix + ":" + topic + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(insertedAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialRelationshipTopicKey generates a partial key for scanning a
// topic's relationships in insertion order.
func makePartialRelationshipTopicKey(topic string) []byte {
	return []byte(relationshipTopPrefix + ":" + topic + ":")
}

// makePipelineRunKey generates a key for a pipeline run record.
func makePipelineRunKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", pipelineRunPrefix, id))
}
