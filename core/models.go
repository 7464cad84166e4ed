package core

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing, which makes identical
// content produce identical IDs across runs and processes.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Domain identifies the kind of knowledge a topic holds.
type Domain string

const (
	// DomainKnowledgeGraph groups document-derived knowledge graphs.
	DomainKnowledgeGraph Domain = "knowledge_graph"
	// DomainPersonalMemory groups dialogue- and note-derived memory spaces.
	DomainPersonalMemory Domain = "personal_memory"
)

// Modality tags the form of an ingested source unit.
type Modality string

const (
	// ModalityDocument is a file-backed document.
	ModalityDocument Modality = "document"
	// ModalityDialogue is one turn of a conversation transcript.
	ModalityDialogue Modality = "dialogue"
	// ModalityText is a standalone text snippet.
	ModalityText Modality = "text"
)

// Topic is a named namespace grouping ingested material and its derived graph.
// Topics are created on first reference by an ingestion request and are never
// deleted by the core.
type Topic struct {
	Name       string
	Domain     Domain
	IsNew      bool // true until the first successful graph build
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// SourceUnit is one ingested item: a document, a dialogue turn, or a text
// snippet. A unit is keyed by (Topic, Fingerprint); the same content uploaded
// to a topic twice is recorded and processed once.
type SourceUnit struct {
	Fingerprint ID
	Topic       string
	Origin      string // file path or link the content came from
	Modality    Modality
	InsertedAt  time.Time
}

// Passage is a normalized chunk of a source unit, ready for extraction.
// Passages live only inside a pipeline run and are never persisted.
type Passage struct {
	UnitFingerprint ID
	Seq             int // chunk order within the unit
	Text            string
	Modality        Modality
}

// BlueprintEntity is a candidate graph node extracted from one passage.
type BlueprintEntity struct {
	Name        string
	Type        string
	Description string
	Vector      []float32
}

// BlueprintRelationship is a candidate graph edge extracted from one passage.
// Source and Target name candidate entities from the same blueprint.
type BlueprintRelationship struct {
	Source      string
	Target      string
	Description string
	Vector      []float32
}

// Blueprint is the extraction output for one passage: ordered candidate
// entities and relationships with embeddings. Blueprints are consumed by the
// graph build step and discarded; they are never queried.
type Blueprint struct {
	UnitFingerprint ID
	Entities        []BlueprintEntity
	Relationships   []BlueprintRelationship
}

// Empty reports whether the blueprint carries no candidates.
func (b *Blueprint) Empty() bool {
	return len(b.Entities) == 0 && len(b.Relationships) == 0
}

// Entity is a graph node. Within a topic, entity identity is determined by
// the canonical form of its name: two blueprints naming "the same" entity
// merge into one node.
type Entity struct {
	Id          ID
	Topic       string
	Name        string // first-seen name, trimmed
	Canonical   string // case-folded, whitespace-collapsed identity key
	Description string
	Vector      []float32
	EmbedStale  bool // description changed materially since Vector was computed
	InsertedAt  time.Time
	UpdatedAt   time.Time
}

// Relationship is a graph edge between two entities of the same topic.
// An edge is uniquely identified by (source, target, topic) plus a content
// fingerprint of its description, so semantically distinct edges between the
// same pair coexist while duplicates are never re-inserted.
type Relationship struct {
	Id              ID
	Topic           string
	SourceId        ID
	TargetId        ID
	Description     string
	DescFingerprint ID
	Vector          []float32
	InsertedAt      time.Time
}

// RelationshipHit is one similarity-search result. It carries the resolved
// source and target entities so callers can assemble textual context without
// further lookups.
type RelationshipHit struct {
	Relationship *Relationship
	Source       *Entity
	Target       *Entity
	Score        float32
}

// CanonicalName derives the identity key for an entity name: trimmed,
// case-folded, with runs of whitespace collapsed to single spaces.
func CanonicalName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// EntityID generates the deterministic ID for an entity from its topic and
// canonical name.
func EntityID(topic, canonical string) ID {
	return IDFromContent("(" + topic + "," + canonical + ")")
}

// RelationshipID generates the deterministic ID for a relationship from its
// topic, endpoints, and description fingerprint.
func RelationshipID(topic string, source, target, descFingerprint ID) ID {
	return IDFromContent("(" + topic + "," +
		strconv.FormatUint(uint64(source), 10) + "," +
		strconv.FormatUint(uint64(target), 10) + "," +
		strconv.FormatUint(uint64(descFingerprint), 10) + ")")
}
