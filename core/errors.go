// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "errors"

// Failure taxonomy. Orchestration and tools wrap these sentinels so callers
// can classify failures with errors.Is.
var (
	// ErrConfiguration indicates an unrecognized domain, pipeline, or request
	// shape not covered by the selection table. Fatal; nothing executes.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidRequest indicates malformed caller input, rejected before any
	// side effect.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrToolNotFound indicates a registry lookup miss. Fatal for the run.
	ErrToolNotFound = errors.New("tool not found")

	// ErrExtraction indicates an extraction capability failure, recorded
	// per unit.
	ErrExtraction = errors.New("extraction failed")

	// ErrEmbedding indicates an embedding capability failure, recorded
	// per unit.
	ErrEmbedding = errors.New("embedding failed")

	// ErrPersistence indicates a storage failure during a graph merge.
	// Remaining merges in the run are abandoned; committed state stands.
	ErrPersistence = errors.New("persistence failure")
)

// Domain validation errors
var (
	// ErrInvalidTopic indicates a Topic failed validation.
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrEmptyTopicName indicates the topic Name field is empty.
	ErrEmptyTopicName = errors.New("topic name cannot be empty")

	// ErrInvalidDomain indicates an unrecognized Domain value.
	ErrInvalidDomain = errors.New("invalid domain")

	// ErrInvalidModality indicates an unrecognized Modality value.
	ErrInvalidModality = errors.New("invalid modality")

	// ErrInvalidEntity indicates an Entity failed validation.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrEmptyEntityName indicates the entity Name field is empty.
	ErrEmptyEntityName = errors.New("entity name cannot be empty")

	// ErrInvalidRelationship indicates a Relationship failed validation.
	ErrInvalidRelationship = errors.New("invalid relationship")

	// ErrEmptyDescription indicates the Description field is empty.
	ErrEmptyDescription = errors.New("description cannot be empty")
)
