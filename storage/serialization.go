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


package storage

import (
	"fmt"

	"github.com/poiesic/topiary/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	var id core.ID
	id, _, err := core.IDMUS.Unmarshal(data)
	if err != nil {
		return id, fmt.Errorf("%w: id: %v", ErrCorruptRecord, err)
	}
	return id, nil
}

// MarshalTopic serializes a Topic to bytes.
func MarshalTopic(topic *core.Topic) []byte {
	buf := make([]byte, core.TopicMUS.Size(*topic))
	core.TopicMUS.Marshal(*topic, buf)
	return buf
}

// UnmarshalTopic deserializes a Topic from bytes.
func UnmarshalTopic(data []byte) (*core.Topic, error) {
	topic, _, err := core.TopicMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: topic: %v", ErrCorruptRecord, err)
	}
	return &topic, nil
}

// MarshalSourceUnit serializes a SourceUnit to bytes.
func MarshalSourceUnit(unit *core.SourceUnit) []byte {
	buf := make([]byte, core.SourceUnitMUS.Size(*unit))
	core.SourceUnitMUS.Marshal(*unit, buf)
	return buf
}

// UnmarshalSourceUnit deserializes a SourceUnit from bytes.
func UnmarshalSourceUnit(data []byte) (*core.SourceUnit, error) {
	unit, _, err := core.SourceUnitMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: source unit: %v", ErrCorruptRecord, err)
	}
	return &unit, nil
}

// MarshalEntity serializes an Entity to bytes.
func MarshalEntity(entity *core.Entity) []byte {
	buf := make([]byte, core.EntityMUS.Size(*entity))
	core.EntityMUS.Marshal(*entity, buf)
	return buf
}

// UnmarshalEntity deserializes an Entity from bytes.
func UnmarshalEntity(data []byte) (*core.Entity, error) {
	entity, _, err := core.EntityMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: entity: %v", ErrCorruptRecord, err)
	}
	return &entity, nil
}

// MarshalRelationship serializes a Relationship to bytes.
func MarshalRelationship(rel *core.Relationship) []byte {
	buf := make([]byte, core.RelationshipMUS.Size(*rel))
	core.RelationshipMUS.Marshal(*rel, buf)
	return buf
}

// UnmarshalRelationship deserializes a Relationship from bytes.
func UnmarshalRelationship(data []byte) (*core.Relationship, error) {
	rel, _, err := core.RelationshipMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: relationship: %v", ErrCorruptRecord, err)
	}
	return &rel, nil
}

// MarshalPipelineRun serializes a PipelineRun to bytes.
func MarshalPipelineRun(run *core.PipelineRun) []byte {
	buf := make([]byte, core.PipelineRunMUS.Size(*run))
	core.PipelineRunMUS.Marshal(*run, buf)
	return buf
}

// UnmarshalPipelineRun deserializes a PipelineRun from bytes.
func UnmarshalPipelineRun(data []byte) (*core.PipelineRun, error) {
	run, _, err := core.PipelineRunMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: pipeline run: %v", ErrCorruptRecord, err)
	}
	return &run, nil
}
