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

import "fmt"

// ValidateDomain validates that a Domain has a recognized value.
func ValidateDomain(d Domain) error {
	if d != DomainKnowledgeGraph && d != DomainPersonalMemory {
		return fmt.Errorf("%w: %q", ErrInvalidDomain, d)
	}
	return nil
}

// ValidateModality validates that a Modality has a recognized value.
func ValidateModality(m Modality) error {
	if m != ModalityDocument && m != ModalityDialogue && m != ModalityText {
		return fmt.Errorf("%w: %q", ErrInvalidModality, m)
	}
	return nil
}

// ValidateTopic validates a Topic according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//   - Domain must be recognized
func ValidateTopic(topic *Topic) error {
	if topic == nil {
		return fmt.Errorf("%w: topic is nil", ErrInvalidTopic)
	}

	if topic.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTopic, ErrEmptyTopicName)
	}

	if err := ValidateDomain(topic.Domain); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTopic, err)
	}

	return nil
}

// ValidateEntity validates an Entity according to domain rules.
//
// Validation rules:
//   - Name and Canonical must not be empty
//   - Topic must not be empty
//
// NOT validated (populated by processing):
//   - Vector (can be empty until embedded)
//   - Description (an entity may be known only by name)
func ValidateEntity(entity *Entity) error {
	if entity == nil {
		return fmt.Errorf("%w: entity is nil", ErrInvalidEntity)
	}

	if entity.Name == "" || entity.Canonical == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, ErrEmptyEntityName)
	}

	if entity.Topic == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, ErrEmptyTopicName)
	}

	return nil
}

// ValidateRelationship validates a Relationship according to domain rules.
//
// Validation rules:
//   - Description must not be empty
//   - Topic must not be empty
//   - Source and target entity ids must be set and distinct from zero
func ValidateRelationship(rel *Relationship) error {
	if rel == nil {
		return fmt.Errorf("%w: relationship is nil", ErrInvalidRelationship)
	}

	if rel.Description == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRelationship, ErrEmptyDescription)
	}

	if rel.Topic == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRelationship, ErrEmptyTopicName)
	}

	if rel.SourceId == 0 || rel.TargetId == 0 {
		return fmt.Errorf("%w: endpoints not resolved", ErrInvalidRelationship)
	}

	return nil
}
