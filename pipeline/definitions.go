package pipeline

import (
	"fmt"

	"github.com/poiesic/topiary/core"
)

// Tool names used by the standard pipelines.
const (
	ToolDocumentETL         = "document_etl"
	ToolBlueprintGeneration = "blueprint_generation"
	ToolGraphBuild          = "graph_build"
)

// Standard pipeline names.
const (
	PipelineSingleDocExistingTopic = "single_doc_existing_topic"
	PipelineBatchDocExistingTopic  = "batch_doc_existing_topic"
	PipelineNewTopicBatch          = "new_topic_batch"
	PipelineMemoryDirectGraph      = "memory_direct_graph"
	PipelineMemorySingle           = "memory_single"
)

// Definitions maps pipeline names to their ordered tool sequences.
// The single-document pipeline skips blueprint generation: graph_build
// generates blueprints inline for passages that arrive without one.
var Definitions = map[string][]string{
	PipelineSingleDocExistingTopic: {ToolDocumentETL, ToolGraphBuild},
	PipelineBatchDocExistingTopic:  {ToolDocumentETL, ToolBlueprintGeneration, ToolGraphBuild},
	PipelineNewTopicBatch:          {ToolDocumentETL, ToolBlueprintGeneration, ToolGraphBuild},
	PipelineMemoryDirectGraph:      {ToolGraphBuild},
	PipelineMemorySingle:           {ToolGraphBuild},
}

// Select picks the standard pipeline for a request. The decision is total:
// every combination either names a pipeline or returns a taxonomy error.
//
//	knowledge_graph + document, new topic      -> new_topic_batch
//	knowledge_graph + document, 1 input        -> single_doc_existing_topic
//	knowledge_graph + document, >1 inputs      -> batch_doc_existing_topic
//	personal_memory + dialogue                 -> memory_direct_graph
//	personal_memory + text, >=1 inputs         -> memory_single
func Select(domain core.Domain, modality core.Modality, inputCount int, topicIsNew bool) (string, error) {
	switch domain {
	case core.DomainKnowledgeGraph:
		if modality != core.ModalityDocument {
			return "", fmt.Errorf("%w: knowledge graph ingestion requires document modality, got %q",
				core.ErrConfiguration, modality)
		}
		if inputCount == 0 {
			return "", fmt.Errorf("%w: knowledge graph ingestion requires at least one input",
				core.ErrInvalidRequest)
		}
		if topicIsNew {
			return PipelineNewTopicBatch, nil
		}
		if inputCount == 1 {
			return PipelineSingleDocExistingTopic, nil
		}
		return PipelineBatchDocExistingTopic, nil

	case core.DomainPersonalMemory:
		switch modality {
		case core.ModalityDialogue:
			return PipelineMemoryDirectGraph, nil
		case core.ModalityText:
			if inputCount == 0 {
				return "", fmt.Errorf("%w: personal memory text ingestion requires at least one input",
					core.ErrInvalidRequest)
			}
			return PipelineMemorySingle, nil
		default:
			return "", fmt.Errorf("%w: personal memory does not support modality %q",
				core.ErrConfiguration, modality)
		}

	default:
		return "", fmt.Errorf("%w: unknown domain %q", core.ErrConfiguration, domain)
	}
}
