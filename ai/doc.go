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


// Package ai defines the AI service interfaces used by the ingestion
// pipelines and the query engine.
//
// Three capabilities are defined:
//
//   - Embedder: text to vector embeddings for similarity search
//   - GraphExtractor: text to entities and relationships
//   - Generator: prompt to free-form completion for answer synthesis
//
// AIProvider aggregates the three so consumers can be handed a single
// dependency.
//
// # Implementations
//
// The openai subpackage implements the interfaces against any
// OpenAI-compatible API (Ollama, LocalAI, vLLM, OpenAI itself). The mock
// subpackage provides deterministic test doubles.
//
// # Configuration
//
// Config carries hosts and model identifiers per capability, built with
// functional options:
//
//	cfg := ai.NewConfig(
//	    ai.WithHost("http://localhost:11434"),
//	    ai.WithEmbeddingModel("embeddinggemma"),
//	)
//	provider, err := openai.NewProvider(cfg)
//
// # Thread Safety
//
// All implementations must be safe for concurrent use; pipeline workers
// share a single provider.
package ai
