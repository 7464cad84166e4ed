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


// Package pipeline selects and executes ingestion pipelines.
//
// A pipeline is an ordered sequence of tools from the Definitions catalog.
// Tools share a Context that accumulates accepted source units, passages,
// blueprints, and per-unit outcomes as the sequence advances.
//
// # Selection
//
// Select maps (domain, modality, input count, topic freshness) to a
// standard pipeline. The mapping is total: every combination either names a
// pipeline or returns a core.ErrConfiguration / core.ErrInvalidRequest
// error, so misconfigured requests fail loudly before any work starts.
//
// # Execution
//
// The Orchestrator resolves the topic, runs each tool in order, and halts
// at the first tool failure. Individual unit failures inside a tool do not
// halt the run; they are recorded as outcomes and surface as a partial run
// status. Every run is persisted, including failed ones, so ingestion
// history survives restarts.
//
//	orch, err := pipeline.NewOrchestrator(registry, stores.Topics, stores.Runs)
//	run, err := orch.Execute(ctx, &pipeline.Request{
//	    Topic:    "ww2_pacific",
//	    Domain:   core.DomainKnowledgeGraph,
//	    Modality: core.ModalityDocument,
//	    Inputs:   []pipeline.SourceInput{{Origin: "docs/midway.txt"}},
//	})
package pipeline
