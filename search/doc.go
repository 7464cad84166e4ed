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


// Package search provides the vector-similarity query engine over the graph.
//
// The Engine type embeds a natural-language query and ranks stored
// relationship embeddings by cosine similarity, topic-scoped or global.
// On top of raw hits it can assemble a bounded textual context and synthesize
// an answer through the generation capability.
package search
