// Package ingest provides the pipeline tools that turn raw sources into
// graph data.
//
// Three tools cover the ingestion stages:
//   - DocumentETLTool reads and chunks document inputs into passages,
//     deduplicating by content fingerprint
//   - BlueprintGenerationTool extracts entity and relationship candidates
//     from passages concurrently and embeds their descriptions
//   - GraphBuildTool merges blueprints into the persistent topic graph,
//     generating any inputs the upstream tools did not produce
//
// Extraction and embedding failures fail individual units; storage failures
// abort the running tool. Graph builds of the same topic are serialized.
package ingest
