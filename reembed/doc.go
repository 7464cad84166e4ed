// Package reembed refreshes entity embeddings invalidated by description
// merges during graph builds.
//
// Graph merges that replace an entity's description mark it stale instead of
// embedding inline. This package sweeps the stale set in batches with retry
// logic, normalizes the new vectors for cosine similarity, and clears the
// flag, with progress reporting for long passes.
package reembed
