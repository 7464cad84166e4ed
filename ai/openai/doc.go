// Package openai implements the ai service interfaces against
// OpenAI-compatible APIs.
//
// Any service speaking the OpenAI wire protocol works: Ollama, LocalAI,
// vLLM, or OpenAI itself. Chat completions back graph extraction and answer
// generation; the embeddings endpoint backs vector generation. Requests are
// made through langchaingo.
//
// Graph extraction prompts the model for strict JSON and tolerates the
// usual local-model sloppiness: markdown code fences are stripped and
// common quoting mistakes repaired before parsing, with up to three
// attempts per passage.
//
// The embedder optionally rate-limits requests when
// Config.EmbedRequestsPerSecond is set, which keeps batch ingestion from
// overwhelming small local inference servers.
package openai
