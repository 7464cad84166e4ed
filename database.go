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


// Package topiary assembles per-topic knowledge graphs from documents,
// dialogue, and text snippets, and answers questions against them by
// vector similarity over relationship embeddings.
package topiary

import (
	"context"
	"io"
	"log/slog"

	"github.com/poiesic/topiary/ai"
	"github.com/poiesic/topiary/ai/openai"
	"github.com/poiesic/topiary/core"
	"github.com/poiesic/topiary/ingest"
	"github.com/poiesic/topiary/pipeline"
	"github.com/poiesic/topiary/reembed"
	"github.com/poiesic/topiary/search"
	"github.com/poiesic/topiary/storage"
	"github.com/poiesic/topiary/storage/badger"
)

// Database wires storage, AI capabilities, the ingestion pipelines, and the
// query engine into one handle.
type Database struct {
	stores       *badger.Stores
	provider     ai.AIProvider
	registry     *pipeline.Registry
	orchestrator *pipeline.Orchestrator
	logger       *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	inMemory bool
}

// WithAIConfig sets the configuration used to build the default openai
// provider. Ignored when WithProvider is given.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithProvider injects a pre-built AI provider, bypassing the openai one.
func WithProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithInMemoryStorage keeps all data in memory. For tests and scratch use.
func WithInMemoryStorage() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// NewDatabase opens the store at filePath and wires the full system: the
// three ingestion tools registered under their pipeline names, the
// orchestrator, and the AI provider.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	var stores *badger.Stores
	var err error
	if options.inMemory {
		stores, err = badger.NewMemoryStores()
	} else {
		stores, err = badger.NewStores(filePath)
	}
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			stores.Close()
			return nil, err
		}
	}

	registry := pipeline.NewRegistry()
	if err := registerTools(registry, stores, provider); err != nil {
		provider.Close()
		stores.Close()
		return nil, err
	}

	orchestrator, err := pipeline.NewOrchestrator(registry, stores.Topics, stores.Runs)
	if err != nil {
		provider.Close()
		stores.Close()
		return nil, err
	}

	return &Database{
		stores:       stores,
		provider:     provider,
		registry:     registry,
		orchestrator: orchestrator,
		logger:       slog.Default(),
	}, nil
}

func registerTools(registry *pipeline.Registry, stores *badger.Stores, provider ai.AIProvider) error {
	etl, err := ingest.NewDocumentETLTool(stores.Sources)
	if err != nil {
		return err
	}
	blueprint, err := ingest.NewBlueprintGenerationTool(provider.GraphExtractor(), provider.Embedder())
	if err != nil {
		return err
	}
	graphBuild, err := ingest.NewGraphBuildTool(stores.Graph, stores.Sources, stores.Topics, provider)
	if err != nil {
		return err
	}

	for _, tool := range []pipeline.Tool{etl, blueprint, graphBuild} {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the AI provider and the underlying store.
func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}
	if err := db.stores.Close(); err != nil {
		db.logger.Error("error closing storage", "err", err)
		return err
	}
	return nil
}

// Ingest selects and runs the pipeline matching the request.
func (db *Database) Ingest(ctx context.Context, req *pipeline.Request) (*core.PipelineRun, error) {
	return db.orchestrator.Execute(ctx, req)
}

// GetRun retrieves a persisted pipeline run by id.
func (db *Database) GetRun(ctx context.Context, id string) (*core.PipelineRun, error) {
	return db.stores.Runs.GetPipelineRun(ctx, id)
}

// ListTools returns the registered tool names, sorted.
func (db *Database) ListTools() []string {
	return db.registry.ListTools()
}

// ListTopics returns every stored topic.
func (db *Database) ListTopics(ctx context.Context) ([]*core.Topic, error) {
	return db.stores.Topics.ListTopics(ctx)
}

// TopicRepository exposes topic storage.
func (db *Database) TopicRepository() storage.TopicRepository {
	return db.stores.Topics
}

// SourceRepository exposes source unit storage.
func (db *Database) SourceRepository() storage.SourceRepository {
	return db.stores.Sources
}

// GraphRepository exposes entity and relationship storage.
func (db *Database) GraphRepository() storage.GraphRepository {
	return db.stores.Graph
}

// RunRepository exposes pipeline run storage.
func (db *Database) RunRepository() storage.RunRepository {
	return db.stores.Runs
}

// NewQueryEngine creates a query engine over this database.
func (db *Database) NewQueryEngine(opts ...search.Option) (*search.Engine, error) {
	return search.NewEngine(db.stores.Graph, db.stores.Topics, db.provider, opts...)
}

// NewReembedder creates a re-embedding pass over this database's stale
// entities, reporting progress to the given writer.
func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(db.stores.Graph, db.provider.Embedder(), config, progress)
}
