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


package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/topiary/core"
	"github.com/poiesic/topiary/storage"
)

// Request describes one ingestion request.
type Request struct {
	// Topic names the topic to ingest into. Created on first use.
	Topic string

	// Domain selects the knowledge domain (knowledge_graph, personal_memory).
	Domain core.Domain

	// Modality tags the form of the inputs (document, dialogue, text).
	Modality core.Modality

	// Inputs are the raw inputs to process.
	Inputs []SourceInput
}

// Orchestrator selects and executes ingestion pipelines. Tools run strictly
// in sequence; a failing tool halts the run. Every run, successful or not,
// is persisted as a PipelineRun record.
type Orchestrator struct {
	registry *Registry
	topics   storage.TopicRepository
	runs     storage.RunRepository
	logger   *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// NewOrchestrator creates an orchestrator over the given registry and
// repositories.
func NewOrchestrator(
	registry *Registry,
	topics storage.TopicRepository,
	runs storage.RunRepository,
	opts ...OrchestratorOption,
) (*Orchestrator, error) {
	if registry == nil {
		return nil, ErrRegistryRequired
	}
	if topics == nil {
		return nil, ErrTopicRepositoryRequired
	}
	if runs == nil {
		return nil, ErrRunRepositoryRequired
	}

	o := &Orchestrator{
		registry: registry,
		topics:   topics,
		runs:     runs,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// Execute validates the request, selects the standard pipeline for it, and
// runs it. The returned run record is always non-nil once selection
// succeeds, even when the run fails. Selection happens before the topic is
// created, so a rejected request leaves no trace.
func (o *Orchestrator) Execute(ctx context.Context, req *Request) (*core.PipelineRun, error) {
	existing, err := o.peekTopic(ctx, req)
	if err != nil {
		return nil, err
	}

	isNew := existing == nil || existing.IsNew
	name, err := Select(req.Domain, req.Modality, len(req.Inputs), isNew)
	if err != nil {
		return nil, err
	}

	topic, err := o.createTopic(ctx, req)
	if err != nil {
		return nil, err
	}

	return o.run(ctx, name, topic, req)
}

// ExecutePipeline runs a pipeline by name, bypassing selection. Used when
// the caller knows exactly which pipeline it wants.
func (o *Orchestrator) ExecutePipeline(ctx context.Context, name string, req *Request) (*core.PipelineRun, error) {
	if _, ok := Definitions[name]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPipeline, name)
	}

	if _, err := o.peekTopic(ctx, req); err != nil {
		return nil, err
	}
	topic, err := o.createTopic(ctx, req)
	if err != nil {
		return nil, err
	}

	return o.run(ctx, name, topic, req)
}

// peekTopic validates the request and looks up the topic without creating
// it. Returns nil for an unknown topic.
func (o *Orchestrator) peekTopic(ctx context.Context, req *Request) (*core.Topic, error) {
	probe := &core.Topic{Name: req.Topic, Domain: req.Domain}
	if err := core.ValidateTopic(probe); err != nil {
		return nil, err
	}
	if err := core.ValidateModality(req.Modality); err != nil {
		return nil, err
	}

	topic, err := o.topics.GetTopic(ctx, req.Topic)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: looking up topic %q: %v", core.ErrPersistence, req.Topic, err)
	}
	if topic.Domain != req.Domain {
		return nil, fmt.Errorf("%w: topic %q belongs to domain %q, not %q",
			core.ErrConfiguration, req.Topic, topic.Domain, req.Domain)
	}
	return topic, nil
}

func (o *Orchestrator) createTopic(ctx context.Context, req *Request) (*core.Topic, error) {
	topic, err := o.topics.GetOrCreateTopic(ctx, req.Topic, req.Domain)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving topic %q: %v", core.ErrPersistence, req.Topic, err)
	}
	return topic, nil
}

// run executes the named pipeline's tools in order, tracking each tool and
// persisting the finished run record.
func (o *Orchestrator) run(ctx context.Context, name string, topic *core.Topic, req *Request) (*core.PipelineRun, error) {
	toolNames := Definitions[name]

	run := &core.PipelineRun{
		Id:        uuid.NewString(),
		Pipeline:  name,
		Topic:     topic.Name,
		Status:    core.RunRunning,
		StartedAt: time.Now().UTC(),
	}

	pc := &Context{
		Topic:    topic,
		Domain:   req.Domain,
		Modality: req.Modality,
		Inputs:   req.Inputs,
		Run:      run,
	}

	o.logger.Info("starting pipeline run",
		"run", run.Id, "pipeline", name, "topic", topic.Name, "inputs", len(req.Inputs))

	var runErr error
	for _, toolName := range toolNames {
		if err := ctx.Err(); err != nil {
			runErr = err
			run.Error = err.Error()
			run.Status = core.RunFailed
			break
		}

		tool, err := o.registry.Get(toolName)
		if err != nil {
			runErr = err
			run.Error = err.Error()
			run.Status = core.RunFailed
			break
		}

		exec := core.ToolExecution{
			Tool:      toolName,
			Status:    core.ToolRunning,
			StartedAt: time.Now().UTC(),
		}

		err = tool.Run(ctx, pc)
		exec.FinishedAt = time.Now().UTC()
		if err != nil {
			exec.Status = core.ToolFailed
			exec.Error = err.Error()
			run.Tools = append(run.Tools, exec)

			runErr = err
			run.Error = fmt.Sprintf("tool %s failed: %v", toolName, err)
			run.Status = core.RunFailed

			o.logger.Error("pipeline tool failed",
				"run", run.Id, "tool", toolName, "err", err)
			break
		}

		exec.Status = core.ToolSucceeded
		run.Tools = append(run.Tools, exec)
		o.logger.Debug("pipeline tool finished",
			"run", run.Id, "tool", toolName,
			"duration", exec.FinishedAt.Sub(exec.StartedAt))
	}

	run.Outcomes = pc.Outcomes
	run.FinishedAt = time.Now().UTC()

	if run.Status == core.RunRunning {
		succeeded, failed, _ := run.Counts()
		if failed > 0 && succeeded > 0 {
			run.Status = core.RunPartial
		} else {
			run.Status = core.RunSucceeded
		}
	}

	if err := o.runs.SavePipelineRun(ctx, run); err != nil {
		o.logger.Error("failed to persist run record", "run", run.Id, "err", err)
		if runErr == nil {
			runErr = fmt.Errorf("%w: saving run %s: %v", core.ErrPersistence, run.Id, err)
		}
	}

	o.logger.Info("pipeline run finished",
		"run", run.Id, "status", run.Status.String(),
		"duration", run.FinishedAt.Sub(run.StartedAt))

	return run, runErr
}
