package pipeline

import (
	"context"

	"github.com/poiesic/topiary/core"
)

// SourceInput is one raw input handed to a pipeline. Text carries inline
// content; when Text is empty, Origin is treated as a file path to read.
type SourceInput struct {
	Origin string
	Text   string
}

// Context is the shared state threaded through the tools of one pipeline
// run. Each tool reads the fields earlier tools populated and appends its
// own results.
type Context struct {
	// Topic is the resolved topic record for this run.
	Topic *core.Topic

	// Domain and Modality describe the request being processed.
	Domain   core.Domain
	Modality core.Modality

	// Inputs are the raw inputs of the request.
	Inputs []SourceInput

	// Units are the source units accepted by intake (after dedup).
	Units []*core.SourceUnit

	// Passages are the chunked texts produced from accepted units.
	Passages []*core.Passage

	// Blueprints are per-passage extraction results, parallel to Passages.
	Blueprints []*core.Blueprint

	// Outcomes records the per-unit result of each tool that touched a unit.
	Outcomes []core.UnitOutcome

	// Run is the run record being built; tools may consult it but the
	// orchestrator owns it.
	Run *core.PipelineRun
}

// RecordOutcome appends a per-unit outcome to the run.
func (c *Context) RecordOutcome(unit core.ID, origin, tool string, status core.UnitStatus, err error) {
	outcome := core.UnitOutcome{
		Unit:   unit,
		Origin: origin,
		Tool:   tool,
		Status: status,
	}
	if err != nil {
		outcome.Error = err.Error()
	}
	c.Outcomes = append(c.Outcomes, outcome)
}

// Tool is one step of an ingestion pipeline. Implementations must be safe
// for concurrent use across runs.
type Tool interface {
	// Name returns the tool's registry name.
	Name() string

	// Run executes the tool against the pipeline context. A returned error
	// fails the tool and halts the pipeline; per-unit problems that should
	// not halt the run are recorded as outcomes instead.
	Run(ctx context.Context, pc *Context) error
}
