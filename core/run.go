package core

import "time"

// RunStatus is the aggregate status of a pipeline run.
type RunStatus int

const (
	// RunPending means the run has been accepted but no tool has started.
	RunPending RunStatus = iota + 1
	// RunRunning means at least one tool is executing.
	RunRunning
	// RunSucceeded means every tool completed and every unit succeeded or
	// was skipped as a known duplicate.
	RunSucceeded
	// RunFailed means a tool failed and the remaining tools were not started.
	RunFailed
	// RunPartial means every tool completed but some units failed.
	RunPartial
)

// String returns the status name used in logs and run records.
func (s RunStatus) String() string {
	switch s {
	case RunPending:
		return "pending"
	case RunRunning:
		return "running"
	case RunSucceeded:
		return "succeeded"
	case RunFailed:
		return "failed"
	case RunPartial:
		return "partial"
	}
	return "unknown"
}

// ToolStatus is the status of one tool execution within a run.
type ToolStatus int

const (
	// ToolPending means the tool has not started.
	ToolPending ToolStatus = iota + 1
	// ToolRunning means the tool is executing.
	ToolRunning
	// ToolSucceeded means the tool completed without a fatal error.
	ToolSucceeded
	// ToolFailed means the tool returned a fatal error.
	ToolFailed
)

// String returns the status name used in logs and run records.
func (s ToolStatus) String() string {
	switch s {
	case ToolPending:
		return "pending"
	case ToolRunning:
		return "running"
	case ToolSucceeded:
		return "succeeded"
	case ToolFailed:
		return "failed"
	}
	return "unknown"
}

// UnitStatus is the outcome of one source unit at one tool.
type UnitStatus int

const (
	// UnitSucceeded means the unit was processed.
	UnitSucceeded UnitStatus = iota + 1
	// UnitFailed means the unit failed at this tool; other units continue.
	UnitFailed
	// UnitSkipped means the unit was a known duplicate and was not reprocessed.
	UnitSkipped
)

// String returns the status name used in logs and run records.
func (s UnitStatus) String() string {
	switch s {
	case UnitSucceeded:
		return "succeeded"
	case UnitFailed:
		return "failed"
	case UnitSkipped:
		return "skipped"
	}
	return "unknown"
}

// ToolExecution records one tool's execution within a pipeline run.
type ToolExecution struct {
	Tool       string
	Status     ToolStatus
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// UnitOutcome attributes the fate of one source unit to the tool that decided
// it. Every failure and skip is recorded; nothing is silently discarded.
type UnitOutcome struct {
	Unit   ID
	Origin string
	Tool   string
	Status UnitStatus
	Error  string
}

// PipelineRun is the record of one orchestration invocation: the selected
// pipeline, its ordered tool executions, and per-unit outcomes. Runs are
// persisted when finalized and can be re-queried by id.
type PipelineRun struct {
	Id         string // uuid
	Pipeline   string
	Topic      string
	Status     RunStatus
	Tools      []ToolExecution
	Outcomes   []UnitOutcome
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Counts tallies unit outcomes by status.
func (r *PipelineRun) Counts() (succeeded, failed, skipped int) {
	for _, o := range r.Outcomes {
		switch o.Status {
		case UnitSucceeded:
			succeeded++
		case UnitFailed:
			failed++
		case UnitSkipped:
			skipped++
		}
	}
	return succeeded, failed, skipped
}
