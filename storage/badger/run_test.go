package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/topiary/core"
	"github.com/poiesic/topiary/storage"
)

func TestPipelineRunRoundTrip(t *testing.T) {
	stores, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer stores.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	run := &core.PipelineRun{
		Id:       "run-1",
		Pipeline: "single_doc_existing_topic",
		Topic:    "ww2_pacific",
		Status:   core.RunSucceeded,
		Tools: []core.ToolExecution{
			{Tool: "document_etl", Status: core.ToolSucceeded, StartedAt: now, FinishedAt: now},
			{Tool: "graph_build", Status: core.ToolSucceeded, StartedAt: now, FinishedAt: now},
		},
		StartedAt:  now,
		FinishedAt: now,
	}

	if err := stores.Runs.SavePipelineRun(ctx, run); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}

	got, err := stores.Runs.GetPipelineRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("Failed to get run: %v", err)
	}
	if got.Pipeline != run.Pipeline || got.Status != run.Status {
		t.Fatalf("Round trip mismatch: %+v", got)
	}
	if len(got.Tools) != 2 {
		t.Fatalf("Expected 2 tool executions, got %d", len(got.Tools))
	}

	_, err = stores.Runs.GetPipelineRun(ctx, "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}
