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


package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/poiesic/topiary/core"
	"github.com/poiesic/topiary/pipeline"
	"github.com/poiesic/topiary/storage"
)

// DocumentETLTool reads request inputs, fingerprints them, skips content the
// topic has already ingested, and chunks the rest into passages.
type DocumentETLTool struct {
	sources storage.SourceRepository
	chunker *Chunker
	logger  *slog.Logger
}

var _ pipeline.Tool = (*DocumentETLTool)(nil)

// ETLOption configures a DocumentETLTool.
type ETLOption func(*DocumentETLTool)

// WithChunker overrides the default chunker.
func WithChunker(chunker *Chunker) ETLOption {
	return func(t *DocumentETLTool) {
		if chunker != nil {
			t.chunker = chunker
		}
	}
}

// NewDocumentETLTool creates the document intake tool.
func NewDocumentETLTool(sources storage.SourceRepository, opts ...ETLOption) (*DocumentETLTool, error) {
	if sources == nil {
		return nil, ErrSourceRepositoryRequired
	}

	t := &DocumentETLTool{
		sources: sources,
		chunker: NewChunker(0, 0),
		logger:  slog.Default().With("tool", pipeline.ToolDocumentETL),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Name returns the tool's registry name.
func (t *DocumentETLTool) Name() string {
	return pipeline.ToolDocumentETL
}

// Run processes every input independently. An unreadable or empty input is
// recorded as a failed outcome; a duplicate fingerprint is recorded as
// skipped. The tool itself fails only when no input survives intake.
func (t *DocumentETLTool) Run(ctx context.Context, pc *pipeline.Context) error {
	failures := 0

	for _, input := range pc.Inputs {
		if err := ctx.Err(); err != nil {
			return err
		}

		text, origin, err := readInput(input)
		if err != nil {
			failures++
			pc.RecordOutcome(0, origin, t.Name(), core.UnitFailed, err)
			t.logger.Warn("input rejected", "origin", origin, "err", err)
			continue
		}

		fingerprint := core.IDFromContent(text)
		unit := &core.SourceUnit{
			Fingerprint: fingerprint,
			Topic:       pc.Topic.Name,
			Origin:      origin,
			Modality:    pc.Modality,
		}

		created, err := t.sources.AddSourceUnit(ctx, unit)
		if err != nil {
			return fmt.Errorf("%w: recording source unit %s: %v", core.ErrPersistence, origin, err)
		}
		if !created {
			pc.RecordOutcome(fingerprint, origin, t.Name(), core.UnitSkipped, nil)
			t.logger.Info("duplicate input skipped", "origin", origin, "topic", pc.Topic.Name)
			continue
		}

		chunks, err := t.chunker.Split(text)
		if err != nil {
			failures++
			pc.RecordOutcome(fingerprint, origin, t.Name(), core.UnitFailed, err)
			t.logger.Warn("chunking failed", "origin", origin, "err", err)
			continue
		}

		pc.Units = append(pc.Units, unit)
		for seq, chunk := range chunks {
			pc.Passages = append(pc.Passages, &core.Passage{
				UnitFingerprint: fingerprint,
				Seq:             seq,
				Text:            chunk,
				Modality:        pc.Modality,
			})
		}
		pc.RecordOutcome(fingerprint, origin, t.Name(), core.UnitSucceeded, nil)
	}

	if len(pc.Inputs) > 0 && failures == len(pc.Inputs) {
		return fmt.Errorf("%w: all %d inputs failed intake", ErrNoUsableInputs, failures)
	}

	t.logger.Info("intake finished",
		"topic", pc.Topic.Name,
		"inputs", len(pc.Inputs),
		"accepted", len(pc.Units),
		"passages", len(pc.Passages),
		"failed", failures)
	return nil
}

// readInput returns the input's text and display origin. Inline text wins;
// otherwise the origin is read as a file path.
func readInput(input pipeline.SourceInput) (text, origin string, err error) {
	origin = input.Origin
	if input.Text != "" {
		if origin == "" {
			origin = "inline"
		}
		return input.Text, origin, nil
	}

	if input.Origin == "" {
		return "", "inline", fmt.Errorf("%w: input has no text and no path", core.ErrInvalidRequest)
	}

	data, err := os.ReadFile(input.Origin)
	if err != nil {
		return "", origin, err
	}
	if len(data) == 0 {
		return "", origin, fmt.Errorf("%w: file %s is empty", core.ErrInvalidRequest, input.Origin)
	}
	return string(data), origin, nil
}
