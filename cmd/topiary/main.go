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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/poiesic/topiary"
	"github.com/poiesic/topiary/ai"
	"github.com/poiesic/topiary/core"
	"github.com/poiesic/topiary/pipeline"
	"github.com/poiesic/topiary/reembed"
	"github.com/poiesic/topiary/search"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "topiary",
		Usage: "Per-topic knowledge graphs built from documents, dialogue, and text",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML configuration file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest files or inline text into a topic's graph",
				ArgsUsage: "[files...]",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:     "topic",
						Aliases:  []string{"t"},
						Usage:    "Topic to ingest into (created on first use)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "domain",
						Usage: "Knowledge domain (knowledge_graph, personal_memory)",
						Value: string(core.DomainKnowledgeGraph),
					},
					&cli.StringFlag{
						Name:  "modality",
						Usage: "Input modality (document, dialogue, text)",
						Value: string(core.ModalityDocument),
					},
					&cli.StringSliceFlag{
						Name:  "text",
						Usage: "Inline text input (repeatable)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Rank stored relationships against a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:    "topic",
						Aliases: []string{"t"},
						Usage:   "Restrict the search to one topic (default: all topics)",
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum cosine similarity in [-1, 1]",
						Value: float64(search.DefaultThreshold),
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Maximum number of hits",
						Value: search.DefaultTopK,
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Answer a question from the graph",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:    "topic",
						Aliases: []string{"t"},
						Usage:   "Restrict retrieval to one topic (default: all topics)",
					},
				},
			},
			{
				Name:   "topics",
				Usage:  "List stored topics",
				Action: topicsCommand,
				Flags:  []cli.Flag{dbFlag()},
			},
			{
				Name:   "tools",
				Usage:  "List the pipelines and the tools they run",
				Action: toolsCommand,
			},
			{
				Name:   "runs",
				Usage:  "Show a persisted pipeline run",
				Action: runsCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Run id",
						Required: true,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Refresh embeddings of entities whose descriptions changed",
				Action: reembedCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of entities to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N entities",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "db",
		Aliases: []string{"d"},
		Usage:   "Path to the database directory",
	}
}

// openDatabase resolves configuration (file, then flags) and opens the store.
func openDatabase(c *cli.Context) (*topiary.Database, error) {
	cfg, err := loadFileConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	path, err := cfg.databasePath(c.String("db"))
	if err != nil {
		return nil, err
	}

	aiConfig := ai.NewConfig(cfg.aiOptions()...)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	return topiary.NewDatabase(path, topiary.WithAIConfig(aiConfig))
}

func ingestCommand(c *cli.Context) error {
	var inputs []pipeline.SourceInput
	for _, text := range c.StringSlice("text") {
		inputs = append(inputs, pipeline.SourceInput{Text: text})
	}
	for _, path := range c.Args().Slice() {
		inputs = append(inputs, pipeline.SourceInput{Origin: path})
	}
	if len(inputs) == 0 {
		return fmt.Errorf("nothing to ingest: pass files as arguments or --text")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := db.Ingest(context.Background(), &pipeline.Request{
		Topic:    c.String("topic"),
		Domain:   core.Domain(c.String("domain")),
		Modality: core.Modality(c.String("modality")),
		Inputs:   inputs,
	})
	if err != nil && run == nil {
		return err
	}

	printRun(run)
	return err
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a query is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	engine, err := db.NewQueryEngine()
	if err != nil {
		return err
	}

	var opts []search.QueryOption
	if topic := c.String("topic"); topic != "" {
		opts = append(opts, search.InTopic(topic))
	}

	hits, err := engine.SearchRelationships(context.Background(), query,
		float32(c.Float64("threshold")), c.Int("top-k"), opts...)
	if err != nil {
		return err
	}

	if len(hits) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	for _, hit := range hits {
		fmt.Printf("[%.3f] %s -> %s: %s\n",
			hit.Score, hit.Source.Name, hit.Target.Name, hit.Relationship.Description)
	}
	return nil
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("a question is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	engine, err := db.NewQueryEngine()
	if err != nil {
		return err
	}

	var opts []search.QueryOption
	if topic := c.String("topic"); topic != "" {
		opts = append(opts, search.InTopic(topic))
	}

	answer, err := engine.Answer(context.Background(), question, opts...)
	if err != nil {
		return err
	}

	fmt.Println(answer)
	return nil
}

func topicsCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	topics, err := db.ListTopics(context.Background())
	if err != nil {
		return err
	}

	if len(topics) == 0 {
		fmt.Println("No topics.")
		return nil
	}
	for _, topic := range topics {
		state := "built"
		if topic.IsNew {
			state = "new"
		}
		fmt.Printf("%s\t%s\t%s\n", topic.Name, topic.Domain, state)
	}
	return nil
}

func toolsCommand(c *cli.Context) error {
	names := make([]string, 0, len(pipeline.Definitions))
	for name := range pipeline.Definitions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("%s: %s\n", name, strings.Join(pipeline.Definitions[name], ", "))
	}
	return nil
}

func runsCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := db.GetRun(context.Background(), c.String("id"))
	if err != nil {
		return err
	}

	printRun(run)
	return nil
}

func reembedCommand(c *cli.Context) error {
	config := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	processed, err := db.NewReembedder(config, os.Stderr).Run(context.Background())
	if err != nil {
		return fmt.Errorf("re-embedding failed after %d entities: %w", processed, err)
	}
	return nil
}

func printRun(run *core.PipelineRun) {
	succeeded, failed, skipped := run.Counts()
	fmt.Printf("run %s\n", run.Id)
	fmt.Printf("  pipeline: %s\n", run.Pipeline)
	fmt.Printf("  topic:    %s\n", run.Topic)
	fmt.Printf("  status:   %s\n", run.Status)
	if run.Error != "" {
		fmt.Printf("  error:    %s\n", run.Error)
	}
	fmt.Printf("  units:    %d succeeded, %d failed, %d skipped\n", succeeded, failed, skipped)
	for _, tool := range run.Tools {
		fmt.Printf("  tool %-22s %-10s %v\n",
			tool.Tool, tool.Status, tool.FinishedAt.Sub(tool.StartedAt).Round(time.Millisecond))
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
