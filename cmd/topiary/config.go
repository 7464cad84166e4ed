package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/poiesic/topiary/ai"
)

// fileConfig is the optional TOML configuration file. Every field can be
// overridden by a command-line flag.
type fileConfig struct {
	Storage storageConfig `toml:"storage"`
	AI      aiConfig      `toml:"ai"`
}

type storageConfig struct {
	Path string `toml:"path"`
}

type aiConfig struct {
	Host                   string  `toml:"host"`
	EmbeddingHost          string  `toml:"embedding_host"`
	ExtractorHost          string  `toml:"extractor_host"`
	GeneratorHost          string  `toml:"generator_host"`
	EmbeddingModel         string  `toml:"embedding_model"`
	ExtractorModel         string  `toml:"extractor_model"`
	GeneratorModel         string  `toml:"generator_model"`
	EmbedRequestsPerSecond float64 `toml:"embed_requests_per_second"`
}

// loadFileConfig reads the TOML file at path. An empty path yields an empty
// configuration (defaults and flags decide everything).
func loadFileConfig(path string) (*fileConfig, error) {
	cfg := &fileConfig{}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	return cfg, nil
}

// aiOptions converts the file's [ai] section into configuration options,
// skipping unset fields so defaults survive.
func (c *fileConfig) aiOptions() []ai.ConfigOption {
	var opts []ai.ConfigOption
	if c.AI.Host != "" {
		opts = append(opts, ai.WithHost(c.AI.Host))
	}
	if c.AI.EmbeddingHost != "" {
		opts = append(opts, ai.WithEmbeddingHost(c.AI.EmbeddingHost))
	}
	if c.AI.ExtractorHost != "" {
		opts = append(opts, ai.WithExtractorHost(c.AI.ExtractorHost))
	}
	if c.AI.GeneratorHost != "" {
		opts = append(opts, ai.WithGeneratorHost(c.AI.GeneratorHost))
	}
	if c.AI.EmbeddingModel != "" {
		opts = append(opts, ai.WithEmbeddingModel(c.AI.EmbeddingModel))
	}
	if c.AI.ExtractorModel != "" {
		opts = append(opts, ai.WithExtractorModel(c.AI.ExtractorModel))
	}
	if c.AI.GeneratorModel != "" {
		opts = append(opts, ai.WithGeneratorModel(c.AI.GeneratorModel))
	}
	if c.AI.EmbedRequestsPerSecond > 0 {
		opts = append(opts, ai.WithEmbedRequestsPerSecond(c.AI.EmbedRequestsPerSecond))
	}
	return opts
}

// databasePath resolves the store path: the --db flag wins over the file.
func (c *fileConfig) databasePath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	return "", fmt.Errorf("database path is required (--db flag or storage.path in the config file)")
}
