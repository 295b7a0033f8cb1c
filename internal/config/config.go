// Package config provides configuration loading for answerd.
//
// Configuration is loaded from an optional YAML file and overridden by
// environment variables, with hardcoded defaults underneath. All validation
// happens at load time so components receive known-good, immutable config.
package config

import (
	"fmt"

	"github.com/fyrsmithlabs/answerd/internal/answer"
	"github.com/fyrsmithlabs/answerd/internal/chunking"
	"github.com/fyrsmithlabs/answerd/internal/embeddings"
	"github.com/fyrsmithlabs/answerd/internal/logging"
	"github.com/fyrsmithlabs/answerd/internal/reranker"
	"github.com/fyrsmithlabs/answerd/internal/router"
	"github.com/fyrsmithlabs/answerd/internal/vectorstore"
)

// Config holds the complete answerd configuration.
type Config struct {
	Server      ServerConfig       `koanf:"server"`
	Logging     *logging.Config    `koanf:"logging"`
	Chunking    chunking.Config    `koanf:"chunking"`
	Router      router.Config      `koanf:"router"`
	Retrieval   RetrievalConfig    `koanf:"retrieval"`
	Ingest      IngestConfig       `koanf:"ingest"`
	Embeddings  embeddings.Config  `koanf:"embeddings"`
	Reranker    reranker.Config    `koanf:"reranker"`
	Answer      answer.Config      `koanf:"answer"`
	VectorStore vectorstore.Config `koanf:"vectorstore"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// RetrievalConfig controls the two-stage retrieval shape.
type RetrievalConfig struct {
	// UseReranker enables second-stage cross-encoder reranking.
	UseReranker bool `koanf:"use_reranker"`

	// RetrievalTopK is the first-stage candidate count when reranking is
	// enabled. Default: 25.
	RetrievalTopK int `koanf:"retrieval_top_k"`

	// RerankTopN is the final result count. Default: 5.
	RerankTopN int `koanf:"rerank_top_n"`
}

// IngestConfig controls the ingestion worker pool.
type IngestConfig struct {
	// Workers is the number of documents processed concurrently.
	// Default: 4.
	Workers int `koanf:"workers"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8088,
		},
		Logging: logging.NewDefaultConfig(),
		Chunking: chunking.Config{
			Size:     1024,
			Overlap:  200,
			Strategy: chunking.DefaultStrategy,
		},
		Router: router.Config{
			Enabled:   true,
			MaxLength: router.DefaultMaxLength,
		},
		Retrieval: RetrievalConfig{
			UseReranker:   false,
			RetrievalTopK: 25,
			RerankTopN:    5,
		},
		Ingest: IngestConfig{
			Workers: 4,
		},
		Embeddings: embeddings.Config{
			BaseURL: "http://localhost:8080",
		},
		Reranker: reranker.Config{
			BaseURL: "http://localhost:8081",
		},
		Answer: answer.Config{
			BaseURL: "http://localhost:8082",
		},
		VectorStore: vectorstore.Config{
			Provider: vectorstore.ProviderChromem,
		},
	}
}

// Validate validates the full configuration eagerly.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server: invalid port %d", c.Server.Port)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Chunking.Validate(); err != nil {
		return fmt.Errorf("chunking: %w", err)
	}
	if c.Retrieval.RetrievalTopK <= 0 {
		return fmt.Errorf("retrieval: retrieval_top_k must be positive, got %d", c.Retrieval.RetrievalTopK)
	}
	if c.Retrieval.RerankTopN <= 0 {
		return fmt.Errorf("retrieval: rerank_top_n must be positive, got %d", c.Retrieval.RerankTopN)
	}
	if c.Ingest.Workers <= 0 {
		return fmt.Errorf("ingest: workers must be positive, got %d", c.Ingest.Workers)
	}
	if err := c.Embeddings.Validate(); err != nil {
		return fmt.Errorf("embeddings: %w", err)
	}
	if err := c.Reranker.Validate(); err != nil {
		return fmt.Errorf("reranker: %w", err)
	}
	if err := c.Answer.Validate(); err != nil {
		return fmt.Errorf("answer: %w", err)
	}
	return nil
}
