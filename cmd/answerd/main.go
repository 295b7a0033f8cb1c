// Answerd is a retrieval-augmented question answering daemon.
//
// It indexes documents into a vector store and answers questions against
// them through a guarded retrieval pipeline backed by HTTP inference
// services for embedding, reranking, and extractive QA.
//
// Usage:
//
//	# Start the HTTP server
//	answerd serve
//
//	# Index documents from the command line
//	answerd ingest docs/*.txt
//
//	# Ask a one-shot question
//	answerd query "what is the refund policy"
//
// Configuration is loaded from an optional YAML file and ANSWERD_*
// environment variables. See internal/config for details.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/answerd/internal/answer"
	"github.com/fyrsmithlabs/answerd/internal/chunking"
	"github.com/fyrsmithlabs/answerd/internal/config"
	"github.com/fyrsmithlabs/answerd/internal/embeddings"
	"github.com/fyrsmithlabs/answerd/internal/logging"
	"github.com/fyrsmithlabs/answerd/internal/pipeline"
	"github.com/fyrsmithlabs/answerd/internal/reranker"
	"github.com/fyrsmithlabs/answerd/internal/router"
	"github.com/fyrsmithlabs/answerd/internal/vectorstore"
)

var (
	// configPath is the optional YAML configuration file.
	configPath string
	// version information (set via ldflags during build)
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "answerd",
	Short: "Retrieval-augmented question answering daemon",
	Long: `answerd indexes documents into a vector store and answers questions
against them using two-stage retrieval with optional reranking and a
heuristic query guardrail.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(queryCmd)
}

// loadConfig loads configuration and builds the logger from it.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}

	return cfg, logger, nil
}

// buildPipeline wires the retrieval pipeline from configuration.
//
// The router gate and reranker are attached only when enabled; a disabled
// router means queries reach the backends unfiltered.
func buildPipeline(cfg *config.Config, logger *zap.Logger, metrics *pipeline.Metrics) (*pipeline.Pipeline, vectorstore.Store, error) {
	chunker, err := chunking.New(cfg.Chunking)
	if err != nil {
		return nil, nil, fmt.Errorf("creating chunker: %w", err)
	}

	var gate pipeline.Gate
	if cfg.Router.Enabled {
		gate, err = router.New(cfg.Router)
		if err != nil {
			return nil, nil, fmt.Errorf("creating query router: %w", err)
		}
	}

	embedder, err := embeddings.NewService(cfg.Embeddings)
	if err != nil {
		return nil, nil, fmt.Errorf("creating embedding service: %w", err)
	}

	var rrk reranker.Reranker
	if cfg.Retrieval.UseReranker {
		rrk, err = reranker.NewHTTPReranker(cfg.Reranker, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("creating reranker: %w", err)
		}
	}

	answerer, err := answer.NewService(cfg.Answer)
	if err != nil {
		return nil, nil, fmt.Errorf("creating answer service: %w", err)
	}

	store, err := vectorstore.NewStore(cfg.VectorStore, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating vector store: %w", err)
	}

	p, err := pipeline.New(pipeline.Options{
		Config: pipeline.Config{
			UseReranker:   cfg.Retrieval.UseReranker,
			RetrievalTopK: cfg.Retrieval.RetrievalTopK,
			RerankTopN:    cfg.Retrieval.RerankTopN,
			IngestWorkers: cfg.Ingest.Workers,
		},
		Chunker:  chunker,
		Gate:     gate,
		Embedder: embedder,
		Store:    store,
		Reranker: rrk,
		Answerer: answerer,
		Logger:   logger,
		Metrics:  metrics,
	})
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("creating pipeline: %w", err)
	}

	return p, store, nil
}
