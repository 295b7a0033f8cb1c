package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/answerd/internal/pipeline"
)

var (
	useReranker        bool
	retrievalTopK      int
	rerankTopN         int
	disableQueryRouter bool
	showChunks         bool
)

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Ask a one-shot question against the indexed documents",
	Long: `Ask a one-shot question against the indexed documents.

Examples:
  # Ask with defaults
  answerd query "what is the refund policy"

  # Enable two-stage retrieval with reranking
  answerd query --use-reranker "what is the refund policy"

  # Tune retrieval depth
  answerd query --use-reranker --retrieval-top-k 50 --rerank-top-n 3 "..."

  # Show the retrieved chunks alongside the answer
  answerd query --show-chunks "what is the refund policy"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&useReranker, "use-reranker", false, "enable second-stage reranking")
	queryCmd.Flags().IntVar(&retrievalTopK, "retrieval-top-k", 0, "first-stage candidate count (0 = config default)")
	queryCmd.Flags().IntVar(&rerankTopN, "rerank-top-n", 0, "final result count (0 = config default)")
	queryCmd.Flags().BoolVar(&disableQueryRouter, "disable-query-router", false, "skip the query guardrail")
	queryCmd.Flags().BoolVar(&showChunks, "show-chunks", false, "print retrieved chunks with scores")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync
	}()

	// Flag overrides on top of file/env config
	if cmd.Flags().Changed("use-reranker") {
		cfg.Retrieval.UseReranker = useReranker
	}
	if retrievalTopK > 0 {
		cfg.Retrieval.RetrievalTopK = retrievalTopK
	}
	if rerankTopN > 0 {
		cfg.Retrieval.RerankTopN = rerankTopN
	}
	if disableQueryRouter {
		cfg.Router.Enabled = false
	}

	question := strings.Join(args, " ")

	p, store, err := buildPipeline(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := p.Ask(cmd.Context(), question)
	if err != nil {
		if errors.Is(err, pipeline.ErrInsufficientContext) {
			return fmt.Errorf("no relevant context found; ingest documents first")
		}
		return fmt.Errorf("query: %w", err)
	}

	if result.Blocked {
		fmt.Fprintf(os.Stderr, "Query blocked: %s\n", result.Reason)
		os.Exit(2)
	}

	fmt.Println(result.Answer)

	if showChunks {
		fmt.Println()
		for i, chunk := range result.Chunks {
			fmt.Printf("[%d] score=%.4f\n%s\n\n", i+1, chunk.Score, chunk.Content)
		}
	}

	return nil
}
