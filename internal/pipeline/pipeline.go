// Package pipeline sequences the end-to-end question-answering flow:
// router gate, query embedding, vector search, optional reranking, and
// answer synthesis. It also owns the ingestion flow that fills the store.
//
// A query moves through a fixed state sequence:
//
//	ROUTING -> {BLOCKED | EMBEDDING} -> RETRIEVING -> [RERANKING] -> ANSWERING -> DONE
//
// BLOCKED and DONE are terminal. A router rejection short-circuits the
// whole pipeline: no embedding, search, or rerank call happens.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/answerd/internal/answer"
	"github.com/fyrsmithlabs/answerd/internal/embeddings"
	"github.com/fyrsmithlabs/answerd/internal/reranker"
	"github.com/fyrsmithlabs/answerd/internal/router"
	"github.com/fyrsmithlabs/answerd/internal/vectorstore"
	"go.uber.org/zap"
)

var (
	// ErrInvalidConfig indicates invalid pipeline configuration.
	ErrInvalidConfig = errors.New("invalid pipeline configuration")

	// ErrInsufficientContext reports that retrieval produced no chunks, so
	// the answer backend was never called.
	ErrInsufficientContext = errors.New("insufficient context: no relevant chunks retrieved")
)

// contextSeparator joins selected chunks into the answer context.
const contextSeparator = "\n\n"

// Config holds the pipeline's retrieval shape and worker pool size.
type Config struct {
	// UseReranker enables second-stage reranking.
	UseReranker bool

	// RetrievalTopK is the first-stage candidate count when reranking is
	// enabled. With reranking disabled only RerankTopN records are fetched,
	// since fetching more would be wasted work in single-stage mode.
	RetrievalTopK int

	// RerankTopN is the final result count.
	RerankTopN int

	// IngestWorkers bounds concurrent document ingestion. Default: 4.
	IngestWorkers int
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.RetrievalTopK == 0 {
		c.RetrievalTopK = 25
	}
	if c.RerankTopN == 0 {
		c.RerankTopN = 5
	}
	if c.IngestWorkers == 0 {
		c.IngestWorkers = 4
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.RetrievalTopK <= 0 {
		return fmt.Errorf("%w: retrieval top k must be positive, got %d", ErrInvalidConfig, c.RetrievalTopK)
	}
	if c.RerankTopN <= 0 {
		return fmt.Errorf("%w: rerank top n must be positive, got %d", ErrInvalidConfig, c.RerankTopN)
	}
	if c.IngestWorkers <= 0 {
		return fmt.Errorf("%w: ingest workers must be positive, got %d", ErrInvalidConfig, c.IngestWorkers)
	}
	return nil
}

// Chunker splits document text; satisfied by internal/chunking.
type Chunker interface {
	Chunk(text string) ([]string, error)
}

// Gate screens queries; satisfied by internal/router. Nil disables routing.
type Gate interface {
	Inspect(query string) router.Decision
}

// Pipeline composes the retrieval components. Immutable after construction
// and safe for concurrent use provided its backends are.
type Pipeline struct {
	config   Config
	chunker  Chunker
	gate     Gate
	embedder embeddings.Embedder
	store    vectorstore.Store
	reranker reranker.Reranker
	answerer answer.Answerer
	logger   *zap.Logger
	metrics  *Metrics
}

// Options carries the pipeline's collaborators. Gate and Reranker are
// optional; everything else is required.
type Options struct {
	Config   Config
	Chunker  Chunker
	Gate     Gate
	Embedder embeddings.Embedder
	Store    vectorstore.Store
	Reranker reranker.Reranker
	Answerer answer.Answerer
	Logger   *zap.Logger
	Metrics  *Metrics
}

// New builds a Pipeline, validating configuration and required ports.
func New(opts Options) (*Pipeline, error) {
	opts.Config.ApplyDefaults()
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Chunker == nil {
		return nil, fmt.Errorf("%w: chunker is required", ErrInvalidConfig)
	}
	if opts.Embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}
	if opts.Answerer == nil {
		return nil, fmt.Errorf("%w: answerer is required", ErrInvalidConfig)
	}
	if opts.Config.UseReranker && opts.Reranker == nil {
		return nil, fmt.Errorf("%w: reranking enabled but no reranker provided", ErrInvalidConfig)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Pipeline{
		config:   opts.Config,
		chunker:  opts.Chunker,
		gate:     opts.Gate,
		embedder: opts.Embedder,
		store:    opts.Store,
		reranker: opts.Reranker,
		answerer: opts.Answerer,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}, nil
}

// Ask answers a question against the indexed collection.
//
// A blocked query returns a Result with Blocked set and a nil error: the
// rejection is a control decision, not a failure. Backend failures during
// embedding, search, or answering propagate as errors. When retrieval
// yields no chunks, Ask returns ErrInsufficientContext without calling the
// answer backend.
func (p *Pipeline) Ask(ctx context.Context, question string) (*Result, error) {
	// ROUTING
	if p.gate != nil {
		decision := p.gate.Inspect(question)
		if !decision.Allowed {
			p.logger.Info("query blocked by router",
				zap.String("reason", decision.Reason),
			)
			p.metrics.recordQuery(outcomeBlocked)
			return &Result{Blocked: true, Reason: decision.Reason}, nil
		}
	}

	// EMBEDDING
	start := time.Now()
	queryVector, err := p.embedder.EmbedQuery(ctx, question)
	if err != nil {
		p.metrics.recordQuery(outcomeBackendError)
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	p.metrics.observeStage("embed", time.Since(start).Seconds())

	// RETRIEVING. In single-stage mode only the final result count is
	// fetched; the larger first-stage candidate set exists solely to feed
	// the reranker.
	retrievalK := p.config.RerankTopN
	if p.config.UseReranker {
		retrievalK = p.config.RetrievalTopK
	}

	start = time.Now()
	searchResults, err := p.store.Query(ctx, queryVector, retrievalK)
	if err != nil {
		p.metrics.recordQuery(outcomeBackendError)
		return nil, fmt.Errorf("vector search: %w", err)
	}
	p.metrics.observeStage("search", time.Since(start).Seconds())

	p.logger.Debug("retrieved candidates",
		zap.Int("requested", retrievalK),
		zap.Int("returned", len(searchResults)),
		zap.Bool("rerank", p.config.UseReranker),
	)

	// RERANKING. Stage-1 similarity scores are discarded entirely: the two
	// scales are not comparable, and only the reranked order and scores
	// carry forward.
	var chunks []ScoredChunk
	if p.config.UseReranker && len(searchResults) > 0 {
		texts := make([]string, len(searchResults))
		for i, result := range searchResults {
			texts[i] = result.Content
		}

		start = time.Now()
		reranked := p.reranker.Rerank(ctx, question, texts, p.config.RerankTopN)
		p.metrics.observeStage("rerank", time.Since(start).Seconds())

		chunks = make([]ScoredChunk, len(reranked))
		for i, doc := range reranked {
			chunks[i] = ScoredChunk{Content: doc.Content, Score: doc.Score}
		}
	} else {
		chunks = make([]ScoredChunk, len(searchResults))
		for i, result := range searchResults {
			chunks[i] = ScoredChunk{Content: result.Content, Score: float64(result.Score)}
		}
	}

	// ANSWERING. Whitespace-only chunks are dropped before anything else
	// sees them, so the reported chunk set and the context sent to the
	// answer backend always agree.
	chunks = dropEmptyChunks(chunks)
	contextText := assembleContext(chunks)
	if contextText == "" {
		p.metrics.recordQuery(outcomeNoContext)
		return nil, ErrInsufficientContext
	}

	start = time.Now()
	answerText, err := p.answerer.Answer(ctx, question, contextText)
	if err != nil {
		p.metrics.recordQuery(outcomeBackendError)
		return nil, fmt.Errorf("synthesizing answer: %w", err)
	}
	p.metrics.observeStage("answer", time.Since(start).Seconds())

	// DONE
	p.metrics.recordQuery(outcomeAnswered)
	return &Result{
		Chunks:  chunks,
		Context: contextText,
		Answer:  answerText,
	}, nil
}

// dropEmptyChunks removes chunks that are empty after trimming, preserving
// order.
func dropEmptyChunks(chunks []ScoredChunk) []ScoredChunk {
	kept := make([]ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk.Content) == "" {
			continue
		}
		kept = append(kept, chunk)
	}
	return kept
}

// assembleContext joins chunk texts in final ranking order.
func assembleContext(chunks []ScoredChunk) string {
	parts := make([]string, len(chunks))
	for i, chunk := range chunks {
		parts[i] = chunk.Content
	}
	return strings.Join(parts, contextSeparator)
}
