package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"
)

// ErrInvalidConfig indicates invalid reranker configuration.
var ErrInvalidConfig = errors.New("invalid reranker configuration")

// NeutralScore is assigned to every document when the scoring backend fails
// and the reranker degrades to the original order.
const NeutralScore = 0.5

// DefaultTimeout bounds a single scoring call.
const DefaultTimeout = 30 * time.Second

// Config holds configuration for the HTTP reranker.
type Config struct {
	// BaseURL is the scoring endpoint. Required.
	BaseURL string `koanf:"base_url"`

	// Model is the cross-encoder model identifier.
	Model string `koanf:"model"`

	// APIKey is sent as a bearer token when set.
	APIKey string `koanf:"api_key"`

	// Timeout bounds each scoring call. Default: DefaultTimeout.
	Timeout time.Duration `koanf:"timeout"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Model == "" {
		c.Model = "BAAI/bge-reranker-base"
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	return nil
}

// HTTPReranker scores query-document pairs against a cross-encoder inference
// endpoint. Safe for concurrent use.
type HTTPReranker struct {
	config Config
	client *http.Client
	logger *zap.Logger
}

// NewHTTPReranker creates a reranker for the given scoring endpoint.
func NewHTTPReranker(config Config, logger *zap.Logger) (*HTTPReranker, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPReranker{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}, nil
}

// scoreRequest is the request body for the scoring endpoint. Inputs are
// (query, document) pairs scored jointly.
type scoreRequest struct {
	Inputs [][2]string `json:"inputs"`
}

// Rerank scores docs against query in one batched backend call.
func (r *HTTPReranker) Rerank(ctx context.Context, query string, docs []string, topN int) []ScoredDocument {
	if len(docs) == 0 {
		return []ScoredDocument{}
	}

	scores, err := r.scoreBatch(ctx, query, docs)
	if err != nil {
		r.logger.Warn("reranking failed, falling back to original order",
			zap.Error(err),
			zap.Int("documents", len(docs)),
		)
		// The full candidate set comes back untruncated so the caller still
		// has everything first-stage retrieval produced.
		return fallbackScores(docs)
	}

	scored := make([]ScoredDocument, len(docs))
	for i, doc := range docs {
		scored[i] = ScoredDocument{
			Content:      doc,
			Score:        scores[i],
			OriginalRank: i,
		}
	}

	// Stable: equal scores keep their original relative order.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	return truncate(scored, topN)
}

// RerankScored discards prior-stage scores and delegates to Rerank.
func (r *HTTPReranker) RerankScored(ctx context.Context, query string, docs []ScoredDocument, topN int) []ScoredDocument {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}
	return r.Rerank(ctx, query, texts, topN)
}

// scoreBatch submits all query-document pairs in a single call and returns
// one score per input document, positionally aligned.
func (r *HTTPReranker) scoreBatch(ctx context.Context, query string, docs []string) ([]float64, error) {
	pairs := make([][2]string, len(docs))
	for i, doc := range docs {
		pairs[i] = [2]string{query, doc}
	}

	body, err := json.Marshal(scoreRequest{Inputs: pairs})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.config.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.config.APIKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling scoring backend: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scoring backend returned status %d: %s", resp.StatusCode, respBody)
	}

	scores, err := normalizeScores(respBody)
	if err != nil {
		return nil, err
	}
	if len(scores) != len(docs) {
		return nil, fmt.Errorf("scoring backend returned %d scores for %d documents", len(scores), len(docs))
	}
	return scores, nil
}

// labeledScore is the object form some scoring backends return per document.
type labeledScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// normalizeScores converts the backend's response into one flat score slice,
// positionally aligned with the input documents. Backends disagree on shape:
//
//	[0.93, 0.12, ...]              flat floats
//	[[0.93], [0.12], ...]          one-element arrays
//	[{"score": 0.93}, ...]         labeled objects
//
// All protocol variability is absorbed here so ranking logic sees exactly
// one canonical shape.
func normalizeScores(body []byte) ([]float64, error) {
	var flat []float64
	if err := json.Unmarshal(body, &flat); err == nil {
		return flat, nil
	}

	var nested [][]float64
	if err := json.Unmarshal(body, &nested); err == nil {
		scores := make([]float64, len(nested))
		for i, inner := range nested {
			if len(inner) == 0 {
				return nil, fmt.Errorf("empty score array at position %d", i)
			}
			scores[i] = inner[0]
		}
		return scores, nil
	}

	var labeled []labeledScore
	if err := json.Unmarshal(body, &labeled); err == nil {
		scores := make([]float64, len(labeled))
		for i, ls := range labeled {
			scores[i] = ls.Score
		}
		return scores, nil
	}

	return nil, fmt.Errorf("unrecognized score response shape: %s", body)
}

// fallbackScores pairs each document with NeutralScore in original order.
func fallbackScores(docs []string) []ScoredDocument {
	scored := make([]ScoredDocument, len(docs))
	for i, doc := range docs {
		scored[i] = ScoredDocument{
			Content:      doc,
			Score:        NeutralScore,
			OriginalRank: i,
		}
	}
	return scored
}

// truncate limits results to topN. Non-positive topN returns everything.
func truncate(docs []ScoredDocument, topN int) []ScoredDocument {
	if topN <= 0 || topN >= len(docs) {
		return docs
	}
	return docs[:topN]
}
