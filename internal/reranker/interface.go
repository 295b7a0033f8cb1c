// Package reranker provides second-stage retrieval refinement: candidates
// from vector search are re-scored by a cross-encoder model that sees the
// query and each document jointly.
package reranker

import (
	"context"
)

// ScoredDocument is a document paired with its relevance score.
//
// Scores from the reranker are cross-encoder relevance values and are not
// comparable with the distance-derived scores produced by vector search.
type ScoredDocument struct {
	Content string  `json:"content"`
	Score   float64 `json:"score"`

	// OriginalRank is the document's position in the input slice (0-indexed).
	OriginalRank int `json:"original_rank"`
}

// Reranker reorders candidate documents by relevance to a query.
type Reranker interface {
	// Rerank scores docs against query and returns them sorted by score
	// descending, truncated to topN (topN <= 0 returns all). Equal scores
	// keep their original relative order.
	//
	// Rerank never fails: if the scoring backend is unavailable the input
	// documents come back in their original order with a neutral score.
	Rerank(ctx context.Context, query string, docs []string, topN int) []ScoredDocument

	// RerankScored accepts documents that already carry a prior-stage score.
	// That score is discarded before delegating to Rerank, since first-stage
	// similarity and cross-encoder relevance are not comparable.
	RerankScored(ctx context.Context, query string, docs []ScoredDocument, topN int) []ScoredDocument
}
