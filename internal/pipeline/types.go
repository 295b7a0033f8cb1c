package pipeline

// Document is raw extracted text supplied for ingestion, identified by its
// source. Extraction itself (PDF, markdown, plain text) happens upstream.
type Document struct {
	// ID identifies the document, typically the source filename.
	ID string `json:"id"`

	// Text is the full extracted text.
	Text string `json:"text"`
}

// ScoredChunk is a chunk selected for the answer context, with the score
// used for display. Depending on configuration the score is either the
// store's similarity or the reranker's relevance; the two scales are not
// comparable and the result carries only one of them.
type ScoredChunk struct {
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Result is the outcome of one query through the pipeline.
type Result struct {
	// Blocked reports that the query router rejected the question before
	// any retrieval work. Reason carries the router's explanation.
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason,omitempty"`

	// Chunks are the selected chunks in final ranking order.
	Chunks []ScoredChunk `json:"chunks,omitempty"`

	// Context is the assembled answer context (chunks joined in order).
	Context string `json:"context,omitempty"`

	// Answer is the synthesized answer text.
	Answer string `json:"answer,omitempty"`
}

// IngestStats summarizes an ingestion run.
type IngestStats struct {
	// Documents is the number of documents successfully indexed.
	Documents int `json:"documents"`

	// Chunks is the total number of chunks persisted.
	Chunks int `json:"chunks"`

	// Failed lists document IDs whose indexing aborted. A failed document
	// never corrupts the store for other documents.
	Failed []string `json:"failed,omitempty"`
}
