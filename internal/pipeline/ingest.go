package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fyrsmithlabs/answerd/internal/vectorstore"
	"go.uber.org/zap"
)

// Ingest chunks, embeds, and persists documents.
//
// Documents are processed by a bounded worker pool. Within a document,
// chunk order is preserved through deterministic record IDs ({docID}_{n}),
// so the association between a chunk's content and its stored vector is
// reproducible regardless of persistence order across workers.
//
// A document whose chunking, embedding, or insertion fails is reported in
// IngestStats.Failed and aborts only its own indexing; other documents are
// unaffected.
func (p *Pipeline) Ingest(ctx context.Context, docs []Document) (*IngestStats, error) {
	stats := &IngestStats{}
	if len(docs) == 0 {
		return stats, nil
	}

	start := time.Now()

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, p.config.IngestWorkers)
	)

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return stats, err
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			return stats, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(doc Document) {
			defer wg.Done()
			defer func() { <-sem }()

			chunkCount, err := p.ingestDocument(ctx, doc)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.logger.Warn("document indexing failed",
					zap.String("document", doc.ID),
					zap.Error(err),
				)
				stats.Failed = append(stats.Failed, doc.ID)
				return
			}
			stats.Documents++
			stats.Chunks += chunkCount
		}(doc)
	}

	wg.Wait()
	sort.Strings(stats.Failed)

	p.metrics.recordIngest(stats.Documents, stats.Chunks)
	p.metrics.observeStage("ingest", time.Since(start).Seconds())

	p.logger.Info("ingestion complete",
		zap.Int("documents", stats.Documents),
		zap.Int("chunks", stats.Chunks),
		zap.Int("failed", len(stats.Failed)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return stats, nil
}

// ingestDocument runs the chunk-embed-insert sequence for one document and
// returns the number of chunks persisted.
func (p *Pipeline) ingestDocument(ctx context.Context, doc Document) (int, error) {
	chunks, err := p.chunker.Chunk(doc.Text)
	if err != nil {
		return 0, fmt.Errorf("chunking: %w", err)
	}
	// Empty documents produce no chunks, no embed calls, no records.
	if len(chunks) == 0 {
		return 0, nil
	}

	vectors, err := p.embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	records := make([]vectorstore.Record, len(chunks))
	for i, chunk := range chunks {
		records[i] = vectorstore.Record{
			ID:      fmt.Sprintf("%s_%d", doc.ID, i),
			Content: chunk,
			Vector:  vectors[i],
		}
	}

	if err := p.store.Insert(ctx, records); err != nil {
		return 0, fmt.Errorf("persisting records: %w", err)
	}

	p.logger.Debug("document indexed",
		zap.String("document", doc.ID),
		zap.Int("chunks", len(chunks)),
	)
	return len(chunks), nil
}
