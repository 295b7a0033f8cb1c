package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"
)

// ChromemConfig holds configuration for the chromem-go embedded store.
type ChromemConfig struct {
	// Path is the directory for persistent storage. Empty means in-memory
	// only, which is what tests use.
	Path string `koanf:"path"`

	// Compress enables gzip compression for stored data.
	Compress bool `koanf:"compress"`

	// Collection is the collection name. Default: "answerd_chunks".
	Collection string `koanf:"collection"`
}

// ApplyDefaults sets default values for unset fields.
func (c *ChromemConfig) ApplyDefaults() {
	if c.Collection == "" {
		c.Collection = "answerd_chunks"
	}
}

// ChromemStore implements Store using chromem-go.
//
// chromem-go is an embeddable vector database in pure Go: no external
// service, optional persistence to gob files, cosine similarity search.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	logger     *zap.Logger
}

// NewChromemStore creates a ChromemStore with the given configuration.
func NewChromemStore(config ChromemConfig, logger *zap.Logger) (*ChromemStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	config.ApplyDefaults()

	if err := ValidateCollectionName(config.Collection); err != nil {
		return nil, err
	}

	var db *chromem.DB
	if config.Path == "" {
		db = chromem.NewDB()
	} else {
		expandedPath, err := expandPath(config.Path)
		if err != nil {
			return nil, fmt.Errorf("expanding path: %w", err)
		}
		if err := os.MkdirAll(expandedPath, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", expandedPath, err)
		}
		db, err = chromem.NewPersistentDB(expandedPath, config.Compress)
		if err != nil {
			return nil, fmt.Errorf("creating chromem DB: %w", err)
		}
	}

	// Records always carry precomputed vectors, so the embedding func must
	// never run.
	collection, err := db.GetOrCreateCollection(config.Collection, nil, rejectEmbedding)
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", config.Collection, err)
	}

	logger.Info("chromem store initialized",
		zap.String("path", config.Path),
		zap.String("collection", config.Collection),
	)

	return &ChromemStore{
		db:         db,
		collection: collection,
		logger:     logger,
	}, nil
}

// rejectEmbedding is installed as the collection's embedding func. The store
// operates on precomputed vectors only.
func rejectEmbedding(context.Context, string) ([]float32, error) {
	return nil, errors.New("store accepts precomputed vectors only")
}

// expandPath expands ~ to the home directory.
func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// Insert persists records with their precomputed vectors.
func (s *ChromemStore) Insert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return ErrEmptyRecords
	}

	docs := make([]chromem.Document, len(records))
	for i, record := range records {
		if record.ID == "" {
			return fmt.Errorf("%w: record at index %d has no ID", ErrInvalidConfig, i)
		}
		if len(record.Vector) == 0 {
			return fmt.Errorf("%w: record %s has no vector", ErrInvalidConfig, record.ID)
		}
		docs[i] = chromem.Document{
			ID:        record.ID,
			Content:   record.Content,
			Embedding: record.Vector,
		}
	}

	if err := s.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}

	s.logger.Debug("inserted records", zap.Int("count", len(records)))
	return nil
}

// Query returns the k nearest records by cosine similarity, highest first.
func (s *ChromemStore) Query(ctx context.Context, vector []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrSearchFailed, k)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: query vector cannot be empty", ErrSearchFailed)
	}

	// chromem rejects nResults larger than the collection size.
	count := s.collection.Count()
	if count == 0 {
		return []SearchResult{}, nil
	}
	if k > count {
		k = count
	}

	results, err := s.collection.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	searchResults := make([]SearchResult, len(results))
	for i, result := range results {
		searchResults[i] = SearchResult{
			ID:      result.ID,
			Content: result.Content,
			Score:   result.Similarity,
		}
	}
	return searchResults, nil
}

// Count returns the number of stored records.
func (s *ChromemStore) Count(_ context.Context) (int, error) {
	return s.collection.Count(), nil
}

// Close releases resources. chromem holds no connections.
func (s *ChromemStore) Close() error {
	return nil
}
