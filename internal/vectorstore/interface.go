// Package vectorstore defines the interface for vector storage operations
// and provides an embedded (chromem-go) and an external (Qdrant) backend.
//
// The store works at the vector level: callers embed text themselves and
// persist (vector, chunk text) pairs. Query takes a query vector and returns
// stored records ordered most-relevant-first by the store's own metric; the
// numeric scale of the score is store-defined and suitable for display only.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Sentinel errors for vector store operations.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyRecords indicates empty or nil records.
	ErrEmptyRecords = errors.New("empty or nil records")

	// ErrConnectionFailed indicates the store backend is unreachable.
	ErrConnectionFailed = errors.New("failed to connect to vector store")

	// ErrSearchFailed indicates a similarity query failure.
	ErrSearchFailed = errors.New("vector search failed")

	// ErrInvalidCollectionName indicates collection name validation failure.
	ErrInvalidCollectionName = errors.New("invalid collection name")
)

// collectionNamePattern validates collection names.
// Pattern: lowercase letters, numbers, underscores, 1-64 characters.
var collectionNamePattern = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// ValidateCollectionName validates a collection name.
// Rejects: uppercase, special chars, path traversal, spaces.
func ValidateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: collection name cannot be empty", ErrInvalidCollectionName)
	}
	if !collectionNamePattern.MatchString(name) {
		return fmt.Errorf("%w: collection name must match ^[a-z0-9_]{1,64}$, got %q", ErrInvalidCollectionName, name)
	}
	return nil
}

// Record is a (vector, chunk text) pair, the unit the store indexes.
type Record struct {
	// ID uniquely identifies the record. Required, so repeated ingestion of
	// the same chunk overwrites rather than duplicates.
	ID string

	// Content is the chunk text.
	Content string

	// Vector is the chunk's embedding. Its dimension must be consistent
	// across all records and query vectors in a collection.
	Vector []float32
}

// SearchResult is a retrieved record with its similarity score.
type SearchResult struct {
	// ID is the record identifier.
	ID string

	// Content is the chunk text.
	Content string

	// Score is the store-defined similarity (higher = more similar).
	Score float32
}

// Store is the interface for vector storage operations.
type Store interface {
	// Insert persists records. Records carry precomputed vectors; the store
	// never embeds text itself.
	Insert(ctx context.Context, records []Record) error

	// Query returns up to k stored records nearest to vector, ordered
	// most-relevant-first by the store's own metric.
	Query(ctx context.Context, vector []float32, k int) ([]SearchResult, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close releases any resources held by the store.
	Close() error
}
