// Package chunking splits raw document text into ordered, overlapping chunks
// sized for embedding and retrieval.
//
// Three strategies are available behind a single Chunker contract:
//   - naive: fixed-length windows, no overlap
//   - structural: recursive character splitting on document structure (default)
//   - token: same as structural but measured in tokenizer tokens
package chunking

import (
	"errors"
	"fmt"
)

// Sentinel errors for chunking configuration.
var (
	// ErrInvalidConfig indicates invalid chunking configuration.
	ErrInvalidConfig = errors.New("invalid chunking configuration")
)

// Strategy selects the splitting algorithm.
type Strategy string

const (
	// StrategyNaive slices the text into fixed-size windows. It ignores
	// Overlap even when configured; kept as a baseline for comparison.
	StrategyNaive Strategy = "naive"

	// StrategyStructural splits on paragraph breaks, then lines, then
	// sentence boundaries, then spaces, falling back to characters.
	StrategyStructural Strategy = "structural"

	// StrategyToken behaves like structural but measures size and overlap
	// in tokens of the embedding model's tokenizer.
	StrategyToken Strategy = "token"
)

// DefaultStrategy is used when no strategy is configured.
const DefaultStrategy = StrategyStructural

// Config holds chunking configuration. Immutable once validated.
type Config struct {
	// Size is the target chunk size in characters (or tokens for StrategyToken).
	Size int `koanf:"size"`

	// Overlap is the trailing context repeated at the start of the next chunk.
	// Must satisfy 0 <= Overlap < Size. The naive strategy ignores it.
	Overlap int `koanf:"overlap"`

	// Strategy selects the splitting algorithm. Default: structural.
	Strategy Strategy `koanf:"strategy"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Size == 0 {
		c.Size = 1024
	}
	if c.Overlap == 0 && c.Size > 200 {
		c.Overlap = 200
	}
	if c.Strategy == "" {
		c.Strategy = DefaultStrategy
	}
}

// Validate checks the size/overlap invariant. Violations are configuration
// errors raised here, never at chunk time.
func (c Config) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: size must be greater than zero, got %d", ErrInvalidConfig, c.Size)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: overlap cannot be negative, got %d", ErrInvalidConfig, c.Overlap)
	}
	if c.Overlap >= c.Size {
		return fmt.Errorf("%w: overlap %d must be smaller than size %d", ErrInvalidConfig, c.Overlap, c.Size)
	}
	return nil
}

// Chunker splits text into an ordered sequence of chunks.
type Chunker interface {
	// Chunk splits text into chunks. Empty or whitespace-only text yields
	// an empty slice and no error.
	Chunk(text string) ([]string, error)
}

// New builds a Chunker for the configured strategy. An unknown strategy is a
// construction error; it never silently falls back to a default.
func New(cfg Config) (Chunker, error) {
	if cfg.Strategy == "" {
		cfg.Strategy = DefaultStrategy
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Strategy {
	case StrategyNaive:
		return &NaiveChunker{size: cfg.Size}, nil
	case StrategyStructural:
		return newStructuralChunker(cfg), nil
	case StrategyToken:
		return newTokenChunker(cfg), nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfig, cfg.Strategy)
	}
}
