package vectorstore

import (
	"fmt"

	"go.uber.org/zap"
)

// Provider identifies a vector store backend.
type Provider string

const (
	// ProviderChromem is the embedded chromem-go store (default).
	ProviderChromem Provider = "chromem"

	// ProviderQdrant is an external Qdrant server over gRPC.
	ProviderQdrant Provider = "qdrant"
)

// Config selects and configures a vector store backend.
type Config struct {
	// Provider selects the backend. Default: chromem.
	Provider Provider `koanf:"provider"`

	Chromem ChromemConfig `koanf:"chromem"`
	Qdrant  QdrantConfig  `koanf:"qdrant"`
}

// NewStore builds the configured Store. An unknown provider is a
// configuration error, never a silent fallback.
func NewStore(cfg Config, logger *zap.Logger) (Store, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = ProviderChromem
	}

	switch provider {
	case ProviderChromem:
		return NewChromemStore(cfg.Chromem, logger)
	case ProviderQdrant:
		return NewQdrantStore(cfg.Qdrant, logger)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, provider)
	}
}
