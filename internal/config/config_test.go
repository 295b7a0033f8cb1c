package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fyrsmithlabs/answerd/internal/chunking"
	"github.com/fyrsmithlabs/answerd/internal/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1024, cfg.Chunking.Size)
	assert.Equal(t, 200, cfg.Chunking.Overlap)
	assert.Equal(t, chunking.StrategyStructural, cfg.Chunking.Strategy)
	assert.True(t, cfg.Router.Enabled)
	assert.Equal(t, 2048, cfg.Router.MaxLength)
	assert.False(t, cfg.Retrieval.UseReranker)
	assert.Equal(t, 25, cfg.Retrieval.RetrievalTopK)
	assert.Equal(t, 5, cfg.Retrieval.RerankTopN)
	assert.Equal(t, vectorstore.ProviderChromem, cfg.VectorStore.Provider)
}

func TestLoadNoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Server, cfg.Server)
}

func TestLoadMissingFileIsIgnored(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Chunking, cfg.Chunking)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9000
chunking:
  size: 512
  overlap: 64
  strategy: naive
retrieval:
  use_reranker: true
  retrieval_top_k: 50
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 512, cfg.Chunking.Size)
	assert.Equal(t, 64, cfg.Chunking.Overlap)
	assert.Equal(t, chunking.StrategyNaive, cfg.Chunking.Strategy)
	assert.True(t, cfg.Retrieval.UseReranker)
	assert.Equal(t, 50, cfg.Retrieval.RetrievalTopK)
	// Untouched sections keep their defaults.
	assert.Equal(t, 5, cfg.Retrieval.RerankTopN)
	assert.True(t, cfg.Router.Enabled)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o600))

	t.Setenv("ANSWERD_SERVER_PORT", "9500")
	t.Setenv("ANSWERD_ROUTER_MAX_LENGTH", "128")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9500, cfg.Server.Port)
	assert.Equal(t, 128, cfg.Router.MaxLength)
}

func TestLoadInvalidConfigFails(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "overlap not below size",
			content: "chunking:\n  size: 100\n  overlap: 100\n",
		},
		{
			name:    "zero chunk size",
			content: "chunking:\n  size: 0\n",
		},
		{
			name:    "zero retrieval top k",
			content: "retrieval:\n  retrieval_top_k: -1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := Load(path)
			require.Error(t, err)
		})
	}
}

func TestTransformEnvKey(t *testing.T) {
	assert.Equal(t, "server.port", transformEnvKey("ANSWERD_SERVER_PORT"))
	assert.Equal(t, "router.max_length", transformEnvKey("ANSWERD_ROUTER_MAX_LENGTH"))
	assert.Equal(t, "retrieval.use_reranker", transformEnvKey("ANSWERD_RETRIEVAL_USE_RERANKER"))
}
