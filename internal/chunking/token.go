package chunking

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// defaultEncoding is the tiktoken encoding used to measure chunk sizes.
const defaultEncoding = "cl100k_base"

// TokenChunker splits text by token count so chunk boundaries align with
// what the embedding model actually sees. Size and Overlap are measured in
// tokens, not characters.
type TokenChunker struct {
	splitter textsplitter.TokenSplitter
}

func newTokenChunker(cfg Config) *TokenChunker {
	return &TokenChunker{
		splitter: textsplitter.NewTokenSplitter(
			textsplitter.WithChunkSize(cfg.Size),
			textsplitter.WithChunkOverlap(cfg.Overlap),
			textsplitter.WithEncodingName(defaultEncoding),
		),
	}
}

// Chunk splits text into chunks of at most Size tokens.
func (c *TokenChunker) Chunk(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	segments, err := c.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("splitting text: %w", err)
	}
	return filterEmpty(segments), nil
}
