package chunking

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// structuralSeparators is the priority-ordered separator list: paragraph
// breaks first, then line breaks, sentence boundaries, spaces, and finally
// individual characters as a last resort.
var structuralSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// StructuralChunker splits text recursively on document structure so chunks
// avoid mid-sentence cuts where possible. Consecutive chunks share Overlap
// characters of trailing context.
type StructuralChunker struct {
	splitter textsplitter.RecursiveCharacter
}

func newStructuralChunker(cfg Config) *StructuralChunker {
	return &StructuralChunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(cfg.Size),
			textsplitter.WithChunkOverlap(cfg.Overlap),
			textsplitter.WithSeparators(structuralSeparators),
		),
	}
}

// Chunk splits text into chunks of at most Size characters.
func (c *StructuralChunker) Chunk(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	segments, err := c.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("splitting text: %w", err)
	}
	return filterEmpty(segments), nil
}

// filterEmpty drops segments that are empty after trimming. The splitter can
// emit whitespace-only segments at separator boundaries.
func filterEmpty(segments []string) []string {
	chunks := make([]string, 0, len(segments))
	for _, segment := range segments {
		if strings.TrimSpace(segment) == "" {
			continue
		}
		chunks = append(chunks, segment)
	}
	return chunks
}
