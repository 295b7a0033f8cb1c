package chunking

import "strings"

// NaiveChunker slices text into non-overlapping fixed-size windows.
//
// Overlap is deliberately not applied even when configured. The naive
// strategy predates the overlap-aware splitters and is kept unchanged so
// retrieval quality can be compared against it.
type NaiveChunker struct {
	size int
}

// Chunk splits text into windows of size runes. Every chunk is exactly size
// runes long except possibly the last.
func (c *NaiveChunker) Chunk(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+c.size-1)/c.size)
	for i := 0; i < len(runes); i += c.size {
		end := i + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks, nil
}
