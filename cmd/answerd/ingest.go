package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/answerd/internal/chunking"
	"github.com/fyrsmithlabs/answerd/internal/pipeline"
)

var (
	chunkSize        int
	chunkOverlap     int
	chunkingStrategy string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file|dir]...",
	Short: "Chunk, embed, and index documents",
	Long: `Chunk, embed, and index documents into the vector store.

Each argument is a file or a directory. Directories are walked recursively
and every .txt and .md file is indexed as one document, identified by its
path. Files named explicitly are indexed regardless of extension.

Examples:
  # Index a directory of documents
  answerd ingest ./docs

  # Index specific files with a custom chunk size
  answerd ingest --chunk-size 512 --chunk-overlap 64 policy.txt faq.txt

  # Use token-based chunking
  answerd ingest --chunking-strategy token ./docs`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "chunk size in characters (0 = config default)")
	ingestCmd.Flags().IntVar(&chunkOverlap, "chunk-overlap", -1, "chunk overlap in characters (-1 = config default)")
	ingestCmd.Flags().StringVar(&chunkingStrategy, "chunking-strategy", "", "chunking strategy: naive, structural, or token")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync
	}()

	// Flag overrides on top of file/env config
	if chunkSize > 0 {
		cfg.Chunking.Size = chunkSize
	}
	if chunkOverlap >= 0 {
		cfg.Chunking.Overlap = chunkOverlap
	}
	if chunkingStrategy != "" {
		cfg.Chunking.Strategy = chunking.Strategy(chunkingStrategy)
	}

	docs, err := collectDocuments(args)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents found in %s", strings.Join(args, ", "))
	}

	p, store, err := buildPipeline(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := p.Ingest(cmd.Context(), docs)
	if err != nil {
		return fmt.Errorf("ingestion: %w", err)
	}

	fmt.Printf("Indexed %d document(s), %d chunk(s)\n", stats.Documents, stats.Chunks)
	if len(stats.Failed) > 0 {
		fmt.Fprintf(os.Stderr, "Failed: %s\n", strings.Join(stats.Failed, ", "))
		logger.Warn("some documents failed to index", zap.Strings("failed", stats.Failed))
		return fmt.Errorf("%d document(s) failed to index", len(stats.Failed))
	}

	return nil
}

// textExtensions are the file types picked up by directory walks.
var textExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// collectDocuments reads the named files and directories into documents.
// A document's ID is its cleaned path, so re-ingesting the same file
// overwrites its previous chunks instead of duplicating them.
func collectDocuments(paths []string) ([]pipeline.Document, error) {
	var docs []pipeline.Document

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}

		if !info.IsDir() {
			doc, err := readDocument(path)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !textExtensions[filepath.Ext(p)] {
				return nil
			}
			doc, err := readDocument(p)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", path, err)
		}
	}

	return docs, nil
}

func readDocument(path string) (pipeline.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return pipeline.Document{
		ID:   filepath.Clean(path),
		Text: string(content),
	}, nil
}
