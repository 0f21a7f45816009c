package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codecontext-ai/codecontext/internal/adapter/repofs"
	"github.com/codecontext-ai/codecontext/internal/adapter/store"
	"github.com/codecontext-ai/codecontext/internal/chunker"
	"github.com/codecontext-ai/codecontext/internal/domain"
	"github.com/codecontext-ai/codecontext/internal/embed"
)

// ProgressFunc receives ingestion stage updates. Stage is one of
// "scanning", "chunking", "embedding", "storing".
type ProgressFunc func(stage, message string)

// IngestService turns an on-disk repository into indexed, searchable chunks.
type IngestService struct {
	store    *store.PostgresStore
	vectors  *store.VectorStore
	scanner  *repofs.Scanner
	chunker  *chunker.Chunker
	embedder *embed.Embedder
}

// NewIngestService creates a new ingestion service.
func NewIngestService(st *store.PostgresStore, vectors *store.VectorStore, scanner *repofs.Scanner, ck *chunker.Chunker, embedder *embed.Embedder) *IngestService {
	return &IngestService{
		store:    st,
		vectors:  vectors,
		scanner:  scanner,
		chunker:  ck,
		embedder: embedder,
	}
}

// Ingest scans, chunks, embeds, and stores a repository. It drives the
// project row through processing → ready, or marks it error on any failure.
// Partial vector state from a failed run is left in place; re-ingestion
// replaces the collection.
func (s *IngestService) Ingest(ctx context.Context, projectID int64, repoPath string, progress ProgressFunc) error {
	if progress == nil {
		progress = func(string, string) {}
	}

	err := s.ingest(ctx, projectID, repoPath, progress)
	if err != nil {
		slog.Error("ingestion failed", "project_id", projectID, "error", err)
		if updErr := s.store.UpdateProjectStatus(ctx, projectID, domain.ProjectStatusError); updErr != nil {
			slog.Error("failed to mark project errored", "project_id", projectID, "error", updErr)
		}
	}
	return err
}

func (s *IngestService) ingest(ctx context.Context, projectID int64, repoPath string, progress ProgressFunc) error {
	progress("scanning", "Scanning repository files")
	files, err := s.scanner.DiscoverFiles(repoPath)
	if err != nil {
		return fmt.Errorf("scan repository: %w", err)
	}

	if len(files) == 0 {
		slog.Info("no ingestible files found", "project_id", projectID)
		return s.store.CompleteProject(ctx, projectID, 0, 0)
	}

	progress("chunking", fmt.Sprintf("Chunking %d files", len(files)))
	var chunks []domain.CodeChunk
	for _, f := range files {
		chunks = append(chunks, s.chunker.ChunkFile(f.RelativePath, f.Content, f.Language)...)
	}

	if len(chunks) == 0 {
		return s.store.CompleteProject(ctx, projectID, len(files), 0)
	}

	progress("embedding", fmt.Sprintf("Embedding %d chunks", len(chunks)))
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = EmbeddingInput(c)
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}

	progress("storing", fmt.Sprintf("Indexing %d chunks", len(chunks)))
	ids := make([]string, len(chunks))
	documents := make([]string, len(chunks))
	metadatas := make([]domain.ChunkMeta, len(chunks))
	for i, c := range chunks {
		ids[i] = fmt.Sprintf("chunk_%d_%d", projectID, i)
		documents[i] = c.Code
		metadatas[i] = domain.ChunkMeta{
			FilePath:  c.FilePath,
			Symbol:    c.Symbol,
			Language:  c.Language,
			StartLine: c.StartLine,
			EndLine:   c.EndLine,
		}
	}
	if err := s.vectors.Add(projectID, ids, documents, vectors, metadatas); err != nil {
		return fmt.Errorf("store vectors: %w", err)
	}

	if err := s.store.InsertChunks(ctx, projectID, chunks); err != nil {
		return fmt.Errorf("store chunk rows: %w", err)
	}

	if err := s.store.CompleteProject(ctx, projectID, len(files), len(chunks)); err != nil {
		return fmt.Errorf("complete project: %w", err)
	}

	slog.Info("ingestion complete", "project_id", projectID, "files", len(files), "chunks", len(chunks))
	return nil
}

// EmbeddingInput renders a chunk into the text fed to the embedding model,
// prefixing the code with its file, symbol, and language.
func EmbeddingInput(c domain.CodeChunk) string {
	return fmt.Sprintf("File: %s\nSymbol: %s\nLanguage: %s\n\n%s", c.FilePath, c.Symbol, c.Language, c.Code)
}
