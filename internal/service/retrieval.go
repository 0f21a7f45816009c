package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codecontext-ai/codecontext/internal/adapter/store"
	"github.com/codecontext-ai/codecontext/internal/domain"
	"github.com/codecontext-ai/codecontext/internal/embed"
)

// NoContextPlaceholder is returned by BuildContext when nothing was retrieved.
const NoContextPlaceholder = "No relevant code found in the repository."

// RetrievalService performs semantic search over a project's indexed chunks.
type RetrievalService struct {
	embedder    *embed.Embedder
	vectors     *store.VectorStore
	defaultTopK int
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(embedder *embed.Embedder, vectors *store.VectorStore, defaultTopK int) *RetrievalService {
	return &RetrievalService{embedder: embedder, vectors: vectors, defaultTopK: defaultTopK}
}

// Retrieve embeds the question and returns the top-K most similar chunks,
// nearest first. An empty result is not an error.
func (s *RetrievalService) Retrieve(ctx context.Context, projectID int64, question string, topK int) ([]domain.RetrievedChunk, error) {
	if topK <= 0 {
		topK = s.defaultTopK
	}

	slog.Info("retrieving chunks", "project_id", projectID, "top_k", topK, "question", truncate(question, 80))

	queryVector, err := s.embedder.EmbedOne(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.vectors.Query(projectID, queryVector, topK)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}

	chunks := make([]domain.RetrievedChunk, 0, len(results.IDs))
	for i := range results.IDs {
		meta := results.Metadatas[i]
		chunks = append(chunks, domain.RetrievedChunk{
			CodeChunk: domain.CodeChunk{
				FilePath:  orUnknown(meta.FilePath),
				Symbol:    orUnknown(meta.Symbol),
				Code:      results.Documents[i],
				Language:  orUnknown(meta.Language),
				StartLine: meta.StartLine,
				EndLine:   meta.EndLine,
			},
			Distance: results.Distances[i],
		})
	}

	slog.Info("retrieved chunks", "project_id", projectID, "count", len(chunks))
	return chunks, nil
}

// BuildContext renders retrieved chunks into the structured context block
// handed to the generation model.
func (s *RetrievalService) BuildContext(chunks []domain.RetrievedChunk) string {
	if len(chunks) == 0 {
		return NoContextPlaceholder
	}

	sections := make([]string, len(chunks))
	for i, chunk := range chunks {
		location := chunk.FilePath
		if chunk.StartLine > 0 {
			location += fmt.Sprintf(" (lines %d-%d)", chunk.StartLine, chunk.EndLine)
		}
		if chunk.Symbol != "" && !isStructuralSymbol(chunk.Symbol) {
			location += " → " + chunk.Symbol
		}
		sections[i] = fmt.Sprintf("--- [%d] %s (%s) ---\n%s", i+1, location, chunk.Language, chunk.Code)
	}

	return strings.Join(sections, "\n\n")
}

func isStructuralSymbol(symbol string) bool {
	switch symbol {
	case domain.SymbolFile, domain.SymbolModule, domain.SymbolImports:
		return true
	}
	return false
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
