package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codecontext-ai/codecontext/internal/adapter/repofs"
	"github.com/codecontext-ai/codecontext/internal/adapter/store"
	"github.com/codecontext-ai/codecontext/internal/chunker"
	"github.com/codecontext-ai/codecontext/internal/domain"
	"github.com/codecontext-ai/codecontext/internal/embed"
	"github.com/codecontext-ai/codecontext/internal/port"
)

// failingEmbedProvider rejects every embedding call.
type failingEmbedProvider struct{}

func (failingEmbedProvider) ModelName() string { return "stub-embed" }

func (failingEmbedProvider) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("model offline")
}

func (failingEmbedProvider) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("model offline")
}

func writeRepoFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func newIngestFixture(t *testing.T, provider port.EmbeddingProvider) (*IngestService, sqlmock.Sqlmock, *store.VectorStore) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	vectors := store.NewVectorStore(t.TempDir())
	scanner := repofs.NewScanner([]string{"node_modules"}, []string{".go", ".md"}, 500_000)
	svc := NewIngestService(
		store.NewPostgresStoreFromDB(db),
		vectors,
		scanner,
		chunker.New(chunker.DefaultConfig()),
		embed.New(provider, 0),
	)
	return svc, mock, vectors
}

func TestIngestEmptyRepositoryCompletesWithZeroTotals(t *testing.T) {
	svc, mock, vectors := newIngestFixture(t, &stubEmbedProvider{})

	mock.ExpectExec("UPDATE projects SET status").
		WithArgs(int64(7), domain.ProjectStatusReady, 0, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	var stages []string
	err := svc.Ingest(context.Background(), 7, t.TempDir(), func(stage, _ string) {
		stages = append(stages, stage)
	})
	require.NoError(t, err)

	// Scanning finds nothing, so the project goes straight to ready and no
	// collection is created.
	assert.Equal(t, []string{"scanning"}, stages)
	count, err := vectors.Count(7)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIngestIndexesChunksAndRecordsTotals(t *testing.T) {
	svc, mock, vectors := newIngestFixture(t, &stubEmbedProvider{})

	root := t.TempDir()
	writeRepoFile(t, root, "README.md", "# Title\n\nSome text.\n")
	writeRepoFile(t, root, "docs/guide.md", "# Guide\n\nMore text.\n")

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO chunks")
	mock.ExpectExec("INSERT INTO chunks").
		WithArgs(int64(42), "README.md", domain.SymbolFile, "# Title\n\nSome text.", "markdown", int64(1), int64(3), 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO chunks").
		WithArgs(int64(42), "docs/guide.md", domain.SymbolFile, "# Guide\n\nMore text.", "markdown", int64(1), int64(3), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec("UPDATE projects SET status").
		WithArgs(int64(42), domain.ProjectStatusReady, 2, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	var stages []string
	err := svc.Ingest(context.Background(), 42, root, func(stage, _ string) {
		stages = append(stages, stage)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"scanning", "chunking", "embedding", "storing"}, stages)

	count, err := vectors.Count(42)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	result, err := vectors.Query(42, []float32{1, 1, 1}, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"chunk_42_0", "chunk_42_1"}, result.IDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIngestEmbedFailureMarksProjectError(t *testing.T) {
	svc, mock, vectors := newIngestFixture(t, failingEmbedProvider{})

	root := t.TempDir()
	writeRepoFile(t, root, "README.md", "# Title\n\nSome text.\n")

	mock.ExpectExec("UPDATE projects SET status").
		WithArgs(int64(9), domain.ProjectStatusError).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.Ingest(context.Background(), 9, root, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed chunks")

	count, err := vectors.Count(9)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
