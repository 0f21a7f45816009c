package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codecontext-ai/codecontext/internal/domain"
)

func seedCollection(t *testing.T, s *VectorStore, projectID int64) {
	t.Helper()
	err := s.Add(projectID,
		[]string{"chunk_1_0", "chunk_1_1", "chunk_1_2"},
		[]string{"func a()", "func b()", "func c()"},
		[][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0.9, 0.1, 0},
		},
		[]domain.ChunkMeta{
			{FilePath: "a.go", Symbol: "a", Language: "go", StartLine: 1, EndLine: 3},
			{FilePath: "b.go", Symbol: "b", Language: "go", StartLine: 1, EndLine: 3},
			{FilePath: "c.go", Symbol: "c", Language: "go", StartLine: 1, EndLine: 3},
		},
	)
	require.NoError(t, err)
}

func TestVectorStoreQueryOrdering(t *testing.T) {
	s := NewVectorStore(t.TempDir())
	seedCollection(t, s, 1)

	result, err := s.Query(1, []float32{1, 0, 0}, 3)
	require.NoError(t, err)

	require.Equal(t, []string{"chunk_1_0", "chunk_1_2", "chunk_1_1"}, result.IDs)
	assert.Equal(t, "func a()", result.Documents[0])
	assert.Equal(t, "a.go", result.Metadatas[0].FilePath)

	// Exact match has distance ~0, orthogonal vector distance ~1.
	assert.InDelta(t, 0.0, result.Distances[0], 1e-6)
	assert.InDelta(t, 1.0, result.Distances[2], 1e-6)

	// Distances are non-decreasing.
	for i := 1; i < len(result.Distances); i++ {
		assert.LessOrEqual(t, result.Distances[i-1], result.Distances[i])
	}
}

func TestVectorStoreQueryTopKClamped(t *testing.T) {
	s := NewVectorStore(t.TempDir())
	seedCollection(t, s, 1)

	result, err := s.Query(1, []float32{0, 1, 0}, 50)
	require.NoError(t, err)
	assert.Len(t, result.IDs, 3)
}

func TestVectorStoreQueryMissingCollection(t *testing.T) {
	s := NewVectorStore(t.TempDir())

	result, err := s.Query(99, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, result.IDs)
	assert.Empty(t, result.Distances)
}

func TestVectorStoreAddLengthMismatch(t *testing.T) {
	s := NewVectorStore(t.TempDir())

	err := s.Add(1,
		[]string{"chunk_1_0", "chunk_1_1"},
		[]string{"only one"},
		[][]float32{{1, 0}},
		[]domain.ChunkMeta{{FilePath: "a.go"}},
	)
	assert.Error(t, err)
}

func TestVectorStorePersistenceReload(t *testing.T) {
	dir := t.TempDir()

	s := NewVectorStore(dir)
	seedCollection(t, s, 7)

	// A fresh store instance reads the collection back from disk.
	reloaded := NewVectorStore(dir)
	count, err := reloaded.Count(7)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	result, err := reloaded.Query(7, []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, result.IDs, 1)
	assert.Equal(t, "chunk_1_1", result.IDs[0])
}

func TestVectorStoreAppendAcrossCalls(t *testing.T) {
	s := NewVectorStore(t.TempDir())
	seedCollection(t, s, 1)

	err := s.Add(1,
		[]string{"chunk_1_3"},
		[]string{"func d()"},
		[][]float32{{0, 0, 1}},
		[]domain.ChunkMeta{{FilePath: "d.go", Symbol: "d", Language: "go"}},
	)
	require.NoError(t, err)

	count, err := s.Count(1)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestVectorStoreCollectionsAreDisjoint(t *testing.T) {
	s := NewVectorStore(t.TempDir())
	seedCollection(t, s, 1)

	require.NoError(t, s.Add(2,
		[]string{"chunk_2_0"},
		[]string{"other project"},
		[][]float32{{0, 0, 1}},
		[]domain.ChunkMeta{{FilePath: "x.go"}},
	))

	result, err := s.Query(2, []float32{0, 0, 1}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"chunk_2_0"}, result.IDs)
}

func TestVectorStoreDelete(t *testing.T) {
	s := NewVectorStore(t.TempDir())
	seedCollection(t, s, 1)

	require.NoError(t, s.Delete(1))

	count, err := s.Count(1)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Deleting a collection that never existed is not an error.
	assert.NoError(t, s.Delete(42))
}
