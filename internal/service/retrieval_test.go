package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codecontext-ai/codecontext/internal/adapter/store"
	"github.com/codecontext-ai/codecontext/internal/domain"
	"github.com/codecontext-ai/codecontext/internal/embed"
)

// stubEmbedProvider maps known texts to fixed vectors so retrieval order is
// deterministic.
type stubEmbedProvider struct {
	vectors map[string][]float32
}

func (s *stubEmbedProvider) ModelName() string { return "stub-embed" }

func (s *stubEmbedProvider) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 1, 1}, nil
}

func (s *stubEmbedProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func TestRetrieveRanksBySimilarity(t *testing.T) {
	vectors := store.NewVectorStore(t.TempDir())
	require.NoError(t, vectors.Add(1,
		[]string{"chunk_1_0", "chunk_1_1"},
		[]string{"func Login()", "func Render()"},
		[][]float32{
			{1, 0, 0},
			{0, 1, 0},
		},
		[]domain.ChunkMeta{
			{FilePath: "auth.go", Symbol: "Login", Language: "go", StartLine: 10, EndLine: 20},
			{FilePath: "ui.go", Symbol: "Render", Language: "go", StartLine: 5, EndLine: 9},
		},
	))

	provider := &stubEmbedProvider{vectors: map[string][]float32{
		"how does login work": {1, 0, 0},
	}}
	svc := NewRetrievalService(embed.New(provider, 8), vectors, 20)

	chunks, err := svc.Retrieve(context.Background(), 1, "how does login work", 0)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "auth.go", chunks[0].FilePath)
	assert.Equal(t, "Login", chunks[0].Symbol)
	assert.Equal(t, 10, chunks[0].StartLine)
	assert.Less(t, chunks[0].Distance, chunks[1].Distance)
}

func TestRetrieveEmptyProjectIsNotAnError(t *testing.T) {
	vectors := store.NewVectorStore(t.TempDir())
	svc := NewRetrievalService(embed.New(&stubEmbedProvider{}, 8), vectors, 20)

	chunks, err := svc.Retrieve(context.Background(), 5, "anything", 0)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestRetrieveDefaultsMissingMetadata(t *testing.T) {
	vectors := store.NewVectorStore(t.TempDir())
	require.NoError(t, vectors.Add(1,
		[]string{"chunk_1_0"},
		[]string{"orphan code"},
		[][]float32{{1, 0, 0}},
		[]domain.ChunkMeta{{}},
	))

	svc := NewRetrievalService(embed.New(&stubEmbedProvider{}, 8), vectors, 20)

	chunks, err := svc.Retrieve(context.Background(), 1, "anything", 3)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "unknown", chunks[0].FilePath)
	assert.Equal(t, "unknown", chunks[0].Symbol)
	assert.Equal(t, "unknown", chunks[0].Language)
}

func TestBuildContextEmpty(t *testing.T) {
	svc := NewRetrievalService(nil, nil, 20)
	assert.Equal(t, NoContextPlaceholder, svc.BuildContext(nil))
}

func TestBuildContextFormat(t *testing.T) {
	svc := NewRetrievalService(nil, nil, 20)

	chunks := []domain.RetrievedChunk{
		{CodeChunk: domain.CodeChunk{
			FilePath: "auth/login.go", Symbol: "Login", Code: "func Login() {}",
			Language: "go", StartLine: 12, EndLine: 30,
		}},
		{CodeChunk: domain.CodeChunk{
			FilePath: "README.md", Symbol: domain.SymbolFile, Code: "# readme",
			Language: "markdown", StartLine: 1, EndLine: 1,
		}},
	}

	out := svc.BuildContext(chunks)
	sections := strings.Split(out, "\n\n")
	require.Len(t, sections, 2)

	assert.Equal(t, "--- [1] auth/login.go (lines 12-30) → Login (go) ---\nfunc Login() {}", sections[0])

	// Structural symbols are elided from the header.
	assert.Equal(t, "--- [2] README.md (lines 1-1) (markdown) ---\n# readme", sections[1])
}

func TestBuildContextOmitsZeroLineRange(t *testing.T) {
	svc := NewRetrievalService(nil, nil, 20)

	out := svc.BuildContext([]domain.RetrievedChunk{
		{CodeChunk: domain.CodeChunk{FilePath: "x.py", Symbol: "f", Code: "def f(): pass", Language: "python"}},
	})
	assert.Equal(t, "--- [1] x.py → f (python) ---\ndef f(): pass", out)
}

func TestEmbeddingInputFormat(t *testing.T) {
	c := domain.CodeChunk{
		FilePath: "a.go", Symbol: "Add", Language: "go", Code: "func Add() {}",
	}
	assert.Equal(t, "File: a.go\nSymbol: Add\nLanguage: go\n\nfunc Add() {}", EmbeddingInput(c))
}
