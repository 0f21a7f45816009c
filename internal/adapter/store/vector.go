package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/codecontext-ai/codecontext/internal/domain"
)

// collection holds one project's indexed chunks as four index-aligned
// sequences. It grows only by append; the per-collection lock serializes
// adds against concurrent queries.
type collection struct {
	mu sync.RWMutex

	IDs        []string           `json:"ids"`
	Documents  []string           `json:"documents"`
	Embeddings [][]float32        `json:"embeddings"`
	Metadatas  []domain.ChunkMeta `json:"metadatas"`
}

// QueryResult is a ranked similarity-search result: four same-length
// sequences ordered by ascending distance.
type QueryResult struct {
	IDs       []string
	Documents []string
	Metadatas []domain.ChunkMeta
	Distances []float64
}

// VectorStore is a per-project embedding store with exact brute-force
// cosine search. Each project's collection lives in one JSON file under dir
// and is cached in memory after first access; the file is rewritten
// wholesale after every add. Only one process is assumed to own a
// collection at a time.
type VectorStore struct {
	dir string

	mu    sync.Mutex
	cache map[int64]*collection
}

// NewVectorStore creates a store persisting collections under dir.
func NewVectorStore(dir string) *VectorStore {
	return &VectorStore{dir: dir, cache: make(map[int64]*collection)}
}

func (s *VectorStore) collectionPath(projectID int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("project_%d.json", projectID))
}

// load returns the cached collection for a project, reading it from disk on
// first access. A missing file yields an empty collection.
func (s *VectorStore) load(projectID int64) (*collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.cache[projectID]; ok {
		return c, nil
	}

	c := &collection{}
	data, err := os.ReadFile(s.collectionPath(projectID))
	if err == nil {
		if err := json.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("decode collection %d: %w", projectID, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read collection %d: %w", projectID, err)
	}

	s.cache[projectID] = c
	return c, nil
}

// Add appends chunks to a project's collection and persists it. All four
// slices must be index-aligned; id uniqueness within the collection is the
// caller's responsibility.
func (s *VectorStore) Add(projectID int64, ids []string, documents []string, embeddings [][]float32, metadatas []domain.ChunkMeta) error {
	if len(ids) != len(documents) || len(ids) != len(embeddings) || len(ids) != len(metadatas) {
		return fmt.Errorf("add to collection %d: mismatched lengths (%d ids, %d documents, %d embeddings, %d metadatas)",
			projectID, len(ids), len(documents), len(embeddings), len(metadatas))
	}
	if len(ids) == 0 {
		return nil
	}

	c, err := s.load(projectID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.IDs = append(c.IDs, ids...)
	c.Documents = append(c.Documents, documents...)
	c.Embeddings = append(c.Embeddings, embeddings...)
	c.Metadatas = append(c.Metadatas, metadatas...)

	slog.Info("added chunks to vector store", "project_id", projectID, "added", len(ids), "total", len(c.IDs))
	return s.persist(projectID, c)
}

// persist rewrites the collection file. Callers must hold the collection
// write lock.
func (s *VectorStore) persist(projectID int64, c *collection) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create vector dir: %w", err)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode collection %d: %w", projectID, err)
	}
	if err := os.WriteFile(s.collectionPath(projectID), data, 0o644); err != nil {
		return fmt.Errorf("write collection %d: %w", projectID, err)
	}
	return nil
}

// Query returns the up-to-topK nearest chunks by cosine distance, ascending.
// Ties keep insertion order. Stored vectors are re-normalized defensively
// rather than trusted from disk. A missing or empty collection returns an
// empty result.
func (s *VectorStore) Query(projectID int64, queryVector []float32, topK int) (QueryResult, error) {
	c, err := s.load(projectID)
	if err != nil {
		return QueryResult{}, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	n := len(c.Embeddings)
	if n == 0 || topK <= 0 {
		return QueryResult{}, nil
	}

	queryNorm := normalize(queryVector)
	similarities := make([]float64, n)
	for i, v := range c.Embeddings {
		similarities[i] = dot(normalize(v), queryNorm)
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return similarities[indices[a]] > similarities[indices[b]]
	})

	k := topK
	if k > n {
		k = n
	}

	result := QueryResult{
		IDs:       make([]string, k),
		Documents: make([]string, k),
		Metadatas: make([]domain.ChunkMeta, k),
		Distances: make([]float64, k),
	}
	for i := 0; i < k; i++ {
		j := indices[i]
		result.IDs[i] = c.IDs[j]
		result.Documents[i] = c.Documents[j]
		result.Metadatas[i] = c.Metadatas[j]
		result.Distances[i] = 1.0 - similarities[j]
	}
	return result, nil
}

// Count returns the number of chunks indexed for a project.
func (s *VectorStore) Count(projectID int64) (int, error) {
	c, err := s.load(projectID)
	if err != nil {
		return 0, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.IDs), nil
}

// Delete removes a project's collection and its file. Deleting an absent
// collection is a no-op.
func (s *VectorStore) Delete(projectID int64) error {
	s.mu.Lock()
	delete(s.cache, projectID)
	s.mu.Unlock()

	if err := os.Remove(s.collectionPath(projectID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete collection %d: %w", projectID, err)
	}
	slog.Info("deleted vector collection", "project_id", projectID)
	return nil
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum) + 1e-10
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
