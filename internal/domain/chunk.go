package domain

// Sentinel symbols used when a chunk does not map to a named declaration.
const (
	SymbolModule    = "<module>"    // leading preamble extracted by structured chunking
	SymbolImports   = "<imports>"   // leading preamble extracted by heuristic chunking
	SymbolFile      = "<file>"      // whole small file
	SymbolAnonymous = "<anonymous>" // declaration whose name could not be extracted
)

// CodeChunk is a contiguous, semantically meaningful slice of one source
// file — the unit of both indexing and retrieval.
//
// StartLine and EndLine are 1-based inclusive; zero means the chunk is not
// line-addressable. Code is always the exact join of the source lines
// [StartLine, EndLine].
type CodeChunk struct {
	FilePath  string `json:"file_path"`
	Symbol    string `json:"symbol"`
	Code      string `json:"code"`
	Language  string `json:"language"`
	StartLine int    `json:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
}

// ChunkMeta is the metadata record stored alongside a chunk's document text
// in the vector store.
type ChunkMeta struct {
	FilePath  string `json:"file_path"`
	Symbol    string `json:"symbol"`
	Language  string `json:"language"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// RetrievedChunk is a CodeChunk plus its cosine distance to the query
// (1 − cosine similarity, lower is better). Built per query, never persisted.
type RetrievedChunk struct {
	CodeChunk
	Distance float64 `json:"distance"`
}
