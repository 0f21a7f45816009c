package chunker

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/codecontext-ai/codecontext/internal/domain"
)

// Config controls chunk sizing across all strategies.
type Config struct {
	MaxChunkLines int // max lines for a whole-file or whole-type chunk
	WindowLines   int // fallback window size
	OverlapLines  int // fallback window overlap
}

// DefaultConfig returns the standard chunk sizing.
func DefaultConfig() Config {
	return Config{MaxChunkLines: 200, WindowLines: 150, OverlapLines: 20}
}

// strategy is one chunking approach. A strategy succeeds by returning a
// non-empty chunk list; returning nil passes the file to the next strategy.
// Pattern order in the chain encodes priority.
type strategy interface {
	name() string
	attempt(filePath, content, language string) []domain.CodeChunk
}

// Chunker splits source files into semantically coherent chunks by trying an
// ordered chain of strategies: structured parsing, heuristic boundary
// scanning, then fixed line windows. Every non-empty file yields at least
// one chunk.
type Chunker struct {
	strategies []strategy
}

// New creates a chunker with the standard strategy chain.
func New(cfg Config) *Chunker {
	if cfg.MaxChunkLines <= 0 {
		cfg.MaxChunkLines = 200
	}
	if cfg.WindowLines <= 0 {
		cfg.WindowLines = 150
	}
	if cfg.OverlapLines < 0 || cfg.OverlapLines >= cfg.WindowLines {
		// Overlap must stay below the window so each slide advances.
		cfg.OverlapLines = cfg.WindowLines / 2
	}
	return &Chunker{
		strategies: []strategy{
			goStrategy{maxLines: cfg.MaxChunkLines},
			scriptStrategy{},
			windowStrategy{maxLines: cfg.MaxChunkLines, window: cfg.WindowLines, overlap: cfg.OverlapLines},
		},
	}
}

// ChunkFile splits a file into ordered chunks. It never fails: strategies
// that cannot handle the file fall through to the next, and the window
// fallback accepts any language. Empty content yields no chunks.
func (c *Chunker) ChunkFile(filePath, content, language string) []domain.CodeChunk {
	for _, s := range c.strategies {
		chunks := s.attempt(filePath, content, language)
		if len(chunks) > 0 {
			slog.Debug("chunked file", "strategy", s.name(), "path", filePath, "chunks", len(chunks))
			return chunks
		}
	}
	return nil
}

// splitLines splits content into lines without a trailing empty element for
// newline-terminated files.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// joinRange joins lines [start, end] (1-based, inclusive).
func joinRange(lines []string, start, end int) string {
	return strings.Join(lines[start-1:end], "\n")
}

// countNonTrivial counts lines containing any non-whitespace character.
func countNonTrivial(lines []string) int {
	n := 0
	for _, line := range lines {
		if strings.IndexFunc(line, func(r rune) bool { return !unicode.IsSpace(r) }) >= 0 {
			n++
		}
	}
	return n
}

// trimRange narrows [start, end] (1-based, inclusive) to exclude leading and
// trailing blank lines. Returns ok=false when the range is entirely blank.
func trimRange(lines []string, start, end int) (int, int, bool) {
	for start <= end && strings.TrimSpace(lines[start-1]) == "" {
		start++
	}
	for end >= start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	if start > end {
		return 0, 0, false
	}
	return start, end, true
}
