package chunker

import (
	"fmt"

	"github.com/codecontext-ai/codecontext/internal/domain"
)

// windowStrategy is the last-resort chunker for any language: small files
// become a single `<file>` chunk, larger ones a series of overlapping
// fixed-size line windows named `<block_N>`.
type windowStrategy struct {
	maxLines int
	window   int
	overlap  int
}

func (w windowStrategy) name() string { return "line-window" }

func (w windowStrategy) attempt(filePath, content, language string) []domain.CodeChunk {
	lines := splitLines(content)
	if len(lines) == 0 {
		return nil
	}

	if len(lines) <= w.maxLines {
		return []domain.CodeChunk{{
			FilePath:  filePath,
			Symbol:    domain.SymbolFile,
			Code:      joinRange(lines, 1, len(lines)),
			Language:  language,
			StartLine: 1,
			EndLine:   len(lines),
		}}
	}

	step := w.window - w.overlap
	var chunks []domain.CodeChunk
	for i, idx := 0, 0; i < len(lines); i, idx = i+step, idx+1 {
		end := i + w.window
		if end > len(lines) {
			end = len(lines)
		}
		chunks = append(chunks, domain.CodeChunk{
			FilePath:  filePath,
			Symbol:    fmt.Sprintf("<block_%d>", idx),
			Code:      joinRange(lines, i+1, end),
			Language:  language,
			StartLine: i + 1,
			EndLine:   end,
		})
	}
	return chunks
}
