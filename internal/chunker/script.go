package chunker

import (
	"regexp"

	"github.com/codecontext-ai/codecontext/internal/domain"
)

// scriptStrategy chunks JavaScript and TypeScript by scanning for
// declaration boundaries line by line. Each boundary starts a chunk that
// runs until the line before the next boundary. No parser is involved, so
// the results are best-effort; a file with no recognizable boundaries falls
// through to the window fallback.
type scriptStrategy struct{}

func (s scriptStrategy) name() string { return "script-heuristic" }

// Boundary patterns, in priority order — the first match wins per line.
var scriptBoundaryPatterns = []*regexp.Regexp{
	// export default function / export function
	regexp.MustCompile(`^export\s+(?:default\s+)?(?:async\s+)?function\s+\w+`),
	// plain function declarations
	regexp.MustCompile(`^(?:async\s+)?function\s+\w+`),
	// const/let/var arrow-function assignments
	regexp.MustCompile(`^(?:export\s+)?(?:const|let|var)\s+\w+\s*=\s*(?:async\s+)?(?:\([^)]*\)|[^=\s])\s*=>`),
	// class declarations
	regexp.MustCompile(`^(?:export\s+(?:default\s+)?)?class\s+\w+`),
}

// Symbol extraction patterns, also in priority order.
var scriptSymbolPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:export\s+(?:default\s+)?)?(?:async\s+)?function\s+(\w+)`),
	regexp.MustCompile(`(?:export\s+)?(?:const|let|var)\s+(\w+)`),
	regexp.MustCompile(`(?:export\s+(?:default\s+)?)?class\s+(\w+)`),
}

func (s scriptStrategy) attempt(filePath, content, language string) []domain.CodeChunk {
	if language != "javascript" && language != "typescript" {
		return nil
	}

	lines := splitLines(content)
	if len(lines) == 0 {
		return nil
	}

	type boundary struct {
		line   int // 0-based
		symbol string
	}

	var boundaries []boundary
	for i, line := range lines {
		for _, p := range scriptBoundaryPatterns {
			if p.MatchString(line) {
				boundaries = append(boundaries, boundary{line: i, symbol: extractScriptSymbol(line)})
				break
			}
		}
	}

	if len(boundaries) == 0 {
		return nil
	}

	var chunks []domain.CodeChunk

	// Imports and other leading content before the first boundary.
	if boundaries[0].line > 0 {
		if start, end, ok := trimRange(lines, 1, boundaries[0].line); ok && countNonTrivial(lines[start-1:end]) >= 2 {
			chunks = append(chunks, domain.CodeChunk{
				FilePath:  filePath,
				Symbol:    domain.SymbolImports,
				Code:      joinRange(lines, start, end),
				Language:  language,
				StartLine: start,
				EndLine:   end,
			})
		}
	}

	for i, b := range boundaries {
		start := b.line + 1
		end := len(lines)
		if i+1 < len(boundaries) {
			end = boundaries[i+1].line
		}
		start, end, ok := trimRange(lines, start, end)
		if !ok {
			continue
		}
		chunks = append(chunks, domain.CodeChunk{
			FilePath:  filePath,
			Symbol:    b.symbol,
			Code:      joinRange(lines, start, end),
			Language:  language,
			StartLine: start,
			EndLine:   end,
		})
	}

	return chunks
}

// extractScriptSymbol pulls the declared name out of a boundary line,
// falling back to the anonymous sentinel.
func extractScriptSymbol(line string) string {
	for _, p := range scriptSymbolPatterns {
		if m := p.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return domain.SymbolAnonymous
}
