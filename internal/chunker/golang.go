package chunker

import (
	"go/ast"
	"go/parser"
	"go/token"
	"sort"

	"github.com/codecontext-ai/codecontext/internal/domain"
)

// goStrategy chunks Go sources by parsing them with the standard library
// parser. Top-level functions become one chunk each; a type and its methods
// are kept as one chunk when they are contiguous and fit within maxLines,
// and otherwise split into a `Type.<header>` chunk for the declaration plus
// one `Type.method` chunk per method. A parse failure yields no chunks so
// the file falls through to the next strategy.
type goStrategy struct {
	maxLines int
}

func (g goStrategy) name() string { return "go-ast" }

// decl is a top-level declaration with resolved line range.
type goDecl struct {
	symbol   string // function name, Type, or Type.method
	typeName string // receiver or declared type name, "" for plain functions
	isType   bool
	start    int
	end      int
}

func (g goStrategy) attempt(filePath, content, language string) []domain.CodeChunk {
	if language != "go" {
		return nil
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filePath, content, parser.ParseComments)
	if err != nil {
		return nil
	}

	lines := splitLines(content)
	decls := collectGoDecls(fset, file)
	if len(decls) == 0 {
		return nil
	}

	var chunks []domain.CodeChunk

	// Preamble: package clause, imports, and any constants or variables
	// before the first function or type declaration.
	if first := decls[0].start; first > 1 {
		if start, end, ok := trimRange(lines, 1, first-1); ok && countNonTrivial(lines[start-1:end]) >= 3 {
			chunks = append(chunks, domain.CodeChunk{
				FilePath:  filePath,
				Symbol:    domain.SymbolModule,
				Code:      joinRange(lines, start, end),
				Language:  language,
				StartLine: start,
				EndLine:   end,
			})
		}
	}

	consumed := make([]bool, len(decls))
	for i, d := range decls {
		if consumed[i] {
			continue
		}

		if d.isType {
			chunks = append(chunks, g.chunkType(filePath, language, lines, decls, consumed, i)...)
			continue
		}

		chunks = append(chunks, domain.CodeChunk{
			FilePath:  filePath,
			Symbol:    d.symbol,
			Code:      joinRange(lines, d.start, d.end),
			Language:  language,
			StartLine: d.start,
			EndLine:   d.end,
		})
	}

	sort.SliceStable(chunks, func(a, b int) bool { return chunks[a].StartLine < chunks[b].StartLine })
	return chunks
}

// chunkType emits chunks for the type declaration at decls[idx] and its
// methods. When the declaration is immediately followed by all of the type's
// methods and the combined span fits maxLines, one chunk named after the
// type covers the whole group; otherwise the declaration becomes a
// `Type.<header>` chunk and each method gets its own chunk.
func (g goStrategy) chunkType(filePath, language string, lines []string, decls []goDecl, consumed []bool, idx int) []domain.CodeChunk {
	t := decls[idx]

	// Indexes of this type's methods appearing after the declaration.
	var methods []int
	for j := idx + 1; j < len(decls); j++ {
		if !decls[j].isType && decls[j].typeName == t.typeName {
			methods = append(methods, j)
		}
	}

	if len(methods) == 0 {
		consumed[idx] = true
		return []domain.CodeChunk{{
			FilePath:  filePath,
			Symbol:    t.symbol,
			Code:      joinRange(lines, t.start, t.end),
			Language:  language,
			StartLine: t.start,
			EndLine:   t.end,
		}}
	}

	// The group is mergeable only when nothing else is declared between the
	// type and its last method.
	last := methods[len(methods)-1]
	contiguous := last == idx+len(methods)
	span := decls[last].end - t.start + 1

	if contiguous && span <= g.maxLines {
		consumed[idx] = true
		for _, j := range methods {
			consumed[j] = true
		}
		return []domain.CodeChunk{{
			FilePath:  filePath,
			Symbol:    t.symbol,
			Code:      joinRange(lines, t.start, decls[last].end),
			Language:  language,
			StartLine: t.start,
			EndLine:   decls[last].end,
		}}
	}

	// Split form: declaration as header, methods on their own. Methods are
	// left unconsumed so they are emitted in file order by the caller.
	consumed[idx] = true
	return []domain.CodeChunk{{
		FilePath:  filePath,
		Symbol:    t.typeName + ".<header>",
		Code:      joinRange(lines, t.start, t.end),
		Language:  language,
		StartLine: t.start,
		EndLine:   t.end,
	}}
}

// collectGoDecls walks top-level declarations in file order, resolving
// functions, methods, and type declarations to line ranges.
func collectGoDecls(fset *token.FileSet, file *ast.File) []goDecl {
	var decls []goDecl

	for _, d := range file.Decls {
		switch node := d.(type) {
		case *ast.FuncDecl:
			start := fset.Position(node.Pos()).Line
			end := fset.Position(node.End()).Line
			if node.Recv != nil && len(node.Recv.List) > 0 {
				recv := receiverTypeName(node.Recv.List[0].Type)
				decls = append(decls, goDecl{
					symbol:   recv + "." + node.Name.Name,
					typeName: recv,
					start:    start,
					end:      end,
				})
			} else {
				decls = append(decls, goDecl{symbol: node.Name.Name, start: start, end: end})
			}

		case *ast.GenDecl:
			if node.Tok != token.TYPE {
				continue
			}
			if len(node.Specs) == 1 {
				spec := node.Specs[0].(*ast.TypeSpec)
				decls = append(decls, goDecl{
					symbol:   spec.Name.Name,
					typeName: spec.Name.Name,
					isType:   true,
					start:    fset.Position(node.Pos()).Line,
					end:      fset.Position(node.End()).Line,
				})
				continue
			}
			// Grouped type ( ... ) declaration: one entry per spec, ranged
			// to the spec itself.
			for _, s := range node.Specs {
				spec, ok := s.(*ast.TypeSpec)
				if !ok {
					continue
				}
				decls = append(decls, goDecl{
					symbol:   spec.Name.Name,
					typeName: spec.Name.Name,
					isType:   true,
					start:    fset.Position(spec.Pos()).Line,
					end:      fset.Position(spec.End()).Line,
				})
			}
		}
	}

	return decls
}

// receiverTypeName unwraps pointer and generic receivers to the base type name.
func receiverTypeName(expr ast.Expr) string {
	for {
		switch t := expr.(type) {
		case *ast.StarExpr:
			expr = t.X
		case *ast.IndexExpr:
			expr = t.X
		case *ast.IndexListExpr:
			expr = t.X
		case *ast.Ident:
			return t.Name
		default:
			return domain.SymbolAnonymous
		}
	}
}
