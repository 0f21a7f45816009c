package repofs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codecontext-ai/codecontext/internal/port"
)

func testScanner() *Scanner {
	return NewScanner(
		[]string{"node_modules", "vendor", "dist"},
		[]string{".go", ".js", ".md"},
		500_000,
	)
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestDiscoverFilesFiltersAndDetectsLanguage(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "web/app.js", "console.log(1);\n")
	writeFile(t, root, "README.md", "# readme\n")
	writeFile(t, root, "image.png", "binary")
	writeFile(t, root, "node_modules/pkg/index.js", "ignored")
	writeFile(t, root, ".git/config", "ignored")

	files, err := testScanner().DiscoverFiles(root)
	require.NoError(t, err)

	byPath := map[string]string{}
	for _, f := range files {
		byPath[f.RelativePath] = f.Language
	}

	assert.Equal(t, map[string]string{
		"main.go":    "go",
		"web/app.js": "javascript",
		"README.md":  "markdown",
	}, byPath)
}

func TestDiscoverFilesMasksEnvValues(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".env", "# secrets\nAPI_KEY=hunter2\n\nDB_URL=postgres://u:p@h/db\n")

	files, err := testScanner().DiscoverFiles(root)
	require.NoError(t, err)
	require.Len(t, files, 1)

	assert.Equal(t, "env", files[0].Language)
	assert.NotContains(t, files[0].Content, "hunter2")
	assert.Contains(t, files[0].Content, "API_KEY=***MASKED***")
	assert.Contains(t, files[0].Content, "# secrets")
	assert.Contains(t, files[0].Content, "DB_URL=***MASKED***")
}

func TestDiscoverFilesSkipsLargeFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "big.go", strings.Repeat("x", 600_000))
	writeFile(t, root, "small.go", "package small\n")

	files, err := testScanner().DiscoverFiles(root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "small.go", files[0].RelativePath)
}

func TestReadFileBlocksTraversal(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ok.go", "package ok\n")

	s := testScanner()

	content, err := s.ReadFile(root, "ok.go")
	require.NoError(t, err)
	assert.Equal(t, "package ok\n", content)

	_, err = s.ReadFile(root, "../outside.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes")
}

func TestReadFileMissingReturnsSentinel(t *testing.T) {
	_, err := testScanner().ReadFile(t.TempDir(), "absent.go")
	require.Error(t, err)
	assert.ErrorIs(t, err, port.ErrFileNotFound)
	assert.Contains(t, err.Error(), "absent.go")
}

func TestReadFileMasksEnv(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".env", "TOKEN=abc123\n")

	content, err := testScanner().ReadFile(root, ".env")
	require.NoError(t, err)
	assert.Equal(t, "TOKEN=***MASKED***", strings.TrimSpace(content))
}

func TestMaskEnvContent(t *testing.T) {
	in := "# comment\nKEY=value\n\nOTHER = spaced\nnoequals"
	out := MaskEnvContent(in)

	assert.Contains(t, out, "# comment")
	assert.Contains(t, out, "KEY=***MASKED***")
	assert.Contains(t, out, "noequals")
	assert.NotContains(t, out, "value")
	assert.NotContains(t, out, "spaced")
}

func TestFileTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "docs/guide.md", "# guide\n")
	writeFile(t, root, "docs/diagram.png", "binary")
	writeFile(t, root, "vendor/dep.go", "ignored")

	tree, err := testScanner().FileTree(root)
	require.NoError(t, err)
	require.Equal(t, "directory", tree.Type)
	require.Len(t, tree.Children, 2)

	// Entries are sorted: docs/ before main.go.
	docs := tree.Children[0]
	assert.Equal(t, "docs", docs.Name)
	require.Len(t, docs.Children, 1)
	assert.Equal(t, "guide.md", docs.Children[0].Name)
	assert.Equal(t, "docs/guide.md", docs.Children[0].Path)
	assert.Equal(t, "markdown", docs.Children[0].Language)

	assert.Equal(t, "main.go", tree.Children[1].Name)
}
