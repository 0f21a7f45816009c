package repofs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codecontext-ai/codecontext/internal/domain"
)

// FileTree builds a nested directory tree of the repository, restricted to
// directories and files the scanner would ingest.
func (s *Scanner) FileTree(root string) (*domain.TreeNode, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve repo root: %w", err)
	}

	tree := &domain.TreeNode{
		Name:     filepath.Base(absRoot),
		Type:     "directory",
		Children: []*domain.TreeNode{},
	}
	s.buildTree(absRoot, absRoot, tree)
	return tree, nil
}

func (s *Scanner) buildTree(root, current string, node *domain.TreeNode) {
	entries, err := os.ReadDir(current)
	if err != nil {
		return
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		name := entry.Name()
		full := filepath.Join(current, name)

		if entry.IsDir() {
			if s.shouldIgnoreDir(name) {
				continue
			}
			child := &domain.TreeNode{Name: name, Type: "directory", Children: []*domain.TreeNode{}}
			s.buildTree(root, full, child)
			node.Children = append(node.Children, child)
			continue
		}

		ext := strings.ToLower(filepath.Ext(name))
		if !s.allowedExt(ext) && !isEnvFile(name) {
			continue
		}
		node.Children = append(node.Children, &domain.TreeNode{
			Name:     name,
			Type:     "file",
			Path:     relSlash(root, full),
			Language: LanguageFor(name),
		})
	}
}
