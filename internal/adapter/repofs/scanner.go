// Package repofs discovers, filters, and reads source files from an
// ingested repository workspace on disk.
package repofs

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/codecontext-ai/codecontext/internal/domain"
	"github.com/codecontext-ai/codecontext/internal/port"
)

// ExtensionLanguageMap maps file extensions to language identifiers.
var ExtensionLanguageMap = map[string]string{
	".py": "python", ".ts": "typescript", ".tsx": "typescript",
	".js": "javascript", ".jsx": "javascript", ".go": "go",
	".java": "java", ".json": "json", ".yaml": "yaml",
	".yml": "yaml", ".toml": "toml", ".md": "markdown",
	".rs": "rust", ".rb": "ruby", ".php": "php",
	".cs": "csharp", ".cpp": "cpp", ".c": "c",
	".h": "c", ".hpp": "cpp", ".swift": "swift", ".kt": "kotlin",
}

// LanguageFor returns the language identifier for a filename, or "unknown".
func LanguageFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if lang, ok := ExtensionLanguageMap[ext]; ok {
		return lang
	}
	return "unknown"
}

// Scanner walks repository workspaces applying the ignore/allow rules.
type Scanner struct {
	ignoredDirs  map[string]struct{}
	allowedExts  map[string]struct{}
	maxFileBytes int
}

// NewScanner creates a Scanner from the configured directory and extension lists.
func NewScanner(ignoredDirs, allowedExtensions []string, maxFileBytes int) *Scanner {
	s := &Scanner{
		ignoredDirs:  make(map[string]struct{}, len(ignoredDirs)),
		allowedExts:  make(map[string]struct{}, len(allowedExtensions)),
		maxFileBytes: maxFileBytes,
	}
	for _, d := range ignoredDirs {
		s.ignoredDirs[d] = struct{}{}
	}
	for _, e := range allowedExtensions {
		s.allowedExts[strings.ToLower(e)] = struct{}{}
	}
	return s
}

func (s *Scanner) shouldIgnoreDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	_, ok := s.ignoredDirs[name]
	return ok
}

func (s *Scanner) allowedExt(ext string) bool {
	_, ok := s.allowedExts[ext]
	return ok
}

func isEnvFile(name string) bool {
	return name == ".env" || strings.HasPrefix(name, ".env.")
}

// DiscoverFiles walks the repository root and returns every readable source
// file that passes the directory, extension, and size filters. Env files are
// included with their values masked.
func (s *Scanner) DiscoverFiles(root string) ([]domain.FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve repo root: %w", err)
	}

	var files []domain.FileInfo
	skipped := 0

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != absRoot && s.shouldIgnoreDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		ext := strings.ToLower(filepath.Ext(name))

		if isEnvFile(name) {
			content, readErr := os.ReadFile(path)
			if readErr != nil {
				return nil
			}
			files = append(files, domain.FileInfo{
				Path:         path,
				RelativePath: relSlash(absRoot, path),
				Language:     "env",
				Content:      MaskEnvContent(string(content)),
			})
			return nil
		}

		if !s.allowedExt(ext) {
			skipped++
			return nil
		}

		info, infoErr := d.Info()
		if infoErr == nil && info.Size() > int64(s.maxFileBytes) {
			slog.Warn("skipping large file", "path", path, "bytes", info.Size())
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			slog.Warn("failed to read file", "path", path, "error", readErr)
			return nil
		}
		if len(content) > s.maxFileBytes {
			slog.Warn("skipping large file", "path", path, "bytes", len(content))
			return nil
		}

		files = append(files, domain.FileInfo{
			Path:         path,
			RelativePath: relSlash(absRoot, path),
			Language:     LanguageFor(name),
			Content:      string(content),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk repo %s: %w", absRoot, err)
	}

	slog.Info("discovered source files", "count", len(files), "skipped_by_extension", skipped)
	return files, nil
}

// ReadFile returns the content of a single file inside the repository root,
// guarding against path traversal. Env files are returned masked. A missing
// file yields port.ErrFileNotFound.
func (s *Scanner) ReadFile(root, relativePath string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve repo root: %w", err)
	}

	full := filepath.Join(absRoot, filepath.FromSlash(relativePath))
	full, err = filepath.Abs(full)
	if err != nil {
		return "", fmt.Errorf("resolve file path: %w", err)
	}
	if full != absRoot && !strings.HasPrefix(full, absRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes repository root", relativePath)
	}

	content, err := os.ReadFile(full)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", port.ErrFileNotFound, relativePath)
	}
	if err != nil {
		return "", err
	}
	if isEnvFile(filepath.Base(full)) {
		return MaskEnvContent(string(content)), nil
	}
	return string(content), nil
}

// MaskEnvContent replaces every assigned value in env-style content with a
// masked placeholder, preserving comments and blank lines.
func MaskEnvContent(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "#") {
			continue
		}
		if idx := strings.Index(stripped, "="); idx > 0 {
			lines[i] = stripped[:idx] + "=***MASKED***"
		}
	}
	return strings.Join(lines, "\n")
}

func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
