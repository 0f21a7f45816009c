package domain

// FileInfo is a discovered source file, already filtered and readable, with
// secret values masked for .env-style files.
type FileInfo struct {
	Path         string // absolute path on disk
	RelativePath string // forward-slash path relative to the repo root
	Language     string // normalized language tag
	Content      string
}

// TreeNode is one entry of a project's nested file tree, for browsing.
type TreeNode struct {
	Name     string      `json:"name"`
	Type     string      `json:"type"` // "file" or "directory"
	Path     string      `json:"path,omitempty"`
	Language string      `json:"language,omitempty"`
	Children []*TreeNode `json:"children,omitempty"`
}
