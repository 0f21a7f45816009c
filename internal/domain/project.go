package domain

import "time"

// Project represents an uploaded source repository being indexed for
// semantic search.
type Project struct {
	ID          int64     `json:"id"           db:"id"`
	Name        string    `json:"name"         db:"name"`
	SourceType  string    `json:"source_type"  db:"source_type"` // "github" or "zip"
	SourceURL   string    `json:"source_url"   db:"source_url"`
	RepoPath    string    `json:"-"            db:"repo_path"`
	Status      string    `json:"status"       db:"status"`
	TotalFiles  int       `json:"total_files"  db:"total_files"`
	TotalChunks int       `json:"total_chunks" db:"total_chunks"`
	CreatedAt   time.Time `json:"created_at"   db:"created_at"`
}

// Project status constants. Ingestion moves processing → ready or
// processing → error; both are terminal.
const (
	ProjectStatusProcessing = "processing"
	ProjectStatusReady      = "ready"
	ProjectStatusError      = "error"
)

// ChatMessage is one turn of a project's Q&A history.
type ChatMessage struct {
	ID        int64        `json:"id"         db:"id"`
	ProjectID int64        `json:"project_id" db:"project_id"`
	Role      string       `json:"role"       db:"role"` // "user" or "assistant"
	Content   string       `json:"content"    db:"content"`
	Sources   []ChatSource `json:"sources"    db:"sources"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// ChatSource points at a file the assistant drew on for an answer.
type ChatSource struct {
	FilePath  string `json:"file_path"`
	Symbol    string `json:"symbol"`
	Language  string `json:"language"`
	StartLine int    `json:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
}
