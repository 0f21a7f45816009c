package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/codecontext-ai/codecontext/internal/domain"
	"github.com/codecontext-ai/codecontext/internal/port"
)

// PostgresStore handles all relational database operations: project
// bookkeeping, chunk mirror rows, chat history, and audit logs.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection, ensures the schema, and returns a
// store instance.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreFromDB wraps an already-open connection. The caller owns
// the connection lifecycle and the schema.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			source_type VARCHAR(20) NOT NULL,
			source_url VARCHAR(500) NOT NULL DEFAULT '',
			repo_path VARCHAR(500) NOT NULL,
			status VARCHAR(50) NOT NULL DEFAULT 'processing',
			total_files INT NOT NULL DEFAULT 0,
			total_chunks INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id BIGSERIAL PRIMARY KEY,
			project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			file_path VARCHAR(500) NOT NULL,
			symbol VARCHAR(255) NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			language VARCHAR(50) NOT NULL,
			start_line INT,
			end_line INT,
			chunk_index INT NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_project ON chunks(project_id)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id BIGSERIAL PRIMARY KEY,
			project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			role VARCHAR(20) NOT NULL,
			content TEXT NOT NULL,
			sources JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id BIGSERIAL PRIMARY KEY,
			action VARCHAR(100) NOT NULL,
			resource VARCHAR(100) NOT NULL,
			resource_id VARCHAR(255) NOT NULL DEFAULT '',
			details JSONB,
			ip VARCHAR(64) NOT NULL DEFAULT '',
			user_agent VARCHAR(500) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// --- Projects ---

// CreateProject inserts a new project record in processing state.
func (s *PostgresStore) CreateProject(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	query := `INSERT INTO projects (name, source_type, source_url, repo_path, status)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, name, source_type, source_url, repo_path, status, total_files, total_chunks, created_at`

	var project domain.Project
	err := s.db.QueryRowContext(ctx, query,
		p.Name, p.SourceType, p.SourceURL, p.RepoPath, p.Status,
	).Scan(
		&project.ID, &project.Name, &project.SourceType, &project.SourceURL,
		&project.RepoPath, &project.Status, &project.TotalFiles, &project.TotalChunks,
		&project.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &project, nil
}

// GetProjectByID returns a project or port.ErrProjectNotFound.
func (s *PostgresStore) GetProjectByID(ctx context.Context, id int64) (*domain.Project, error) {
	query := `SELECT id, name, source_type, source_url, repo_path, status, total_files, total_chunks, created_at
	          FROM projects WHERE id = $1`

	var p domain.Project
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.SourceType, &p.SourceURL, &p.RepoPath,
		&p.Status, &p.TotalFiles, &p.TotalChunks, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

// ListProjects returns all projects, newest first.
func (s *PostgresStore) ListProjects(ctx context.Context) ([]domain.Project, error) {
	query := `SELECT id, name, source_type, source_url, repo_path, status, total_files, total_chunks, created_at
	          FROM projects ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(
			&p.ID, &p.Name, &p.SourceType, &p.SourceURL, &p.RepoPath,
			&p.Status, &p.TotalFiles, &p.TotalChunks, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProjectStatus sets a project's status.
func (s *PostgresStore) UpdateProjectStatus(ctx context.Context, id int64, status string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE projects SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	return nil
}

// CompleteProject records ingestion totals and marks the project ready.
func (s *PostgresStore) CompleteProject(ctx context.Context, id int64, totalFiles, totalChunks int) error {
	query := `UPDATE projects SET status = $2, total_files = $3, total_chunks = $4 WHERE id = $1`
	_, err := s.db.ExecContext(ctx, query, id, domain.ProjectStatusReady, totalFiles, totalChunks)
	if err != nil {
		return fmt.Errorf("complete project: %w", err)
	}
	return nil
}

// DeleteProject removes a project row; chunk and chat rows cascade.
func (s *PostgresStore) DeleteProject(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

// --- Chunks ---

// InsertChunks persists the relational mirror rows for a project's chunks,
// in chunk order, inside one transaction.
func (s *PostgresStore) InsertChunks(ctx context.Context, projectID int64, chunks []domain.CodeChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (project_id, file_path, symbol, content, language, start_line, end_line, chunk_index)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		if _, err := stmt.ExecContext(ctx,
			projectID, c.FilePath, c.Symbol, c.Code, c.Language,
			nullableLine(c.StartLine), nullableLine(c.EndLine), i,
		); err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func nullableLine(n int) sql.NullInt64 {
	if n <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(n), Valid: true}
}

// --- Chat history ---

// InsertChatMessage appends one message to a project's chat history.
func (s *PostgresStore) InsertChatMessage(ctx context.Context, m *domain.ChatMessage) error {
	var sources any
	if len(m.Sources) > 0 {
		data, err := json.Marshal(m.Sources)
		if err != nil {
			return fmt.Errorf("encode sources: %w", err)
		}
		sources = data
	}

	query := `INSERT INTO chat_messages (project_id, role, content, sources) VALUES ($1, $2, $3, $4)`
	if _, err := s.db.ExecContext(ctx, query, m.ProjectID, m.Role, m.Content, sources); err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

// ListChatMessages returns a project's chat history, oldest first.
func (s *PostgresStore) ListChatMessages(ctx context.Context, projectID int64) ([]domain.ChatMessage, error) {
	query := `SELECT id, project_id, role, content, COALESCE(sources::text, ''), created_at
	          FROM chat_messages WHERE project_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		var sources string
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Role, &m.Content, &sources, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		if sources != "" {
			if err := json.Unmarshal([]byte(sources), &m.Sources); err != nil {
				return nil, fmt.Errorf("decode sources: %w", err)
			}
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// --- Audit ---

// WriteAudit records one audit row. Satisfies middleware.AuditWriter.
func (s *PostgresStore) WriteAudit(action, resource, resourceID, details, ip, userAgent string) error {
	query := `INSERT INTO audit_logs (action, resource, resource_id, details, ip, user_agent)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := s.db.Exec(query, action, resource, resourceID, details, ip, userAgent); err != nil {
		return fmt.Errorf("write audit: %w", err)
	}
	return nil
}
