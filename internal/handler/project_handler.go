package handler

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/codecontext-ai/codecontext/internal/adapter/repofs"
	"github.com/codecontext-ai/codecontext/internal/adapter/store"
	"github.com/codecontext-ai/codecontext/internal/domain"
	"github.com/codecontext-ai/codecontext/internal/port"
)

// ProjectHandler handles project listing, inspection, and deletion.
type ProjectHandler struct {
	store   *store.PostgresStore
	vectors *store.VectorStore
	scanner *repofs.Scanner
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(st *store.PostgresStore, vectors *store.VectorStore, scanner *repofs.Scanner) *ProjectHandler {
	return &ProjectHandler{store: st, vectors: vectors, scanner: scanner}
}

// Register sets up project routes.
func (h *ProjectHandler) Register(api fiber.Router) {
	projects := api.Group("/projects")
	projects.Get("/", h.List)
	projects.Get("/:id", h.Get)
	projects.Get("/:id/file", h.GetFile)
	projects.Delete("/:id", h.Delete)
}

// List returns all projects, newest first.
func (h *ProjectHandler) List(c fiber.Ctx) error {
	projects, err := h.store.ListProjects(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(projects)
}

// Get returns project details, including the file tree when the project is ready.
func (h *ProjectHandler) Get(c fiber.Ctx) error {
	project, ok := h.lookup(c)
	if !ok {
		return nil
	}

	result := fiber.Map{
		"id":           project.ID,
		"name":         project.Name,
		"source_type":  project.SourceType,
		"source_url":   project.SourceURL,
		"status":       project.Status,
		"total_files":  project.TotalFiles,
		"total_chunks": project.TotalChunks,
		"created_at":   project.CreatedAt,
	}

	if project.Status == domain.ProjectStatusReady {
		if info, err := os.Stat(project.RepoPath); err == nil && info.IsDir() {
			tree, err := h.scanner.FileTree(project.RepoPath)
			if err == nil {
				result["file_tree"] = tree
			}
		}
	}

	return c.JSON(result)
}

// GetFile reads a single file from the project workspace.
func (h *ProjectHandler) GetFile(c fiber.Ctx) error {
	project, ok := h.lookup(c)
	if !ok {
		return nil
	}

	path := c.Query("path")
	if path == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing path parameter"})
	}

	content, err := h.scanner.ReadFile(project.RepoPath, path)
	if err != nil {
		if strings.Contains(err.Error(), "escapes") {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Access denied."})
		}
		if errors.Is(err, port.ErrFileNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "File not found."})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read file."})
	}

	language := repofs.LanguageFor(filepath.Base(path))
	if language == "unknown" {
		language = "text"
	}

	return c.JSON(fiber.Map{"path": path, "content": content, "language": language})
}

// Delete removes a project: chunks, chat history, vectors, and workspace files.
func (h *ProjectHandler) Delete(c fiber.Ctx) error {
	project, ok := h.lookup(c)
	if !ok {
		return nil
	}

	if err := h.vectors.Delete(project.ID); err != nil {
		slog.Warn("failed to delete vector collection", "project_id", project.ID, "error", err)
	}

	if err := h.store.DeleteProject(c.Context(), project.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if project.RepoPath != "" {
		if err := os.RemoveAll(project.RepoPath); err != nil {
			slog.Warn("failed to remove workspace", "project_id", project.ID, "path", project.RepoPath, "error", err)
		}
	}

	slog.Info("project deleted", "project_id", project.ID, "name", project.Name)
	return c.JSON(fiber.Map{"message": "Project deleted.", "project_id": project.ID})
}

// lookup resolves the :id param to a project, writing the error response itself.
func (h *ProjectHandler) lookup(c fiber.Ctx) (*domain.Project, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid project id"})
		return nil, false
	}

	project, err := h.store.GetProjectByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, port.ErrProjectNotFound) {
			_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Project not found."})
		} else {
			_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return nil, false
	}
	return project, true
}
