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
	"github.com/codecontext-ai/codecontext/internal/service"
)

// EditHandler handles AI-driven file modification and patch generation.
type EditHandler struct {
	store     *store.PostgresStore
	retrieval *service.RetrievalService
	rag       *service.RAGService
	scanner   *repofs.Scanner
}

// NewEditHandler creates a new edit handler.
func NewEditHandler(st *store.PostgresStore, retrieval *service.RetrievalService, rag *service.RAGService, scanner *repofs.Scanner) *EditHandler {
	return &EditHandler{store: st, retrieval: retrieval, rag: rag, scanner: scanner}
}

// Register sets up edit routes.
func (h *EditHandler) Register(api fiber.Router) {
	edit := api.Group("/edit")
	edit.Post("/:id", h.Edit)
	edit.Post("/:id/apply", h.Apply)
}

type editRequest struct {
	Instruction string `json:"instruction"`
	FilePath    string `json:"file_path"`
	Provider    string `json:"provider"`
}

// Edit generates a modified version of a file plus a unified diff, without
// touching the workspace.
func (h *EditHandler) Edit(c fiber.Ctx) error {
	project, req, ok := h.prepare(c)
	if !ok {
		return nil
	}

	original, modified, status, errMsg := h.generateEdit(c, project, req)
	if errMsg != "" {
		return c.Status(status).JSON(fiber.Map{"error": errMsg})
	}

	patch, err := service.GeneratePatch(original, modified, req.FilePath)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"file_path":     req.FilePath,
		"original_code": original,
		"modified_code": modified,
		"patch":         patch,
	})
}

// Apply regenerates the edit and writes the modified content back to the
// workspace file.
func (h *EditHandler) Apply(c fiber.Ctx) error {
	project, req, ok := h.prepare(c)
	if !ok {
		return nil
	}

	_, modified, status, errMsg := h.generateEdit(c, project, req)
	if errMsg != "" {
		return c.Status(status).JSON(fiber.Map{"error": errMsg})
	}

	full := filepath.Join(project.RepoPath, filepath.FromSlash(req.FilePath))
	if err := os.WriteFile(full, []byte(modified), 0o644); err != nil {
		slog.Error("failed to write edited file", "project_id", project.ID, "path", req.FilePath, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to apply edit"})
	}

	slog.Info("edit applied", "project_id", project.ID, "path", req.FilePath)
	return c.JSON(fiber.Map{"message": "Edit applied successfully.", "file_path": req.FilePath})
}

func (h *EditHandler) generateEdit(c fiber.Ctx, project *domain.Project, req editRequest) (original, modified string, status int, errMsg string) {
	original, err := h.scanner.ReadFile(project.RepoPath, req.FilePath)
	if err != nil {
		if strings.Contains(err.Error(), "escapes") {
			return "", "", fiber.StatusForbidden, "Access denied."
		}
		if errors.Is(err, port.ErrFileNotFound) {
			return "", "", fiber.StatusNotFound, "File not found: " + req.FilePath
		}
		return "", "", fiber.StatusInternalServerError, "Failed to read file."
	}

	question := req.Instruction + " in " + req.FilePath
	chunks, err := h.retrieval.Retrieve(c.Context(), project.ID, question, 0)
	if err != nil {
		return "", "", fiber.StatusInternalServerError, err.Error()
	}
	contextBlock := h.retrieval.BuildContext(chunks)

	modified, err = h.rag.GenerateEdit(c.Context(), req.Provider, contextBlock, req.FilePath, original, req.Instruction)
	if err != nil {
		if errors.Is(err, port.ErrProviderNotFound) {
			return "", "", fiber.StatusBadRequest, err.Error()
		}
		slog.Error("LLM edit failed", "project_id", project.ID, "path", req.FilePath, "error", err)
		return "", "", fiber.StatusInternalServerError, "LLM call failed"
	}

	return original, modified, 0, ""
}

func (h *EditHandler) prepare(c fiber.Ctx) (*domain.Project, editRequest, bool) {
	var req editRequest

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid project id"})
		return nil, req, false
	}

	project, err := h.store.GetProjectByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, port.ErrProjectNotFound) {
			_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Project not found."})
		} else {
			_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return nil, req, false
	}
	if project.Status != domain.ProjectStatusReady {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Project is still " + project.Status + ". Please wait.",
		})
		return nil, req, false
	}

	if err := c.Bind().JSON(&req); err != nil || req.Instruction == "" || req.FilePath == "" {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "instruction and file_path are required"})
		return nil, req, false
	}

	return project, req, true
}
