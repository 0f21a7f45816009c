package handler

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/codecontext-ai/codecontext/internal/adapter/repofs"
	"github.com/codecontext-ai/codecontext/internal/adapter/store"
	"github.com/codecontext-ai/codecontext/internal/domain"
	"github.com/codecontext-ai/codecontext/internal/port"
	"github.com/codecontext-ai/codecontext/internal/service"
)

// UploadHandler handles repository uploads via GitHub clone or ZIP archive.
type UploadHandler struct {
	store   *store.PostgresStore
	vcs     port.VCSProvider
	ingest  *service.IngestService
	tracker *JobTracker
	repos   string // workspace root for cloned/extracted repos
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(st *store.PostgresStore, vcs port.VCSProvider, ingest *service.IngestService, tracker *JobTracker, reposDir string) *UploadHandler {
	return &UploadHandler{
		store:   st,
		vcs:     vcs,
		ingest:  ingest,
		tracker: tracker,
		repos:   reposDir,
	}
}

// Register sets up upload routes.
func (h *UploadHandler) Register(api fiber.Router) {
	upload := api.Group("/upload")
	upload.Post("/github", h.UploadGitHub)
	upload.Post("/zip", h.UploadZip)
}

// UploadGitHub clones a repository and starts background processing.
func (h *UploadHandler) UploadGitHub(c fiber.Ctx) error {
	var body struct {
		URL string `json:"url" form:"url"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	url := strings.TrimSpace(body.URL)
	if !strings.HasPrefix(url, "https://") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Only HTTPS GitHub URLs are supported."})
	}

	dest := h.workspaceDir()
	if err := h.vcs.Clone(c.Context(), url, dest); err != nil {
		slog.Error("clone failed", "url", url, "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to clone repository"})
	}

	name := strings.TrimSuffix(filepath.Base(strings.TrimRight(url, "/")), ".git")

	project, err := h.createAndProcess(c, name, "github", url, dest)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"project_id": project.ID,
		"name":       project.Name,
		"status":     project.Status,
		"job_id":     project.JobID,
		"message":    "Repository cloned. Processing started in background.",
	})
}

// UploadZip extracts an uploaded ZIP archive and starts background processing.
func (h *UploadHandler) UploadZip(c fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing file upload"})
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".zip") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Please upload a .zip file."})
	}

	f, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to open upload"})
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to read upload"})
	}

	repoPath, err := repofs.ExtractZip(content, h.workspaceDir())
	if err != nil {
		slog.Error("zip extraction failed", "filename", fileHeader.Filename, "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to extract ZIP"})
	}

	name := strings.TrimSuffix(fileHeader.Filename, ".zip")

	project, err := h.createAndProcess(c, name, "zip", "", repoPath)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"project_id": project.ID,
		"name":       project.Name,
		"status":     project.Status,
		"job_id":     project.JobID,
		"message":    "ZIP extracted. Processing started in background.",
	})
}

type createdProject struct {
	ID     int64
	Name   string
	Status string
	JobID  string
}

func (h *UploadHandler) createAndProcess(c fiber.Ctx, name, sourceType, sourceURL, repoPath string) (*createdProject, error) {
	project, err := h.store.CreateProject(c.Context(), &domain.Project{
		Name:       name,
		SourceType: sourceType,
		SourceURL:  sourceURL,
		RepoPath:   repoPath,
		Status:     domain.ProjectStatusProcessing,
	})
	if err != nil {
		slog.Error("create project failed", "name", name, "error", err)
		return nil, err
	}

	jobID := uuid.New().String()
	h.tracker.CreateJob(jobID, project.ID)

	progress := func(stage, message string) {
		h.tracker.UpdateJob(jobID, stage, message)
	}
	go func() {
		err := h.ingest.Ingest(context.Background(), project.ID, repoPath, progress)
		h.tracker.CompleteJob(jobID, err)
	}()

	return &createdProject{
		ID:     project.ID,
		Name:   project.Name,
		Status: project.Status,
		JobID:  jobID,
	}, nil
}

func (h *UploadHandler) workspaceDir() string {
	dir := filepath.Join(h.repos, uuid.New().String()[:8])
	_ = os.MkdirAll(dir, 0o755)
	return dir
}
