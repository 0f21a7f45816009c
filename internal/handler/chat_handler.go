package handler

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/codecontext-ai/codecontext/internal/adapter/store"
	"github.com/codecontext-ai/codecontext/internal/domain"
	"github.com/codecontext-ai/codecontext/internal/port"
	"github.com/codecontext-ai/codecontext/internal/service"
)

// ChatHandler handles project Q&A and chat history.
type ChatHandler struct {
	store     *store.PostgresStore
	retrieval *service.RetrievalService
	rag       *service.RAGService
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(st *store.PostgresStore, retrieval *service.RetrievalService, rag *service.RAGService) *ChatHandler {
	return &ChatHandler{store: st, retrieval: retrieval, rag: rag}
}

// Register sets up chat routes.
func (h *ChatHandler) Register(api fiber.Router) {
	chat := api.Group("/chat")
	chat.Post("/:id", h.Ask)
	chat.Get("/:id/history", h.History)
}

// Ask answers a question about a project's codebase.
func (h *ChatHandler) Ask(c fiber.Ctx) error {
	project, ok := h.lookupReady(c)
	if !ok {
		return nil
	}

	var body struct {
		Question string `json:"question"`
		Provider string `json:"provider"`
	}
	if err := c.Bind().JSON(&body); err != nil || body.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "question is required"})
	}

	slog.Info("chat question", "project_id", project.ID, "provider", body.Provider)

	chunks, err := h.retrieval.Retrieve(c.Context(), project.ID, body.Question, 0)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	contextBlock := h.retrieval.BuildContext(chunks)

	answer, err := h.rag.AskQuestion(c.Context(), body.Provider, contextBlock, body.Question)
	if err != nil {
		if errors.Is(err, port.ErrProviderNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		slog.Error("LLM call failed", "project_id", project.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "LLM call failed"})
	}

	sources := dedupeSources(chunks)

	userMsg := &domain.ChatMessage{ProjectID: project.ID, Role: "user", Content: body.Question}
	assistantMsg := &domain.ChatMessage{ProjectID: project.ID, Role: "assistant", Content: answer, Sources: sources}
	if err := h.store.InsertChatMessage(c.Context(), userMsg); err != nil {
		slog.Warn("failed to persist chat message", "project_id", project.ID, "error", err)
	}
	if err := h.store.InsertChatMessage(c.Context(), assistantMsg); err != nil {
		slog.Warn("failed to persist chat message", "project_id", project.ID, "error", err)
	}

	return c.JSON(fiber.Map{"answer": answer, "sources": sources})
}

// History returns the chat history for a project, oldest first.
func (h *ChatHandler) History(c fiber.Ctx) error {
	project, ok := h.lookup(c)
	if !ok {
		return nil
	}

	messages, err := h.store.ListChatMessages(c.Context(), project.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(messages)
}

// dedupeSources keeps the first retrieved chunk per file, preserving rank order.
func dedupeSources(chunks []domain.RetrievedChunk) []domain.ChatSource {
	sources := make([]domain.ChatSource, 0, len(chunks))
	seen := make(map[string]struct{}, len(chunks))
	for _, chunk := range chunks {
		if _, ok := seen[chunk.FilePath]; ok {
			continue
		}
		seen[chunk.FilePath] = struct{}{}
		sources = append(sources, domain.ChatSource{
			FilePath:  chunk.FilePath,
			Symbol:    chunk.Symbol,
			Language:  chunk.Language,
			StartLine: chunk.StartLine,
			EndLine:   chunk.EndLine,
		})
	}
	return sources
}

func (h *ChatHandler) lookup(c fiber.Ctx) (*domain.Project, bool) {
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

func (h *ChatHandler) lookupReady(c fiber.Ctx) (*domain.Project, bool) {
	project, ok := h.lookup(c)
	if !ok {
		return nil, false
	}
	if project.Status != domain.ProjectStatusReady {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Project is still " + project.Status + ". Please wait.",
		})
		return nil, false
	}
	return project, true
}
