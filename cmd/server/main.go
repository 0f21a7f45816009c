package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/codecontext-ai/codecontext/internal/adapter/ai"
	"github.com/codecontext-ai/codecontext/internal/adapter/repofs"
	"github.com/codecontext-ai/codecontext/internal/adapter/store"
	"github.com/codecontext-ai/codecontext/internal/adapter/vcs"
	"github.com/codecontext-ai/codecontext/internal/chunker"
	"github.com/codecontext-ai/codecontext/internal/embed"
	"github.com/codecontext-ai/codecontext/internal/handler"
	"github.com/codecontext-ai/codecontext/internal/middleware"
	"github.com/codecontext-ai/codecontext/internal/port"
	"github.com/codecontext-ai/codecontext/internal/service"
	"github.com/codecontext-ai/codecontext/pkg/config"

	_ "github.com/lib/pq"
)

const version = "0.1.0"

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting CodeContext AI",
		"port", cfg.Port,
		"ollama_embed", cfg.OllamaEmbedURL,
		"ollama_chat", cfg.OllamaChatURL,
	)

	// ── Database ─────────────────────────────────────────────────────────
	pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()

	vectorStore := store.NewVectorStore(cfg.VectorDataDir)

	// ── Adapters ─────────────────────────────────────────────────────────
	ollamaAI := ai.NewOllamaProvider(
		ai.OllamaEndpointConfig{
			BaseURL: cfg.OllamaEmbedURL,
			Model:   cfg.OllamaEmbedModel,
			Token:   cfg.OllamaEmbedToken,
		},
		ai.OllamaEndpointConfig{
			BaseURL: cfg.OllamaChatURL,
			Model:   cfg.OllamaChatModel,
			Token:   cfg.OllamaChatToken,
		},
	)
	gitVCS := vcs.NewGitProvider()
	scanner := repofs.NewScanner(cfg.IgnoredDirs, cfg.AllowedExtensions, cfg.MaxFileBytes)

	// ── Generation providers ────────────────────────────────────────────
	providers := port.GenerationRegistry{"ollama": ollamaAI}
	catalog := []handler.ProviderInfo{
		{ID: "ollama", Name: "Ollama", Model: cfg.OllamaChatModel},
	}
	if cfg.GrokAPIKey != "" {
		providers["grok"] = ai.NewOpenAICompatProvider(cfg.GrokAPIKey, cfg.GrokBaseURL, cfg.GrokModel)
		catalog = append(catalog, handler.ProviderInfo{ID: "grok", Name: "xAI Grok", Model: cfg.GrokModel})
	}
	if cfg.KimiAPIKey != "" {
		providers["kimi"] = ai.NewOpenAICompatProvider(cfg.KimiAPIKey, cfg.KimiBaseURL, cfg.KimiModel)
		catalog = append(catalog, handler.ProviderInfo{ID: "kimi", Name: "Kimi", Model: cfg.KimiModel})
	}

	// ── Pipeline components ─────────────────────────────────────────────
	chunkEngine := chunker.New(chunker.Config{
		MaxChunkLines: cfg.MaxChunkLines,
		WindowLines:   cfg.FallbackChunkLines,
		OverlapLines:  cfg.FallbackOverlap,
	})
	embedder := embed.New(ollamaAI, cfg.EmbeddingBatchSize)

	// ── Services ─────────────────────────────────────────────────────────
	ingestService := service.NewIngestService(pgStore, vectorStore, scanner, chunkEngine, embedder)
	retrievalService := service.NewRetrievalService(embedder, vectorStore, cfg.DefaultTopK)
	ragService := service.NewRAGService(providers, "ollama", cfg.ChatTemperature, cfg.CodeTemperature)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		BodyLimit:    200 * 1024 * 1024, // ZIP uploads
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	// Audit middleware (logs all requests)
	app.Use(middleware.AuditMiddleware(pgStore))

	// ── Routes ───────────────────────────────────────────────────────────
	api := app.Group("/api")

	infoHandler := handler.NewInfoHandler(cfg.AppName, version, catalog, "ollama")
	infoHandler.Register(app, api)

	jobTracker := handler.NewJobTracker()

	uploadHandler := handler.NewUploadHandler(pgStore, gitVCS, ingestService, jobTracker, cfg.ReposDir)
	uploadHandler.Register(api)

	projectHandler := handler.NewProjectHandler(pgStore, vectorStore, scanner)
	projectHandler.Register(api)

	chatHandler := handler.NewChatHandler(pgStore, retrievalService, ragService)
	chatHandler.Register(api)

	editHandler := handler.NewEditHandler(pgStore, retrievalService, ragService, scanner)
	editHandler.Register(api)

	jobsHandler := handler.NewJobsHandler(jobTracker)
	jobsHandler.Register(api)

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
