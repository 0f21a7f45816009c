package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/codecontext-ai/codecontext/internal/port"
)

const (
	chatMaxTokens = 4096
	editMaxTokens = 8192
)

// RAGService routes retrieval-augmented prompts to a named generation provider.
type RAGService struct {
	providers       port.GenerationRegistry
	defaultProvider string
	chatTemperature float64
	codeTemperature float64
}

// NewRAGService creates a RAG service over the configured providers.
// defaultProvider is used when a request names no provider.
func NewRAGService(providers port.GenerationRegistry, defaultProvider string, chatTemp, codeTemp float64) *RAGService {
	return &RAGService{
		providers:       providers,
		defaultProvider: defaultProvider,
		chatTemperature: chatTemp,
		codeTemperature: codeTemp,
	}
}

// Providers lists the configured provider names.
func (s *RAGService) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	return names
}

func (s *RAGService) resolve(name string) (string, port.GenerationProvider, error) {
	if name == "" {
		name = s.defaultProvider
	}
	p, ok := s.providers[name]
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", port.ErrProviderNotFound, name)
	}
	return name, p, nil
}

// AskQuestion answers a question about the codebase using the given context block.
func (s *RAGService) AskQuestion(ctx context.Context, provider, contextBlock, question string) (string, error) {
	prompt := qaPrompt(contextBlock, question)
	return s.generate(ctx, provider, prompt, s.chatTemperature, chatMaxTokens)
}

// GenerateEdit asks the model for the complete modified content of a file.
// Markdown code fences in the response are stripped.
func (s *RAGService) GenerateEdit(ctx context.Context, provider, contextBlock, filePath, fileContent, instruction string) (string, error) {
	prompt := editPrompt(contextBlock, fileContent, filePath, instruction)
	result, err := s.generate(ctx, provider, prompt, s.codeTemperature, editMaxTokens)
	if err != nil {
		return "", err
	}
	return stripFences(result), nil
}

func (s *RAGService) generate(ctx context.Context, providerName, prompt string, temperature float64, maxTokens int) (string, error) {
	name, provider, err := s.resolve(providerName)
	if err != nil {
		return "", err
	}

	slog.Info("LLM call", "provider", name, "model", provider.ModelName(), "prompt_chars", len(prompt), "temperature", temperature)
	t0 := time.Now()

	result, err := provider.Generate(ctx, prompt, temperature, maxTokens)
	if err != nil {
		return "", fmt.Errorf("generate via %s: %w", name, err)
	}

	slog.Info("LLM responded", "provider", name, "elapsed", time.Since(t0), "response_chars", len(result))
	return result, nil
}

func qaPrompt(contextBlock, question string) string {
	return fmt.Sprintf(`You are an expert code analyst. You are analyzing a software project.
You have access to the following relevant code from the repository:

%s

---

User Question:
%s

---

Instructions:
- Answer the question based on the code above.
- Reference specific files and functions when relevant.
- If the code doesn't contain enough information to fully answer, say so.
- Use markdown formatting for clarity.
- Be concise but thorough.
`, contextBlock, question)
}

func editPrompt(contextBlock, fileContent, filePath, instruction string) string {
	return fmt.Sprintf("You are an expert software engineer. You need to modify a source file.\n\n"+
		"Here is relevant context from the project:\n\n%s\n\n---\n\n"+
		"File to modify: %s\n\n```\n%s\n```\n\n---\n\n"+
		"Modification instruction:\n%s\n\n---\n\n"+
		"IMPORTANT RULES:\n"+
		"1. Return the COMPLETE modified file content.\n"+
		"2. Do NOT omit any existing code unless the instruction specifically asks to remove it.\n"+
		"3. Do NOT add explanatory comments unless asked.\n"+
		"4. Return ONLY the code, no markdown code fences, no explanations before or after.\n"+
		"5. Preserve the original formatting style, indentation, and conventions.\n",
		contextBlock, filePath, fileContent, instruction)
}

// stripFences removes a wrapping markdown code fence, if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
