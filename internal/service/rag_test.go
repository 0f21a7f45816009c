package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codecontext-ai/codecontext/internal/port"
)

// recordingProvider captures the last generation request.
type recordingProvider struct {
	response    string
	prompt      string
	temperature float64
	maxTokens   int
}

func (r *recordingProvider) ModelName() string { return "recording-model" }

func (r *recordingProvider) Generate(_ context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	r.prompt = prompt
	r.temperature = temperature
	r.maxTokens = maxTokens
	return r.response, nil
}

func newTestRAG(p port.GenerationProvider) *RAGService {
	return NewRAGService(port.GenerationRegistry{"ollama": p}, "ollama", 0.7, 0.2)
}

func TestAskQuestionUsesChatSettings(t *testing.T) {
	provider := &recordingProvider{response: "the answer"}
	svc := newTestRAG(provider)

	answer, err := svc.AskQuestion(context.Background(), "", "--- [1] a.go (go) ---\ncode", "what does a.go do?")
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)

	assert.Equal(t, 0.7, provider.temperature)
	assert.Equal(t, chatMaxTokens, provider.maxTokens)
	assert.Contains(t, provider.prompt, "--- [1] a.go (go) ---")
	assert.Contains(t, provider.prompt, "what does a.go do?")
	assert.Contains(t, provider.prompt, "expert code analyst")
}

func TestGenerateEditUsesCodeSettings(t *testing.T) {
	provider := &recordingProvider{response: "modified content"}
	svc := newTestRAG(provider)

	result, err := svc.GenerateEdit(context.Background(), "ollama", "ctx", "main.go", "package main", "add a comment")
	require.NoError(t, err)
	assert.Equal(t, "modified content", result)

	assert.Equal(t, 0.2, provider.temperature)
	assert.Equal(t, editMaxTokens, provider.maxTokens)
	assert.Contains(t, provider.prompt, "File to modify: main.go")
	assert.Contains(t, provider.prompt, "add a comment")
	assert.Contains(t, provider.prompt, "COMPLETE modified file content")
}

func TestGenerateEditStripsFences(t *testing.T) {
	provider := &recordingProvider{response: "```go\npackage main\n\nfunc main() {}\n```"}
	svc := newTestRAG(provider)

	result, err := svc.GenerateEdit(context.Background(), "", "ctx", "main.go", "package main", "edit")
	require.NoError(t, err)
	assert.Equal(t, "package main\n\nfunc main() {}", result)
}

func TestUnknownProvider(t *testing.T) {
	svc := newTestRAG(&recordingProvider{})

	_, err := svc.AskQuestion(context.Background(), "nope", "ctx", "q")
	require.Error(t, err)
	assert.True(t, errors.Is(err, port.ErrProviderNotFound))
}

func TestDefaultProviderFallback(t *testing.T) {
	provider := &recordingProvider{response: "ok"}
	svc := newTestRAG(provider)

	answer, err := svc.AskQuestion(context.Background(), "", "ctx", "q")
	require.NoError(t, err)
	assert.Equal(t, "ok", answer)
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"no fences", "plain code", "plain code"},
		{"language fence", "```python\nprint(1)\n```", "print(1)"},
		{"bare fence", "```\nx = 1\n```", "x = 1"},
		{"unclosed fence", "```go\nfunc f() {}", "func f() {}"},
		{"surrounding whitespace", "  ```\ncode\n```  ", "code"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, stripFences(tc.in))
		})
	}
}
