package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, "CodeContext AI", cfg.AppName)
	assert.Equal(t, "bge-m3", cfg.OllamaEmbedModel)
	assert.Equal(t, 200, cfg.MaxChunkLines)
	assert.Equal(t, 150, cfg.FallbackChunkLines)
	assert.Equal(t, 20, cfg.FallbackOverlap)
	assert.Equal(t, 64, cfg.EmbeddingBatchSize)
	assert.Equal(t, 20, cfg.DefaultTopK)
	assert.Equal(t, 0.7, cfg.ChatTemperature)
	assert.Equal(t, 0.2, cfg.CodeTemperature)
	assert.Equal(t, 500_000, cfg.MaxFileBytes)
	assert.Contains(t, cfg.IgnoredDirs, "node_modules")
	assert.Contains(t, cfg.AllowedExtensions, ".go")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MAX_CHUNK_LINES", "120")
	t.Setenv("LLM_CHAT_TEMPERATURE", "0.3")
	t.Setenv("IGNORED_DIRS", "target,out")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 120, cfg.MaxChunkLines)
	assert.Equal(t, 0.3, cfg.ChatTemperature)
	assert.Equal(t, []string{"target", "out"}, cfg.IgnoredDirs)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("MAX_CHUNK_LINES", "not-a-number")
	t.Setenv("LLM_CODE_TEMPERATURE", "warm")

	cfg := Load()

	assert.Equal(t, 200, cfg.MaxChunkLines)
	assert.Equal(t, 0.2, cfg.CodeTemperature)
}
