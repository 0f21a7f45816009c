package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePatch(t *testing.T) {
	oldCode := "line one\nline two\nline three\n"
	newCode := "line one\nline 2\nline three\n"

	patch, err := GeneratePatch(oldCode, newCode, "notes.txt")
	require.NoError(t, err)

	assert.Contains(t, patch, "--- a/notes.txt")
	assert.Contains(t, patch, "+++ b/notes.txt")
	assert.Contains(t, patch, "-line two")
	assert.Contains(t, patch, "+line 2")
}

func TestGeneratePatchNoChanges(t *testing.T) {
	code := "unchanged\n"
	patch, err := GeneratePatch(code, code, "same.txt")
	require.NoError(t, err)
	assert.Empty(t, patch)
}

func TestGeneratePatchAddition(t *testing.T) {
	patch, err := GeneratePatch("a\n", "a\nb\n", "add.txt")
	require.NoError(t, err)
	assert.Contains(t, patch, "+b")
	assert.NotContains(t, patch, "-a")
}
