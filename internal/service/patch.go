package service

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// GeneratePatch produces a unified diff between the original and modified
// content, labeled a/<filename> and b/<filename>. Identical inputs yield an
// empty string.
func GeneratePatch(oldCode, newCode, filename string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldCode),
		B:        difflib.SplitLines(newCode),
		FromFile: "a/" + filename,
		ToFile:   "b/" + filename,
		Context:  3,
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("generate diff for %s: %w", filename, err)
	}
	return text, nil
}
