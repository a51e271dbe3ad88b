package fsid

import (
	"path/filepath"
	"strings"
)

// relSlash computes the slash-separated relative path from root to target,
// both given as OS-native paths. Returns an error if either cannot be
// made absolute/cleaned.
func relSlash(root, target string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(absRoot, absTarget)
	if err != nil {
		return "", err
	}

	return filepath.ToSlash(rel), nil
}

// HasTypExtension reports whether path ends in the ".typ" source extension.
func HasTypExtension(p string) bool {
	return strings.EqualFold(filepath.Ext(p), ".typ")
}
