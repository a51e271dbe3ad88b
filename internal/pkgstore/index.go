package pkgstore

import (
	"encoding/json"
	"fmt"
	"io"
)

type indexEntry struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Version   string `json:"version"`
}

// decodeIndex parses the package index format: a flat JSON array of
// {namespace, name, version}. JSON is the standard library here rather
// than an ecosystem pick (DESIGN.md) because the index is a small, stable,
// machine-generated list with no need for TOML's human-editing ergonomics,
// which this codebase otherwise reserves for on-disk configuration.
func decodeIndex(r io.Reader) ([]Metadata, error) {
	var entries []indexEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("pkgstore: decoding index: %w", err)
	}
	out := make([]Metadata, 0, len(entries))
	for _, e := range entries {
		out = append(out, Metadata{Namespace: e.Namespace, Name: e.Name, Version: e.Version})
	}
	return out, nil
}
