// Package loader reads a graph source document from disk.
package loader

import (
	"encoding/json"
	"fmt"
	"os"

	"kloc/internal/model"
)

// SupportedMajor is the document format major version this build
// understands.
const SupportedMajor = "1"

// LoadDocument reads and decodes a graph document. The document is
// consumed wholesale; there is no streaming or partial-load contract.
func LoadDocument(path string) (*model.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}
	return ParseDocument(b)
}

// ParseDocument decodes a graph document from raw JSON.
func ParseDocument(b []byte) (*model.Document, error) {
	var doc model.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse graph file: %w", err)
	}
	if doc.Version != "" && majorOf(doc.Version) != SupportedMajor {
		return nil, fmt.Errorf("unsupported graph format version %q (want major %s)", doc.Version, SupportedMajor)
	}
	if err := validate(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func majorOf(version string) string {
	for i := 0; i < len(version); i++ {
		if version[i] == '.' {
			return version[:i]
		}
	}
	return version
}

// validate rejects structurally broken documents. Semantic oddities such
// as cycles are left to the cycle-guarded traversals; only missing ids and
// dangling endpoints are hard errors here.
func validate(doc *model.Document) error {
	ids := make(map[string]bool, len(doc.Nodes))
	for i, n := range doc.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node at index %d has no id", i)
		}
		if ids[n.ID] {
			return fmt.Errorf("duplicate node id %s", n.ID)
		}
		ids[n.ID] = true
	}
	for i, e := range doc.Edges {
		if e.Type == "" {
			return fmt.Errorf("edge at index %d has no type", i)
		}
		if !ids[e.From] {
			return fmt.Errorf("edge at index %d references unknown source %s", i, e.From)
		}
		if !ids[e.To] {
			return fmt.Errorf("edge at index %d references unknown target %s", i, e.To)
		}
	}
	return nil
}
