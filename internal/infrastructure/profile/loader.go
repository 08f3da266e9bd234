// Package profile reads applicant profiles from YAML files.
package profile

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"ufunda-orchestrator/internal/domain/entity"
)

// Load parses the profile at path. Relative upload paths are resolved against the
// profile's directory so a profile can ship next to its documents.
func Load(path string) (entity.Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entity.Context{}, fmt.Errorf("read profile: %w", err)
	}

	c, err := Parse(data)
	if err != nil {
		return entity.Context{}, fmt.Errorf("profile %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for kind, p := range c.Uploads {
		if p != "" && !filepath.IsAbs(p) {
			c.Uploads[kind] = filepath.Join(dir, p)
		}
	}
	return c, nil
}

// Parse decodes a profile document. Scalars keep their source text, so unquoted ID numbers,
// phone numbers and dates reach the bots exactly as written.
func Parse(data []byte) (entity.Context, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return entity.Context{}, fmt.Errorf("parse yaml: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return entity.Context{}, fmt.Errorf("profile is empty")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return entity.Context{}, fmt.Errorf("profile: expected a mapping at the top level, got %s", root.ShortTag())
	}
	raw, _ := plain(root).(map[string]any)
	return entity.ContextFromMap(raw)
}

// plain converts a node tree into maps, slices and strings. Null scalars become nil.
func plain(n *yaml.Node) any {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return plain(n.Content[0])
	case yaml.AliasNode:
		return plain(n.Alias)
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			m[n.Content[i].Value] = plain(n.Content[i+1])
		}
		return m
	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			list = append(list, plain(item))
		}
		return list
	default:
		if n.ShortTag() == "!!null" {
			return nil
		}
		return n.Value
	}
}
