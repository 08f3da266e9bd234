package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ufunda-orchestrator/internal/application/port/output"
)

var _ output.ArtifactStore = (*Store)(nil)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store writes artifacts under <root>/<run id>/<bot>/<name>. An empty bot writes directly
// into the run directory.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	if root == "" {
		root = "artifacts"
	}
	return &Store{root: root}
}

func (s *Store) Root() string {
	return s.root
}

// Dir returns the directory for a run and bot without creating it.
func (s *Store) Dir(runID, bot string) string {
	parts := []string{s.root, sanitize(runID, "adhoc")}
	if bot != "" {
		parts = append(parts, sanitize(bot, "bot"))
	}
	return filepath.Join(parts...)
}

func (s *Store) WriteFile(runID, bot, name string, data []byte) (string, error) {
	dir := s.Dir(runID, bot)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("failed to create artifact dir: %w", err)
	}

	path := filepath.Join(dir, sanitize(name, "artifact"))
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	return path, nil
}

func (s *Store) WriteJSON(runID, bot, name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode artifact: %w", err)
	}
	return s.WriteFile(runID, bot, name, data)
}

func sanitize(name, fallback string) string {
	name = strings.TrimSpace(filepath.Base(name))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." || name == ".." {
		return fallback
	}
	return name
}
