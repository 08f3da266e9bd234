package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_WriteFile(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	path, err := store.WriteFile("run-1", "uj", "shot.jpg", []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "run-1", "uj", "shot.jpg"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))
}

func TestStore_WriteJSON(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	path, err := store.WriteJSON("run-1", "", "parallel_run_1.json", map[string]string{"uj": "success"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "run-1", "parallel_run_1.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"uj":"success"}`, string(data))
}

func TestStore_SanitizesPathSegments(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	tests := []struct {
		name  string
		runID string
		bot   string
		file  string
		want  string
	}{
		{"traversal in name", "run", "uj", "../../etc/passwd", filepath.Join(root, "run", "uj", "passwd")},
		{"blank run id", "", "uj", "a.json", filepath.Join(root, "adhoc", "uj", "a.json")},
		{"spaces and slashes", "run 1", "my/bot", "x y.jpg", filepath.Join(root, "run_1", "bot", "x_y.jpg")},
		{"dot dot name", "run", "uj", "..", filepath.Join(root, "run", "uj", "artifact")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := store.WriteFile(tt.runID, tt.bot, tt.file, []byte("x"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, path)
		})
	}
}

func TestNewStore_DefaultRoot(t *testing.T) {
	assert.Equal(t, "artifacts", NewStore("").Root())
}
