package games

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/deckr/internal/gamedef"
)

// repoRoot locates the module root from this file.
func repoRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "..")
}

func TestCatalog(t *testing.T) {
	assert.Equal(t, []string{"highcard", "simple"}, Catalog().Names())
}

func TestBundledDefinitions(t *testing.T) {
	loader := gamedef.NewLoader(Catalog(), 1)
	tests := []struct {
		dir  string
		name string
	}{
		{dir: "simple", name: "Simple Game"},
		{dir: "highcard", name: "High Card"},
	}

	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			def, err := loader.Load(filepath.Join(repoRoot(t), "games", tt.dir))
			require.NoError(t, err)
			assert.Equal(t, tt.name, def.Name)

			g, err := def.Factory()
			require.NoError(t, err)
			require.NoError(t, g.SetUp())
		})
	}
}
