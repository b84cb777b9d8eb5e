package gen

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotationLevel(t *testing.T) {
	assert.Equal(t, "w", annotationLevel("debug"))
	assert.Equal(t, "w", annotationLevel("warn"))
	assert.Equal(t, "e", annotationLevel("error"))
	assert.Equal(t, "e", annotationLevel(""))
	assert.Equal(t, "f", annotationLevel("close"))
}

func TestProcessMatchesCheckedInWrappers(t *testing.T) {
	root := filepath.Join("..", "examples", "greeter")
	files, err := Process(Options{Root: root, DryRun: true}, "error")
	require.NoError(t, err)

	names := make([]string, 0, len(files))
	for path, content := range files {
		names = append(names, filepath.Base(path))

		want, err := os.ReadFile(path)
		require.NoError(t, err, path)
		assert.Equal(t, string(want), string(content), path)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"greeter_proxy.go", "tally_proxy.go"}, names)
}
