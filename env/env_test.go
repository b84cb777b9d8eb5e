package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	env, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "", env.Path())
	assert.Equal(t, ".", env.Root())
	assert.Equal(t, "", env.Output())
	assert.Equal(t, "_proxy.go", env.Suffix())
	assert.Equal(t, "warn", env.LogLevel())
	assert.False(t, env.DryRun())
}

func TestLoadFileAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("root: ./internal\noutput: ./out\nlog:\n  level: debug\n"), 0o644))
	t.Setenv("PROXYGEN_OUTPUT", "./generated")
	t.Setenv("PROXYGEN_DRY_RUN", "true")

	env, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, env.Path())
	assert.Equal(t, "./internal", env.Root())
	assert.Equal(t, "./generated", env.Output())
	assert.Equal(t, "debug", env.LogLevel())
	assert.True(t, env.DryRun())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestBindFlags(t *testing.T) {
	t.Setenv("PROXYGEN_SUFFIX", "_gen.go")

	flags := pflag.NewFlagSet("proxygen", pflag.ContinueOnError)
	flags.String("output", "", "")
	flags.String("suffix", "", "")
	flags.Bool("dry-run", false, "")
	require.NoError(t, flags.Parse([]string{"--output", "./flagged", "--dry-run"}))

	env, err := Load("")
	require.NoError(t, err)
	require.NoError(t, env.BindFlags(flags))

	assert.Equal(t, "./flagged", env.Output())
	assert.True(t, env.DryRun())
	assert.Equal(t, "_gen.go", env.Suffix())
	assert.Equal(t, "warn", env.LogLevel())
}
