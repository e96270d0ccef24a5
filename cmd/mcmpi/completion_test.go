package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/posener/complete"
	"github.com/stretchr/testify/require"
)

func Test_findWorkdirForCompletion(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv("MCMPI_WORKDIR", "")
		os.Unsetenv("MCMPI_WORKDIR")
		require.Equal(t, ".", findWorkdirForCompletion([]string{"start"}))
	})

	t.Run("from command line", func(t *testing.T) {
		dir := t.TempDir()
		require.Equal(t, dir, findWorkdirForCompletion([]string{"-C", dir, "start"}))
		require.Equal(t, dir, findWorkdirForCompletion([]string{"--workdir", dir, "start"}))
	})

	t.Run("from environment variable", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("MCMPI_WORKDIR", dir)
		require.Equal(t, dir, findWorkdirForCompletion([]string{"start"}))
	})
}

func Test_serverCompleter(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"alpha", "beta"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, name), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name, ".mcmpi"), []byte("Name: x"), 0o600))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "other"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha.zip"), nil, 0o600))

	require.ElementsMatch(t, []string{"alpha", "beta"}, installedServers(dir))
	got := serverCompleter.Predict(complete.Args{
		Completed:     []string{"-C", dir, "start"},
		Last:          "",
		All:           []string{"-C", dir, "start"},
		LastCompleted: "start",
	})
	require.ElementsMatch(t, []string{"alpha", "beta"}, got)
	require.Empty(t, installedServers(filepath.Join(dir, "missing")))
}
