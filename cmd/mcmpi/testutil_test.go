package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cmdRunner struct {
	t           testing.TB
	configFile  string
	configPaths []string
	workDir     string
	spawner     *fakeSpawner
}

func newCmdRunner(t testing.TB) *cmdRunner {
	t.Helper()
	return &cmdRunner{
		t:           t,
		workDir:     t.TempDir(),
		configPaths: []string{},
		spawner:     &fakeSpawner{},
	}
}

func (c *cmdRunner) run(commandLine ...string) *runCmdResult {
	ctx := context.Background()
	c.t.Helper()
	result := runCmdResult{t: c.t}
	if c.configFile != "" {
		commandLine = append(commandLine, "--config", c.configFile)
	}
	if c.workDir != "" {
		commandLine = append(commandLine, "-C", c.workDir)
	}
	Run(
		ctx,
		commandLine,
		&runOpts{
			stdout:      &result.stdOut,
			stderr:      &result.stdErr,
			cmdName:     "cmd",
			configPaths: c.configPaths,
			spawner:     c.spawner,
			exitHandler: func(i int) {
				result.exited = true
				result.exitVal = i
			},
		},
	)
	return &result
}

func (c *cmdRunner) writeFile(name, content string) string {
	c.t.Helper()
	filename := filepath.Join(c.workDir, filepath.FromSlash(name))
	require.NoError(c.t, os.MkdirAll(filepath.Dir(filename), 0o755))
	require.NoError(c.t, os.WriteFile(filename, []byte(content), 0o600))
	return filename
}

func (c *cmdRunner) path(name string) string {
	return filepath.Join(c.workDir, filepath.FromSlash(name))
}

type runCmdResult struct {
	t       testing.TB
	stdOut  bytes.Buffer
	stdErr  bytes.Buffer
	exited  bool
	exitVal int
}

func (r *runCmdResult) assertStdOut(want string) {
	r.t.Helper()
	assertEqualOrMatch(r.t, want, r.stdOut.String())
}

func (r *runCmdResult) assertStdErr(want string) {
	r.t.Helper()
	assertEqualOrMatch(r.t, want, r.stdErr.String())
}

type resultState struct {
	stdout string
	stderr string
	exit   int
}

func (r *runCmdResult) assertState(state resultState) {
	r.t.Helper()
	r.assertStdOut(state.stdout)
	r.assertStdErr(state.stderr)
	assert.Equal(r.t, state.exit, r.exitVal)
	assert.Equal(r.t, state.exit != 0, r.exited)
}

func assertEqualOrMatch(t testing.TB, want, got string) {
	t.Helper()
	if want == "" {
		assert.Equal(t, "", got)
		return
	}
	want = strings.TrimSpace(want)
	got = strings.TrimSpace(got)
	if want == got {
		return
	}
	re, err := regexp.Compile(want)
	if err != nil {
		assert.Equal(t, strings.TrimSpace(want), got)
		return
	}
	assert.Regexp(t, re, got)
}

type spawnCall struct {
	name string
	args []string
}

type fakeSpawner struct {
	probeErr error
	detached []spawnCall
}

func (f *fakeSpawner) Probe(_ context.Context, _ string, _ ...string) error {
	return f.probeErr
}

func (f *fakeSpawner) Detach(_ context.Context, name string, args ...string) error {
	f.detached = append(f.detached, spawnCall{name: name, args: args})
	return nil
}
