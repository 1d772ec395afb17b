package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"molluscdb_ops/app"
	"molluscdb_ops/runner"
	"molluscdb_ops/storage"
)

func testEnv() *app.Env {
	mem := storage.NewMemStore("molluscdb")
	return &app.Env{
		Runner:    &runner.Recorder{},
		OpenStore: func(context.Context) (storage.Store, error) { return mem, nil },
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWith(t, testEnv(), args...)
}

func executeWith(t *testing.T, env *app.Env, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand(env)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	cfg := filepath.Join(t.TempDir(), "absent.yaml")
	root.SetArgs(append(args, "--config", cfg))
	err := runRoot(context.Background(), root, env)
	return out.String(), err
}

type syncCounter struct {
	zapcore.Core
	syncs int
}

func (c *syncCounter) Sync() error {
	c.syncs++
	return nil
}

func TestMissingRootIsAnError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no_such_dir")
	_, err := execute(t, "busco_upload", missing, "mollusca_odb10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), missing)
}

func TestEmptyRootUploadsNothing(t *testing.T) {
	out, err := execute(t, "busco_upload", t.TempDir(), "mollusca_odb10", "--benchmark")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestHelpAndVersion(t *testing.T) {
	out, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "MolluscDB Ops - Custom Help Menu")

	out, err = execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version Information Menu")
}

func TestUnknownTool(t *testing.T) {
	_, err := execute(t, "kmer_analyzer")
	assert.Error(t, err)
}

func TestLoggerSyncedOnFailure(t *testing.T) {
	core := &syncCounter{Core: zapcore.NewNopCore()}
	env := testEnv()
	env.Logger = zap.New(core)

	_, err := executeWith(t, env, "busco_upload", filepath.Join(t.TempDir(), "no_such_dir"), "mollusca_odb10")
	require.Error(t, err)
	assert.Equal(t, 1, core.syncs)

	_, err = executeWith(t, env, "busco_upload", t.TempDir(), "mollusca_odb10")
	require.NoError(t, err)
	assert.Equal(t, 2, core.syncs)
}
