package app

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"molluscdb_ops/config"
	"molluscdb_ops/storage"
)

func TestStoreOpensOnce(t *testing.T) {
	calls := 0
	env := &Env{
		Settings: config.DefaultSettings(),
		OpenStore: func(context.Context) (storage.Store, error) {
			calls++
			return storage.NewMemStore("b"), nil
		},
	}
	s1, err := env.Store(context.Background())
	require.NoError(t, err)
	s2, err := env.Store(context.Background())
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.Equal(t, 1, calls)
}

func TestStoragePrefix(t *testing.T) {
	env := NewWithStore(nil, storage.NewMemStore("b"), nil, &bytes.Buffer{})
	env.Now = func() time.Time { return time.Date(2024, time.May, 3, 0, 0, 0, 0, time.UTC) }
	assert.Equal(t, "2024-05", env.StoragePrefix())

	env.Settings.Storage.Prefix = "latest"
	assert.Equal(t, "latest", env.StoragePrefix())

	env.Prefix = "2023-12"
	assert.Equal(t, "2023-12", env.StoragePrefix())
}

func TestExecuteWithBenchmark(t *testing.T) {
	env := NewWithStore(nil, nil, nil, &bytes.Buffer{})
	cmd := &cobra.Command{Use: "index"}
	boom := errors.New("boom")

	assert.ErrorIs(t, env.Execute(cmd, nil, func() error { return boom }), boom)
	env.Benchmark = true
	assert.ErrorIs(t, env.Execute(cmd, []string{"x"}, func() error { return boom }), boom)
	assert.NoError(t, env.Execute(cmd, nil, func() error { return nil }))
}
