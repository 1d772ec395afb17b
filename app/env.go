// Package app holds the shared state every tool command runs with.
package app

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"molluscdb_ops/benchmark"
	"molluscdb_ops/config"
	"molluscdb_ops/runner"
	"molluscdb_ops/storage"
)

// Env is filled in by the root command before any tool runs.
type Env struct {
	Settings  *config.Settings
	Logger    *zap.Logger
	Runner    runner.Runner
	Out       io.Writer
	Now       func() time.Time
	Prefix    string // --prefix override of storage.prefix
	Benchmark bool

	// OpenStore connects to object storage; tests swap in a MemStore.
	OpenStore func(ctx context.Context) (storage.Store, error)

	once  sync.Once
	store storage.Store
	err   error
}

// Store opens the object store on first use and caches it.
func (e *Env) Store(ctx context.Context) (storage.Store, error) {
	e.once.Do(func() {
		if e.OpenStore == nil {
			e.store, e.err = storage.NewS3Store(ctx, e.Settings.Storage, e.Logger)
			return
		}
		e.store, e.err = e.OpenStore(ctx)
	})
	return e.store, e.err
}

// StoragePrefix is the --prefix flag, else storage.prefix, else YYYY-MM.
func (e *Env) StoragePrefix() string {
	if e.Prefix != "" {
		return e.Prefix
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	return e.Settings.StoragePrefix(now())
}

// Log never returns nil.
func (e *Env) Log() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// Execute runs fn, wrapped in the resource report when --benchmark is set.
func (e *Env) Execute(cmd *cobra.Command, args []string, fn func() error) error {
	if !e.Benchmark {
		return fn()
	}
	label := strings.TrimSpace(cmd.CommandPath() + " " + strings.Join(args, " "))
	return benchmark.Run(label, e.Log(), fn)
}

// NewWithStore returns an Env bound to an existing store, used by tests and
// dry runs against a MemStore.
func NewWithStore(settings *config.Settings, store storage.Store, r runner.Runner, out io.Writer) *Env {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	return &Env{
		Settings:  settings,
		Logger:    zap.NewNop(),
		Runner:    r,
		Out:       out,
		Now:       time.Now,
		OpenStore: func(context.Context) (storage.Store, error) { return store, nil },
	}
}
