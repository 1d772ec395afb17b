package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Object is what MemStore keeps per key.
type Object struct {
	Data []byte
	Opts PutOptions
}

// MemStore is an in-memory Store used by tests and dry runs.
type MemStore struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]Object
}

func NewMemStore(bucket string) *MemStore {
	return &MemStore{bucket: bucket, objects: make(map[string]Object)}
}

func (m *MemStore) URI(key string) string {
	return "s3://" + m.bucket + "/" + key
}

func (m *MemStore) Put(_ context.Context, key string, body io.Reader, opts PutOptions) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{Data: data, Opts: opts}
	return nil
}

func (m *MemStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", m.URI(key), ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(obj.Data)), nil
}

func (m *MemStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *MemStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemStore) ListDirs(_ context.Context, prefix string) ([]string, error) {
	prefix = DirPrefix(prefix)
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]struct{})
	for k := range m.objects {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := strings.TrimPrefix(k, prefix)
		if i := strings.IndexByte(rest, '/'); i > 0 {
			seen[rest[:i]] = struct{}{}
		}
	}
	dirs := make([]string, 0, len(seen))
	for d := range seen {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs, nil
}

func (m *MemStore) Copy(_ context.Context, src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[src]
	if !ok {
		return fmt.Errorf("%s: %w", m.URI(src), ErrNotFound)
	}
	m.objects[dst] = Object{Data: append([]byte(nil), obj.Data...), Opts: obj.Opts}
	return nil
}

func (m *MemStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Object returns the stored object for assertions.
func (m *MemStore) Object(key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj, ok
}

// Keys lists every key in the store, sorted.
func (m *MemStore) Keys() []string {
	keys, _ := m.List(context.Background(), "")
	return keys
}
