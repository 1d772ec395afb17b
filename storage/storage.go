// Package storage talks to the S3-compatible bucket the hub releases live in.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	common "molluscdb_ops/utils"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("object not found")

// PutOptions carries the object metadata set on upload.
type PutOptions struct {
	ContentType        string
	ContentDisposition string
	Public             bool // public-read ACL
}

// Store is the subset of object storage the tools need. Keys never start
// with a slash; "directories" are key prefixes ending in one.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, opts PutOptions) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	// List returns every key under prefix, recursively, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	// ListDirs returns the names of the immediate sub-directories of prefix, sorted.
	ListDirs(ctx context.Context, prefix string) ([]string, error)
	Copy(ctx context.Context, src, dst string) error
	Delete(ctx context.Context, key string) error
	// URI renders key as s3://bucket/key for messages.
	URI(key string) string
}

// Key joins key parts with "/" and drops empty parts.
func Key(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			kept = append(kept, p)
		}
	}
	return path.Join(kept...)
}

// DirPrefix returns prefix with exactly one trailing slash, or "" for the root.
func DirPrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

// ContentTypeFor guesses the MIME type of the files the tools upload.
func ContentTypeFor(name string) string {
	name = strings.TrimSuffix(strings.ToLower(name), ".gz")
	switch {
	case strings.HasSuffix(name, ".json"):
		return "application/json"
	case strings.HasSuffix(name, ".tsv"):
		return "text/tab-separated-values"
	case strings.HasSuffix(name, ".yaml"), strings.HasSuffix(name, ".yml"):
		return "application/yaml"
	case strings.HasSuffix(name, ".txt"):
		return "text/plain"
	case strings.HasSuffix(name, ".fa"), strings.HasSuffix(name, ".fasta"):
		return "text/x-fasta"
	case strings.HasSuffix(name, ".png"):
		return "image/png"
	}
	return "application/octet-stream"
}

// PutFile uploads the local file at path to key.
func PutFile(ctx context.Context, s Store, path, key string, opts PutOptions) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if opts.ContentType == "" {
		opts.ContentType = ContentTypeFor(path)
	}
	if err := s.Put(ctx, key, f, opts); err != nil {
		return fmt.Errorf("upload %s to %s: %w", path, s.URI(key), err)
	}
	return nil
}

// GetJSON decodes the (possibly gzipped) JSON object at key into v.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	rc, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	defer rc.Close()
	r, err := common.MaybeGunzip(rc)
	if err != nil {
		return err
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", s.URI(key), err)
	}
	return nil
}
