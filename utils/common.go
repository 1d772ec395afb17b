// Common package contains commonly used functions that benefit multiple tools
// Exporting these functions from the Common package reduces redundant code
package common

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// Maximum line length accepted by StreamLines. NCBI Datasets reports for
// large assemblies run to several megabytes on a single line.
const maxLineBytes = 64 * 1024 * 1024

// RequireDir fails with a message naming path unless it is an existing directory.
func RequireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// RequireFile fails with a message naming path unless it is an existing regular file.
func RequireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a file", path)
	}
	return nil
}

// FileExists checks if a file exists and is not a directory before we
// try using it to prevent further errors.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// MaybeGunzip returns a reader that transparently decompresses r when it
// starts with the gzip magic bytes.
func MaybeGunzip(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1F && magic[1] == 0x8B {
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip reader: %w", err)
		}
		return gr, nil
	}
	return br, nil
}

// OpenMaybeGzip opens a plain or gzip-compressed file. Compression is
// detected from content, not the file name.
func OpenMaybeGzip(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	r, err := MaybeGunzip(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return struct {
		io.Reader
		io.Closer
	}{r, f}, nil
}

type LineHandler func(lineNo int, line string) error

// StreamLines calls handler for every line of r with surrounding whitespace
// trimmed. Blank lines are skipped but still counted, so lineNo matches
// what an editor shows.
func StreamLines(r io.Reader, handler LineHandler) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := handler(lineNo, line); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}
	return nil
}

// StreamFile is StreamLines over a possibly gzipped file.
func StreamFile(path string, handler LineHandler) error {
	rc, err := OpenMaybeGzip(path)
	if err != nil {
		return err
	}
	defer rc.Close()
	return StreamLines(rc, handler)
}
