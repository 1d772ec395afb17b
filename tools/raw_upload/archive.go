package raw_upload

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// archiveKind reports how local must be packed to match key: "tar.gz",
// "tar", "gz", or "" when it can be uploaded as is.
func archiveKind(local, key string) string {
	for _, ext := range []string{".tar.gz", ".tar", ".gz"} {
		if strings.HasSuffix(key, ext) {
			if strings.HasSuffix(local, ext) {
				return ""
			}
			return strings.TrimPrefix(ext, ".")
		}
	}
	return ""
}

// pack writes local into a temporary archive next to it and returns its
// path. The caller removes it.
func pack(local, kind string) (string, error) {
	tmp := fmt.Sprintf("%s.%s.%s", local, uuid.NewString()[:8], kind)
	f, err := os.Create(tmp)
	if err != nil {
		return "", err
	}

	switch kind {
	case "tar.gz":
		zw := gzip.NewWriter(f)
		err = writeTar(zw, local)
		if cerr := zw.Close(); err == nil {
			err = cerr
		}
	case "tar":
		err = writeTar(f, local)
	case "gz":
		err = writeGzip(f, local)
	default:
		err = fmt.Errorf("unknown archive kind %q", kind)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("pack %s: %w", local, err)
	}
	return tmp, nil
}

func writeGzip(w io.Writer, local string) error {
	in, err := os.Open(local)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("cannot gzip a directory, use a .tar.gz key")
	}
	zw := gzip.NewWriter(w)
	zw.Name = filepath.Base(local)
	if _, err := io.Copy(zw, in); err != nil {
		return err
	}
	return zw.Close()
}

// writeTar adds local (a file or a whole directory) under its base name.
func writeTar(w io.Writer, local string) error {
	tw := tar.NewWriter(w)
	parent := filepath.Dir(local)
	err := filepath.WalkDir(local, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() && !info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(parent, path)
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return err
	}
	return tw.Close()
}
