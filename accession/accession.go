// Package accession derives NCBI assembly accessions (GCA_/GCF_) from file
// names and species directory names from organism names.
package accession

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrNoAccession is returned when a name carries no GC[AF]_<digits>.<version> prefix.
var ErrNoAccession = errors.New("no accession found")

var (
	prefixPattern = regexp.MustCompile(`^GC[AF]_\d+\.\d+`)
	fullPattern   = regexp.MustCompile(`^GC[AF]_\d+\.\d+$`)
	separators    = strings.NewReplacer("-", "_", " ", "_")
)

// FromPath derives the accession from the basename of path.
// "GCA_922989275.2_some_assembly.fa" gives "GCA_922989275.2".
func FromPath(path string) (string, error) {
	base := separators.Replace(filepath.Base(path))

	// the accession ends at the second underscore
	if i := nthIndex(base, '_', 2); i >= 0 {
		base = base[:i]
	}
	acc := prefixPattern.FindString(base)
	if acc == "" {
		return "", fmt.Errorf("%w in %q", ErrNoAccession, path)
	}
	return acc, nil
}

// IsValid reports whether s is exactly an accession.
func IsValid(s string) bool {
	return fullPattern.MatchString(s)
}

// IsRefSeq reports whether acc is a GCF_ accession.
func IsRefSeq(acc string) bool {
	return strings.HasPrefix(acc, "GCF_")
}

// DirName turns an organism name into the species directory name used on
// disk: whitespace runs collapse to one underscore.
func DirName(organism string) string {
	return strings.Join(strings.Fields(organism), "_")
}

func nthIndex(s string, sep byte, n int) int {
	seen := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			seen++
			if seen == n {
				return i
			}
		}
	}
	return -1
}
