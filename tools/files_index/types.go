package files_index

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Types is the part of a files.types.yaml the indexer reads:
//
//	file:
//	  name: files.tsv
//	attributes:
//	  files:
//	    file_paths:
//	      busco:
//	        full_table: {name: full_table.tsv}
//	      blobtoolkit:
//	        all: true
//	        meta: {name: blobdir/meta.json.gz}
type Types struct {
	File struct {
		Name string `yaml:"name"`
	} `yaml:"file"`
	Attributes map[string]struct {
		FilePaths map[string]map[string]any `yaml:"file_paths"`
	} `yaml:"attributes"`

	dir string
}

// Analysis is one declared analysis directory and the files it may hold.
type Analysis struct {
	Name  string
	All   bool              // files sit directly in the analysis directory
	Files map[string]string // column key -> file name
}

// ReadTypes loads the config at path.
func ReadTypes(path string) (*Types, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var t Types
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if t.File.Name == "" {
		return nil, fmt.Errorf("%s: file.name is not set", path)
	}
	t.dir = filepath.Dir(path)
	return &t, nil
}

// OutputPath is file.name resolved against the config's directory.
func (t *Types) OutputPath() string {
	if filepath.IsAbs(t.File.Name) {
		return t.File.Name
	}
	return filepath.Join(t.dir, t.File.Name)
}

// Analyses returns the analyses declared under attribute, keyed by directory name.
func (t *Types) Analyses(attribute string) (map[string]Analysis, error) {
	attr, ok := t.Attributes[attribute]
	if !ok {
		return nil, fmt.Errorf("attribute %q is not declared", attribute)
	}
	out := make(map[string]Analysis, len(attr.FilePaths))
	for name, decl := range attr.FilePaths {
		a := Analysis{Name: name, Files: make(map[string]string)}
		for key, v := range decl {
			if key == "all" {
				a.All = v != false
				continue
			}
			m, ok := v.(map[string]any)
			if !ok {
				continue
			}
			if file, ok := m["name"].(string); ok && file != "" {
				a.Files[key] = file
			}
		}
		out[name] = a
	}
	return out, nil
}

// FileKeys returns the analysis' column keys in sorted order.
func (a Analysis) FileKeys() []string {
	keys := make([]string, 0, len(a.Files))
	for k := range a.Files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
