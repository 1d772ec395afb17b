package import_features

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"molluscdb_ops/placeholder"
)

// Template is a TEMPLATE_<name>.yaml with its placeholders filled.
//
//	file:
//	  name: "{assembly_id}.busco.{lineage}.tsv"
//	fields: [sequence, start, end, busco_id, feature_type]
type Template struct {
	Path string
	Doc  map[string]any
}

// LoadTemplate reads TEMPLATE_<name>.yaml from dir and applies vars.
func LoadTemplate(dir, name string, vars map[string]string) (*Template, error) {
	path := filepath.Join(dir, "TEMPLATE_"+name+".yaml")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("template file %s not found", path)
	}
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	t := &Template{Path: path, Doc: doc}
	t = t.With(vars)
	if t.FileName() == "" {
		return nil, fmt.Errorf("%s: file.name is not set", path)
	}
	if len(t.Fields()) == 0 {
		return nil, fmt.Errorf("%s: fields is empty", path)
	}
	return t, nil
}

// With returns a copy with further placeholders filled.
func (t *Template) With(vars map[string]string) *Template {
	doc, _ := placeholder.ReplaceTree(t.Doc, vars).(map[string]any)
	return &Template{Path: t.Path, Doc: doc}
}

// FileName is file.name, the TSV the template describes.
func (t *Template) FileName() string {
	file, _ := t.Doc["file"].(map[string]any)
	name, _ := file["name"].(string)
	return name
}

// Fields lists the output columns.
func (t *Template) Fields() []string {
	list, _ := t.Doc["fields"].([]any)
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// TypesName is the file name of the YAML written next to the TSV.
func (t *Template) TypesName() string {
	name := strings.TrimSuffix(t.FileName(), ".gz")
	return strings.TrimSuffix(name, ".tsv") + ".types.yaml"
}

// Row is one feature: column -> value. feature_type is kept as a list.
type Row struct {
	Values      map[string]string
	FeatureType []string
}

// WritePair writes the TSV and its .types.yaml into dir and returns both paths.
func (t *Template) WritePair(dir string, rows []Row, defaults map[string]string) ([]string, error) {
	tsv := filepath.Join(dir, t.FileName())
	types := filepath.Join(dir, t.TypesName())

	data, err := yaml.Marshal(t.Doc)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(types, data, 0o644); err != nil {
		return nil, err
	}
	if err := writeTSV(tsv, t.Fields(), rows, defaults); err != nil {
		return nil, err
	}
	return []string{tsv, types}, nil
}

func writeTSV(path string, fields []string, rows []Row, defaults map[string]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	var w io.Writer = f
	if strings.HasSuffix(path, ".gz") {
		zw := gzip.NewWriter(f)
		defer func() {
			if cerr := zw.Close(); err == nil {
				err = cerr
			}
		}()
		w = zw
	}

	if _, err := fmt.Fprintln(w, strings.Join(fields, "\t")); err != nil {
		return err
	}
	values := make([]string, len(fields))
	for _, row := range rows {
		for i, field := range fields {
			v, ok := row.Values[field]
			switch {
			case field == "feature_type":
				v = strings.Join(row.FeatureType, ",")
			case !ok:
				v = defaults[field]
			}
			values[i] = v
		}
		if _, err := fmt.Fprintln(w, strings.Join(values, "\t")); err != nil {
			return err
		}
	}
	return nil
}
