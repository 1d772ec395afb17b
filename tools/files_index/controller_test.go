package files_index

import (
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"molluscdb_ops/app"
	"molluscdb_ops/storage"
)

const types = `file:
  name: files.tsv
  format: tsv
attributes:
  files:
    file_paths:
      busco:
        full_table:
          name: full_table.tsv
        summary:
          name: short_summary.json
      blobtoolkit:
        all: true
        meta:
          name: blobdir/meta.json.gz
      unused:
        all: true
        x:
          name: x.txt
`

func put(t *testing.T, mem *storage.MemStore, key string, data []byte) {
	t.Helper()
	require.NoError(t, mem.Put(context.Background(), key, bytes.NewReader(data), storage.PutOptions{}))
}

func gz(t *testing.T, s string) []byte {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func bucket(t *testing.T) *storage.MemStore {
	mem := storage.NewMemStore("molluscdb")
	put(t, mem, "latest/GCA_1.1/assembly_info.json", []byte(`{"assembly_id":"GCA_1.1","taxon_id":"2623420"}`))
	put(t, mem, "latest/GCA_1.1/busco/mollusca_odb10/full_table.tsv", []byte("x"))
	put(t, mem, "latest/GCA_1.1/busco/mollusca_odb10/short_summary.json", []byte("{}"))
	put(t, mem, "latest/GCA_1.1/busco/metazoa_odb10/short_summary.json", []byte("{}"))
	put(t, mem, "latest/GCA_1.1/blobtoolkit/blobdir/meta.json.gz", gz(t, `{"id":"CAVNYO01"}`))

	put(t, mem, "latest/GCA_2.1/assembly_info.json", []byte(`{"taxon_id":6550}`))
	put(t, mem, "latest/GCA_2.1/assembly/GCA_2.1.fa.gz", []byte("x"))

	put(t, mem, "latest/GCA_3.1/busco/x/full_table.tsv", []byte("no assembly_info"))
	put(t, mem, "2023-12/GCA_9.1/assembly_info.json", []byte(`{"taxon_id":1}`))
	return mem
}

func TestRunIndexesBucket(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "files.types.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(types), 0o644))

	env := app.NewWithStore(nil, bucket(t), nil, &bytes.Buffer{})
	env.Prefix = "latest"

	rows, err := Run(context.Background(), env, Options{Types: cfg})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, Entry{
		"assembly_id":                {"GCA_1.1"},
		"taxon_id":                   {"2623420"},
		"files":                      {"blobtoolkit", "busco"},
		"files.blobtoolkit.all":      {"meta"},
		"files.blobtoolkit.run":      {"CAVNYO01"},
		"files.busco.mollusca_odb10": {"full_table", "summary"},
		"files.busco.metazoa_odb10":  {"summary"},
		"files.busco.run":            {"mollusca_odb10", "metazoa_odb10"},
	}, rows[0])
	assert.Equal(t, Entry{"assembly_id": {"GCA_2.1"}, "taxon_id": {"6550"}}, rows[1])

	data, err := os.ReadFile(filepath.Join(dir, "files.tsv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "assembly_id\ttaxon_id\tfiles\tfiles.blobtoolkit.all\tfiles.blobtoolkit.run\tfiles.busco.metazoa_odb10\tfiles.busco.mollusca_odb10\tfiles.busco.run", lines[0])
	assert.Equal(t, "GCA_1.1\t2623420\tblobtoolkit;busco\tmeta\tCAVNYO01\tsummary\tfull_table;summary\tmollusca_odb10;metazoa_odb10", lines[1])
	assert.Equal(t, "GCA_2.1\t6550\t\t\t\t\t\t", lines[2])
}

func TestRunUnknownAttribute(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "files.types.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(types), 0o644))
	env := app.NewWithStore(nil, bucket(t), nil, &bytes.Buffer{})

	_, err := Run(context.Background(), env, Options{Types: cfg, Attribute: "assets"})
	assert.ErrorContains(t, err, "assets")
}

func TestReadTypesNeedsFileName(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "files.types.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("attributes: {}\n"), 0o644))
	_, err := ReadTypes(cfg)
	assert.ErrorContains(t, err, "file.name")
}
