package import_features

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"molluscdb_ops/app"
	"molluscdb_ops/storage"
)

var templates = map[string]string{
	"TEMPLATE_window_stats.yaml": `file:
  name: "{assembly_id}.sequences.tsv"
  comment: "span {span} for taxon {taxon_id}"
fields: [assembly_id, sequence, length, feature_type]
`,
	"TEMPLATE_window_stats.WINDOW.yaml": `file:
  name: "{assembly_id}.window.{window}.tsv"
fields: [sequence, start, end, gc, feature_type]
`,
	"TEMPLATE_busco.yaml": `file:
  name: "{assembly_id}.busco.{lineage}.tsv.gz"
features:
  lineage: "{lineage}"
fields: [busco_id, sequence, gene_start, gene_end, feature_type]
`,
}

const fullTable = `# BUSCO version is: 5.4.3
# The lineage dataset is: mollusca_odb10
# Busco id	Status	Sequence	Gene Start	Gene End	Strand	Score	Length
100at6447	Complete	OU015411.1	4000	5000	-	1200.5	410
102at6447	Missing
`

func put(t *testing.T, mem *storage.MemStore, key, data string) {
	t.Helper()
	require.NoError(t, mem.Put(context.Background(), key, strings.NewReader(data), storage.PutOptions{}))
}

func fixture(t *testing.T) (string, *storage.MemStore) {
	dir := t.TempDir()
	for name, body := range templates {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	mem := storage.NewMemStore("molluscdb")
	put(t, mem, "latest/GCA_1.1/assembly_info.json", `{"assembly_id":"GCA_1.1","taxon_id":2623420}`)
	put(t, mem, "latest/GCA_1.1/stats/window_stats.tsv", "#sequence\tlength\nchr1\t1000\nchr2\t500\n")
	put(t, mem, "latest/GCA_1.1/stats/window_stats.100000.tsv", "sequence\tstart\tend\tgc\nchr1\t0\t100000\t0.35\n")
	put(t, mem, "latest/GCA_1.1/busco/mollusca_odb10/full_table.tsv", fullTable)
	put(t, mem, "latest/GCA_2.1/assembly_info.json", `{"taxon_id":6550}`)
	return dir, mem
}

func TestRunWritesFeatureFiles(t *testing.T) {
	dir, mem := fixture(t)
	out := t.TempDir()
	env := app.NewWithStore(nil, mem, nil, &bytes.Buffer{})
	env.Prefix = "latest"

	written, err := Run(context.Background(), env, Options{Templates: dir, Out: out})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(out, "GCA_1.1.sequences.tsv"),
		filepath.Join(out, "GCA_1.1.sequences.types.yaml"),
		filepath.Join(out, "GCA_1.1.window.100000.tsv"),
		filepath.Join(out, "GCA_1.1.window.100000.types.yaml"),
		filepath.Join(out, "GCA_1.1.busco.mollusca_odb10.tsv.gz"),
		filepath.Join(out, "GCA_1.1.busco.mollusca_odb10.types.yaml"),
	}, written)

	data, err := os.ReadFile(filepath.Join(out, "GCA_1.1.sequences.tsv"))
	require.NoError(t, err)
	assert.Equal(t, "assembly_id\tsequence\tlength\tfeature_type\n"+
		"GCA_1.1\tchr1\t1000\tchromosome,toplevel,sequence\n"+
		"GCA_1.1\tchr2\t500\tchromosome,toplevel,sequence\n", string(data))

	var doc map[string]any
	data, err = os.ReadFile(filepath.Join(out, "GCA_1.1.sequences.types.yaml"))
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "span 1500 for taxon 2623420", doc["file"].(map[string]any)["comment"])

	data, err = os.ReadFile(filepath.Join(out, "GCA_1.1.window.100000.tsv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "chr1\t0\t100000\t0.35\twindow-100000,window\n")
}

func TestRunReportsMissingTemplate(t *testing.T) {
	dir, mem := fixture(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "TEMPLATE_busco.yaml")))
	env := app.NewWithStore(nil, mem, nil, &bytes.Buffer{})
	env.Prefix = "latest"

	_, err := Run(context.Background(), env, Options{Templates: dir, Out: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), filepath.Join(dir, "TEMPLATE_busco.yaml"))
}

func TestWindowSize(t *testing.T) {
	assert.Equal(t, "", windowSize("latest/GCA_1.1/stats/window_stats.tsv"))
	assert.Equal(t, "100000", windowSize("latest/GCA_1.1/stats/window_stats.100000.tsv"))
	assert.Equal(t, "1000000", windowSize("stats/GCA_1.1.window_stats.1000000.tsv.gz"))
}
