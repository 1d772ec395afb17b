package busco_overlap

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"molluscdb_ops/app"
	"molluscdb_ops/busco"
)

const table1 = "# BUSCO version is: 5.4.3\n" +
	"100at6447\tComplete\tchr1\t1000\t2000\t+\t900.1\t300\n" +
	"101at6447\tComplete\tchr2\t10\t90\t-\t50.0\t20\n" +
	"102at6447\tMissing\n"

const table2 = "# BUSCO version is: 5.4.3\n" +
	"100at6447\tComplete\tchr1\t2500\t1500\t+\t880.0\t300\n"

func write(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunWritesTableAndImage(t *testing.T) {
	dir := t.TempDir()
	core, logs := observer.New(zap.InfoLevel)
	env := app.NewWithStore(nil, nil, nil, &bytes.Buffer{})
	env.Logger = zap.New(core)

	opts := Options{
		Table1: write(t, dir, "a.tsv", table1),
		Table2: write(t, dir, "b.tsv", table2),
		Out:    filepath.Join(dir, "overlap.tsv"),
		Image:  filepath.Join(dir, "overlap.png"),
	}
	overlaps, err := Run(context.Background(), env, opts)
	require.NoError(t, err)
	require.Len(t, overlaps, 2)

	data, err := os.ReadFile(opts.Out)
	require.NoError(t, err)
	assert.Equal(t, "100at6447\t100at6447\t500\t500\t500\n101at6447\tNone\t0\t80\t0\n", string(data))

	f, err := os.Open(opts.Image)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 1000, img.Bounds().Dx())
	assert.Equal(t, 1000, img.Bounds().Dy())

	entries := logs.FilterMessage("compared BUSCO tables").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["unmatched"])
}

func TestRunWithoutImage(t *testing.T) {
	dir := t.TempDir()
	env := app.NewWithStore(nil, nil, nil, &bytes.Buffer{})
	opts := Options{
		Table1: write(t, dir, "a.tsv", table1),
		Table2: write(t, dir, "b.tsv", table2),
		Out:    filepath.Join(dir, "overlap.tsv"),
	}
	_, err := Run(context.Background(), env, opts)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "output.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunRejectsMissingTable(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.tsv")
	env := app.NewWithStore(nil, nil, nil, &bytes.Buffer{})
	_, err := Run(context.Background(), env, Options{Table1: missing, Table2: missing, Out: filepath.Join(dir, "o.tsv")})
	assert.ErrorContains(t, err, missing)
}

func TestSummarise(t *testing.T) {
	s := Summarise([]busco.Overlap{
		{ID1: "a", ID2: "b", Length: 100, NonOverlap1: 10, NonOverlap2: 20},
		{ID1: "c", Length: 0, NonOverlap1: 50},
		{ID1: "d", ID2: "e", Length: 40},
	})
	assert.Equal(t, 3, s.Pairs)
	assert.Equal(t, 1, s.Unmatched)
	assert.InDelta(t, 140.0/3, s.MeanOverlap, 1e-9)
	assert.InDelta(t, 40, s.MedianOverlap, 1e-9)
	assert.InDelta(t, 80.0/3, s.MeanNonOverlap, 1e-9)

	assert.Equal(t, Summary{}, Summarise(nil))
}
