package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"molluscdb_ops/app"
	"molluscdb_ops/sources"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newEnv(t *testing.T) (*app.Env, *bytes.Buffer) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ensembl/info/genomes/taxonomy/6447", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"assembly_accession":"GCA_963678975.1","scientific_name":"Gari tellinella","taxonomy_id":2623420,"assembly_name":"xbGarTell1.1"}]`)
	})
	mux.HandleFunc("/btk/search/tree/6447", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"accession":"GCA_900000003.1","name":"asm3","taxid":6550,"taxon_name":"Mytilus edulis"},{"accession":"draft","name":"x"}]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	env := app.NewWithStore(nil, nil, nil, &out)
	env.Settings.Sources.Ensembl = srv.URL + "/ensembl"
	env.Settings.Sources.BlobToolKit = srv.URL + "/btk"
	return env, &out
}

func TestRunWritesMergedTSV(t *testing.T) {
	env, out := newEnv(t)

	recs, err := Run(context.Background(), env, Options{Taxon: "6447", Sources: []string{"btk", "Ensembl"}})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, sources.TSVHeader+"\n"+
		"GCA_900000003.1\tbtk\tMytilus edulis\t6550\tasm3\n"+
		"GCA_963678975.1\tensembl\tGari tellinella\t2623420\txbGarTell1.1\n", out.String())
}

func TestRunWritesToFile(t *testing.T) {
	env, out := newEnv(t)
	path := filepath.Join(t.TempDir(), "accessions.tsv")

	_, err := Run(context.Background(), env, Options{Taxon: "6447", Sources: []string{"ensembl"}, Out: path})
	require.NoError(t, err)
	assert.Empty(t, out.String())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "GCA_963678975.1\tensembl")
}

func TestRunRejectsUnknownSource(t *testing.T) {
	env, _ := newEnv(t)
	_, err := Run(context.Background(), env, Options{Taxon: "6447", Sources: []string{"genbank"}})
	assert.ErrorContains(t, err, "genbank")
}

func TestRunRejectsEmptyTaxon(t *testing.T) {
	env, _ := newEnv(t)
	_, err := Run(context.Background(), env, Options{Taxon: " "})
	assert.Error(t, err)
}
