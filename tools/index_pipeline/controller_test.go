package index_pipeline

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"molluscdb_ops/app"
	"molluscdb_ops/pipeline"
	"molluscdb_ops/runner"
)

func newEnv(t *testing.T, status int, rec *runner.Recorder) (*app.Env, *bytes.Buffer, *[]string) {
	var deleted []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		deleted = append(deleted, r.URL.Path)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	env := app.NewWithStore(nil, nil, rec, &out)
	env.Settings.Elasticsearch.URL = srv.URL
	return env, &out, &deleted
}

func TestRunPrintsDone(t *testing.T) {
	rec := &runner.Recorder{}
	env, out, deleted := newEnv(t, http.StatusOK, rec)

	err := Run(context.Background(), env, Options{IndexPattern: "*--2024.05.01"})
	require.NoError(t, err)
	assert.Equal(t, "done\n", out.String())
	assert.Equal(t, []string{"/*--2024.05.01"}, *deleted)
	assert.Equal(t, []string{
		"genomehubs init --config-file sources/config.yaml --taxonomy-source ncbi",
		"genomehubs index --config-file sources/config.yaml --taxonomy-source ncbi --directory sources",
	}, rec.Names())
}

func TestRunTreatsMissingIndicesAsSuccess(t *testing.T) {
	rec := &runner.Recorder{}
	env, out, _ := newEnv(t, http.StatusNotFound, rec)

	require.NoError(t, Run(context.Background(), env, Options{}))
	assert.Equal(t, "done\n", out.String())
	assert.Len(t, rec.Calls, 2)
}

func TestRunStopsWhenDeleteFails(t *testing.T) {
	rec := &runner.Recorder{}
	env, out, _ := newEnv(t, http.StatusInternalServerError, rec)

	err := Run(context.Background(), env, Options{})
	assert.ErrorIs(t, err, pipeline.ErrStepFailed)
	assert.Equal(t, "failed\n", out.String())
	assert.Empty(t, rec.Calls)
}

func TestRunStopsWhenInitFails(t *testing.T) {
	rec := &runner.Recorder{Fail: map[string]bool{
		"genomehubs init --config-file hub.yaml --taxonomy-source ott": true,
	}}
	env, out, _ := newEnv(t, http.StatusOK, rec)

	err := Run(context.Background(), env, Options{ConfigFile: "hub.yaml", TaxonomySource: "ott"})
	assert.ErrorIs(t, err, runner.ErrCommandFailed)
	assert.Equal(t, "failed\n", out.String())
	assert.Len(t, rec.Calls, 1)
}
