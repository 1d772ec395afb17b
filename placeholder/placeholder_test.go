package placeholder

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	vars := map[string]string{"accession": "GCA_963678975.1", "prefix": "latest"}

	got, err := Expand("{prefix}/{accession}/blobdir.tar.gz", vars)
	require.NoError(t, err)
	assert.Equal(t, "latest/GCA_963678975.1/blobdir.tar.gz", got)

	got, err = Expand("plain/key.txt", vars)
	require.NoError(t, err)
	assert.Equal(t, "plain/key.txt", got)
}

func TestExpandUnknownVariable(t *testing.T) {
	_, err := Expand("{release}/{accession}", map[string]string{"accession": "x"})
	assert.ErrorIs(t, err, ErrUnknownVariable)
	assert.Contains(t, err.Error(), `"release"`)
	assert.Contains(t, err.Error(), "--vars release=value")
}

func TestReplaceLeavesUnknownPlaceholders(t *testing.T) {
	got := Replace("{assembly_id}.{lineage}.tsv spans {span}", map[string]string{
		"assembly_id": "GCA_1.1",
		"lineage":     "mollusca_odb10",
	})
	assert.Equal(t, "GCA_1.1.mollusca_odb10.tsv spans {span}", got)
}

func TestReplaceTree(t *testing.T) {
	doc := map[string]any{
		"file":   map[string]any{"name": "{assembly_id}.tsv"},
		"fields": []any{"sequence", "{window}", 3},
		"count":  7,
	}
	got := ReplaceTree(doc, map[string]string{"assembly_id": "GCA_1.1", "window": "100000"})
	want := map[string]any{
		"file":   map[string]any{"name": "GCA_1.1.tsv"},
		"fields": []any{"sequence", "100000", 3},
		"count":  7,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "{assembly_id}.tsv", doc["file"].(map[string]any)["name"], "input is not modified")
}

func TestExpandAdjacentPlaceholders(t *testing.T) {
	got, err := Expand("{a}{b}.gz", map[string]string{"a": "x", "b": "y"})
	require.NoError(t, err)
	assert.Equal(t, "xy.gz", got)
}
