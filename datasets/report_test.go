package datasets

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLineBare(t *testing.T) {
	r, err := ParseLine([]byte(`{"accession":"GCA_963678975.1","organism":{"organism_name":"Gari tellinella","tax_id":2623420},"assembly_info":{"assembly_name":"xbGarTell1.1"}}`))
	require.NoError(t, err)
	assert.Equal(t, "GCA_963678975.1", r.Accession)
	assert.Equal(t, "Gari_tellinella", r.DirName())
	assert.Equal(t, AssemblyInfo{
		AssemblyID:   "GCA_963678975.1",
		AssemblyName: "xbGarTell1.1",
		OrganismName: "Gari tellinella",
		TaxonID:      "2623420",
	}, r.Info())
}

func TestParseLineWrapped(t *testing.T) {
	r, err := ParseLine([]byte(`{"reports":[{"accession":"GCF_000001.1","organism":{"organism_name":"Gari tellinella","tax_id":"2623420"}}],"total_count":1}`))
	require.NoError(t, err)
	assert.Equal(t, "GCF_000001.1", r.Accession)
	assert.Equal(t, "Gari_tellinella", r.DirName())
	assert.Equal(t, TaxonID("2623420"), r.Organism.TaxID)
}

func TestParseLineErrors(t *testing.T) {
	_, err := ParseLine([]byte(`{"reports":[]}`))
	assert.Error(t, err)

	_, err = ParseLine([]byte(`{"organism":{}}`))
	assert.True(t, errors.Is(err, ErrEmptyReport))

	_, err = ParseLine([]byte(`{"accession":"SRR000001"}`))
	assert.Error(t, err)

	_, err = ParseLine([]byte(`{"accession":"GCA_1.1","organism":{"tax_id":"abc"}}`))
	assert.Error(t, err)

	_, err = ParseLine([]byte(`not json`))
	assert.Error(t, err)
}

func TestReadLines(t *testing.T) {
	input := `{"accession":"GCA_1.1","organism":{"organism_name":"A a"}}

{"accession":"GCA_2.1","organism":{"organism_name":"B b"}}
`
	var got []string
	err := ReadLines(strings.NewReader(input), func(r *Report) error {
		got = append(got, r.Accession)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"GCA_1.1", "GCA_2.1"}, got)

	err = ReadLines(strings.NewReader("{\"accession\":\"GCA_1.1\"}\n{broken\n"), func(*Report) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
