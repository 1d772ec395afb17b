package accession

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"GCA_922989275.2_some_assembly.fa", "GCA_922989275.2"},
		{"/data/assemblies/GCA_922989275.2_some_assembly.fa", "GCA_922989275.2"},
		{"GCA_922989275.2.fa", "GCA_922989275.2"},
		{"GCF_000001405.40.fasta.gz", "GCF_000001405.40"},
		{"GCA_963678975.1-xbGarTell1.1.fa.gz", "GCA_963678975.1"},
		{"GCA_963678975.1 primary.fa", "GCA_963678975.1"},
		{"GCA_963678975.1", "GCA_963678975.1"},
	}
	for _, tt := range tests {
		got, err := FromPath(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}

func TestFromPathRejectsNonAccessions(t *testing.T) {
	for _, path := range []string{
		"Gari_tellinella.fa",
		"GCA_922989275.fa",
		"GCX_922989275.2_asm.fa",
		"assembly_GCA_922989275.2.fa",
		"",
	} {
		_, err := FromPath(path)
		require.Error(t, err, path)
		assert.True(t, errors.Is(err, ErrNoAccession), path)
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("GCA_922989275.2"))
	assert.True(t, IsValid("GCF_000001.1"))
	assert.False(t, IsValid("GCA_922989275.2_asm"))
	assert.False(t, IsValid("GCA_922989275"))
	assert.True(t, IsRefSeq("GCF_000001.1"))
	assert.False(t, IsRefSeq("GCA_000001.1"))
}

func TestDirName(t *testing.T) {
	assert.Equal(t, "Gari_tellinella", DirName("Gari tellinella"))
	assert.Equal(t, "Mytilus_edulis_x_galloprovincialis", DirName("  Mytilus edulis  x\tgalloprovincialis "))
	assert.Equal(t, "", DirName("   "))
}
