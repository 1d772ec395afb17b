package busco

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tableA = "# a\n" +
	"g1\tComplete\tchr1\t100\t200\n" +
	"g2\tComplete\tchr1\t500\t300\n" +
	"g3\tComplete\tchr2\t10\t20\n" +
	"g1\tDuplicated\tchr1\t100\t300\n"

const tableB = "# b\n" +
	"h1\tComplete\tchr1\t250\t400\n" +
	"h2\tComplete\tchr1\t0\t150\n" +
	"h3\tComplete\tchr3\t10\t20\n"

func hits(t *testing.T, s string) *HitSet {
	set, err := ReadHits(strings.NewReader(s))
	require.NoError(t, err)
	return set
}

func TestFindOverlaps(t *testing.T) {
	got := FindOverlaps(hits(t, tableA), hits(t, tableB))
	want := []Overlap{
		{ID1: "g1", ID2: "h1", Length: 50, NonOverlap1: 150, NonOverlap2: 100},
		{ID1: "g1", ID2: "h2", Length: 50, NonOverlap1: 150, NonOverlap2: 100},
		{ID1: "g2", ID2: "h1", Length: 100, NonOverlap1: 100, NonOverlap2: 50},
		{ID1: "g3", NonOverlap1: 10},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("overlaps mismatch (-want +got):\n%s", diff)
	}
}

func TestSortAndWrite(t *testing.T) {
	overlaps := FindOverlaps(hits(t, tableA), hits(t, tableB))

	SortForPlot(overlaps)
	assert.Equal(t, "g1", overlaps[0].ID1)
	assert.Equal(t, "g3", overlaps[3].ID1)

	SortByLength(overlaps)
	var buf bytes.Buffer
	require.NoError(t, WriteOverlaps(&buf, overlaps))
	assert.Equal(t, "g2\th1\t100\t100\t50\n"+
		"g1\th1\t50\t150\t100\n"+
		"g1\th2\t50\t150\t100\n"+
		"g3\tNone\t0\t10\t0\n", buf.String())
}
