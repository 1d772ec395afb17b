package busco

import (
	"fmt"
	"io"
	"sort"
)

// NoPartner is written in place of the second ID when a gene overlaps nothing.
const NoPartner = "None"

// Overlap pairs a gene of the first set with one it intersects in the second.
type Overlap struct {
	ID1, ID2    string // ID2 is "" when nothing intersects ID1
	Length      int
	NonOverlap1 int
	NonOverlap2 int
}

// FindOverlaps compares every hit of a with every hit of b on the same
// sequence. Each intersecting pair gives one Overlap; a hit of a with no
// partner gives one Overlap with an empty ID2 and its full length as
// NonOverlap1. Results follow the order of a, then of b.
func FindOverlaps(a, b *HitSet) []Overlap {
	var out []Overlap
	hitsB := b.Hits()
	for _, h1 := range a.Hits() {
		found := false
		for _, h2 := range hitsB {
			if h1.Sequence != h2.Sequence || h1.Start > h2.End || h2.Start > h1.End {
				continue
			}
			n := max(0, min(h1.End, h2.End)-max(h1.Start, h2.Start))
			out = append(out, Overlap{
				ID1:         h1.ID,
				ID2:         h2.ID,
				Length:      n,
				NonOverlap1: h1.Len() - n,
				NonOverlap2: h2.Len() - n,
			})
			found = true
		}
		if !found {
			out = append(out, Overlap{ID1: h1.ID, NonOverlap1: h1.Len()})
		}
	}
	return out
}

// SortForPlot orders by Length+NonOverlap1, longest first.
func SortForPlot(overlaps []Overlap) {
	sort.SliceStable(overlaps, func(i, j int) bool {
		return overlaps[i].Length+overlaps[i].NonOverlap1 > overlaps[j].Length+overlaps[j].NonOverlap1
	})
}

// SortByLength orders by overlap length, longest first, keeping ties in place.
func SortByLength(overlaps []Overlap) {
	sort.SliceStable(overlaps, func(i, j int) bool {
		return overlaps[i].Length > overlaps[j].Length
	})
}

// WriteOverlaps writes id1, id2, overlap, non-overlap1, non-overlap2 per line.
func WriteOverlaps(w io.Writer, overlaps []Overlap) error {
	for _, o := range overlaps {
		id2 := o.ID2
		if id2 == "" {
			id2 = NoPartner
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", o.ID1, id2, o.Length, o.NonOverlap1, o.NonOverlap2); err != nil {
			return err
		}
	}
	return nil
}
