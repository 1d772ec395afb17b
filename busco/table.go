package busco

import (
	"io"
	"strconv"
	"strings"

	common "molluscdb_ops/utils"
)

// Hit is one located BUSCO gene: the sequence it sits on and its span with
// Start <= End.
type Hit struct {
	ID       string
	Sequence string
	Start    int
	End      int
}

// Len is End-Start.
func (h Hit) Len() int {
	return h.End - h.Start
}

// HitSet keeps hits in first-seen order; a repeated ID replaces the value
// but keeps its original position.
type HitSet struct {
	order []string
	byID  map[string]Hit
}

func (s *HitSet) put(h Hit) {
	if s.byID == nil {
		s.byID = make(map[string]Hit)
	}
	if _, ok := s.byID[h.ID]; !ok {
		s.order = append(s.order, h.ID)
	}
	s.byID[h.ID] = h
}

// Hits returns the hits in order.
func (s *HitSet) Hits() []Hit {
	out := make([]Hit, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

func (s *HitSet) Len() int {
	return len(s.order)
}

// ReadHits parses a full_table.tsv. Comment rows, rows with fewer than five
// columns (Missing genes) and rows with non-numeric coordinates are skipped.
func ReadHits(r io.Reader) (*HitSet, error) {
	set := &HitSet{}
	err := common.StreamLines(r, func(_ int, line string) error {
		if strings.HasPrefix(line, "#") {
			return nil
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 5 {
			return nil
		}
		start, err1 := strconv.Atoi(cols[3])
		end, err2 := strconv.Atoi(cols[4])
		if err1 != nil || err2 != nil {
			return nil
		}
		if start > end {
			start, end = end, start
		}
		set.put(Hit{ID: cols[0], Sequence: cols[2], Start: start, End: end})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// ReadHitsFile is ReadHits over a possibly gzipped file.
func ReadHitsFile(path string) (*HitSet, error) {
	rc, err := common.OpenMaybeGzip(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ReadHits(rc)
}

// Row is one full_table.tsv row keyed by normalised column names
// (busco_id, status, sequence, gene_start, gene_end, strand, score, length,
// orthodb_url, description).
type Row map[string]string

// DefaultColumns is the full_table.tsv layout of BUSCO v5.
var DefaultColumns = []string{
	"busco_id", "status", "sequence", "gene_start", "gene_end",
	"strand", "score", "length", "orthodb_url", "description",
}

// ReadRows parses a full_table.tsv into rows. The last comment line, when it
// looks like a header, names the columns; otherwise DefaultColumns apply.
// Rows whose status is Missing are dropped.
func ReadRows(r io.Reader) ([]Row, error) {
	columns := DefaultColumns
	var rows []Row
	err := common.StreamLines(r, func(_ int, line string) error {
		if strings.HasPrefix(line, "#") {
			if hdr := parseHeader(line); len(hdr) > 1 {
				columns = hdr
			}
			return nil
		}
		cols := strings.Split(line, "\t")
		row := make(Row, len(columns))
		for i, name := range columns {
			if i < len(cols) {
				row[name] = cols[i]
			}
		}
		if row["status"] == "Missing" {
			return nil
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func parseHeader(line string) []string {
	line = strings.TrimSpace(strings.TrimLeft(line, "#"))
	if !strings.Contains(line, "\t") {
		return nil
	}
	fields := strings.Split(line, "\t")
	for i, f := range fields {
		fields[i] = NormaliseColumn(f)
	}
	return fields
}

// NormaliseColumn lower-cases a header and joins its words with underscores:
// "Gene Start" becomes "gene_start", "OrthoDB url" becomes "orthodb_url".
func NormaliseColumn(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}
