// Package datasets reads NCBI Datasets genome assembly reports.
package datasets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"molluscdb_ops/accession"
	common "molluscdb_ops/utils"
)

// Report is one assembly entry of a dataset_report response or JSON-lines file.
type Report struct {
	Accession string `json:"accession"`
	Organism  struct {
		OrganismName string  `json:"organism_name"`
		TaxID        TaxonID `json:"tax_id"`
	} `json:"organism"`
	AssemblyInfo struct {
		AssemblyName string `json:"assembly_name"`
	} `json:"assembly_info"`
}

// TaxonID accepts both the numeric and the quoted form NCBI has emitted over time.
type TaxonID string

func (t *TaxonID) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*t = TaxonID(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("tax_id: %w", err)
	}
	if _, err := strconv.ParseInt(s, 10, 64); s != "" && err != nil {
		return fmt.Errorf("tax_id %q is not numeric", s)
	}
	*t = TaxonID(s)
	return nil
}

// Page is the wrapped form, {"reports": [...]}.
type Page struct {
	Reports []Report `json:"reports"`
}

var ErrEmptyReport = errors.New("report has no accession")

// ParseLine decodes one JSON line. Both a bare report and a {"reports": [...]}
// wrapper are accepted; for the wrapper the first report is used.
func ParseLine(line []byte) (*Report, error) {
	var probe struct {
		Reports json.RawMessage `json:"reports"`
	}
	if err := json.Unmarshal(line, &probe); err != nil {
		return nil, err
	}
	var r Report
	if len(probe.Reports) > 0 {
		var page Page
		if err := json.Unmarshal(line, &page); err != nil {
			return nil, err
		}
		if len(page.Reports) == 0 {
			return nil, ErrEmptyReport
		}
		r = page.Reports[0]
	} else if err := json.Unmarshal(line, &r); err != nil {
		return nil, err
	}
	if r.Accession == "" {
		return nil, ErrEmptyReport
	}
	if !accession.IsValid(r.Accession) {
		return nil, fmt.Errorf("%q is not an assembly accession", r.Accession)
	}
	return &r, nil
}

// ReadLines streams every report in a JSON-lines reader.
func ReadLines(r io.Reader, fn func(*Report) error) error {
	return common.StreamLines(r, func(_ int, line string) error {
		rep, err := ParseLine([]byte(line))
		if err != nil {
			return err
		}
		return fn(rep)
	})
}

// DirName is the species directory derived from the organism name.
func (r *Report) DirName() string {
	return accession.DirName(r.Organism.OrganismName)
}

// AssemblyInfo is the per-accession JSON written next to the uploads and read
// back by the bucket indexers.
type AssemblyInfo struct {
	AssemblyID   string `json:"assembly_id"`
	AssemblyName string `json:"assembly_name"`
	OrganismName string `json:"organism_name"`
	TaxonID      string `json:"taxon_id"`
}

// Info converts the report to its AssemblyInfo.
func (r *Report) Info() AssemblyInfo {
	return AssemblyInfo{
		AssemblyID:   r.Accession,
		AssemblyName: r.AssemblyInfo.AssemblyName,
		OrganismName: r.Organism.OrganismName,
		TaxonID:      string(r.Organism.TaxID),
	}
}
