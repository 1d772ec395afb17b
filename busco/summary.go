// Package busco reads the output of BUSCO runs: the short_summary.json and
// short_summary.txt files and the full_table.tsv gene table.
package busco

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	common "molluscdb_ops/utils"
)

// File names written by BUSCO into each run_<lineage> directory.
const (
	SummaryJSON = "short_summary.json"
	SummaryText = "short_summary.txt"
	FullTable   = "full_table.tsv"
)

// Summary is the subset of short_summary.json the tools use.
type Summary struct {
	Parameters struct {
		In   string `json:"in"`
		Mode string `json:"mode"`
	} `json:"parameters"`
	LineageDataset struct {
		Name string `json:"name"`
	} `json:"lineage_dataset"`
	Results map[string]any `json:"results"`
}

// OneLine returns results.one_line_summary when present.
func (s *Summary) OneLine() string {
	if v, ok := s.Results["one_line_summary"].(string); ok {
		return v
	}
	return ""
}

// ReadSummary parses a short_summary.json file.
func ReadSummary(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if s.Parameters.In == "" {
		return nil, fmt.Errorf("%s has no parameters.in", path)
	}
	return &s, nil
}

// Scores are the percentages from the one-line summary
// C:95.1%[S:94.0%,D:1.1%],F:1.2%,M:3.7%,n:5295.
type Scores struct {
	Complete   float64
	Single     float64
	Duplicated float64
	Fragmented float64
	Missing    float64
	Total      int
}

var oneLinePattern = regexp.MustCompile(`C:([\d.]+)%\[S:([\d.]+)%,D:([\d.]+)%\],F:([\d.]+)%,M:([\d.]+)%,n:(\d+)`)

// ParseOneLine extracts Scores from a one-line summary string.
func ParseOneLine(line string) (Scores, error) {
	m := oneLinePattern.FindStringSubmatch(line)
	if m == nil {
		return Scores{}, fmt.Errorf("no BUSCO one-line summary in %q", line)
	}
	var sc Scores
	vals := []*float64{&sc.Complete, &sc.Single, &sc.Duplicated, &sc.Fragmented, &sc.Missing}
	for i, dst := range vals {
		v, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return Scores{}, err
		}
		*dst = v
	}
	total, err := strconv.Atoi(m[6])
	if err != nil {
		return Scores{}, err
	}
	sc.Total = total
	return sc, nil
}

// ReadSummaryText finds the one-line summary in a short_summary.txt file.
func ReadSummaryText(path string) (Scores, error) {
	var (
		scores Scores
		found  bool
	)
	err := common.StreamFile(path, func(_ int, line string) error {
		if found || !strings.HasPrefix(line, "C:") {
			return nil
		}
		sc, err := ParseOneLine(line)
		if err != nil {
			return err
		}
		scores, found = sc, true
		return nil
	})
	if err != nil {
		return Scores{}, err
	}
	if !found {
		return Scores{}, fmt.Errorf("%s has no one-line summary", path)
	}
	return scores, nil
}

// Run locates one run_<lineage> directory under an assembly directory.
type Run struct {
	Dir     string // <root>/<entry>
	RunDir  string // <root>/<entry>/run_<lineage>
	Lineage string
}

// Path joins name onto the run directory.
func (r Run) Path(name string) string {
	return filepath.Join(r.RunDir, name)
}

// FindRuns lists, in sorted order, every <root>/<entry>/run_<lineage>
// directory holding a short_summary.json. Entries without one are skipped.
func FindRuns(root string, lineages []string) ([]Run, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		// Stat follows symlinked assembly directories
		info, err := os.Stat(filepath.Join(root, e.Name()))
		if err != nil || !info.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var runs []Run
	for _, name := range names {
		dir := filepath.Join(root, name)
		for _, lineage := range lineages {
			run := Run{Dir: dir, RunDir: filepath.Join(dir, "run_"+lineage), Lineage: lineage}
			if common.FileExists(run.Path(SummaryJSON)) {
				runs = append(runs, run)
			}
		}
	}
	return runs, nil
}
