// Package sources fetches assembly accession lists from the public genome
// APIs: NCBI Datasets, Ensembl REST, UCSC, BoaT and BlobToolKit.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"molluscdb_ops/accession"
	"molluscdb_ops/config"
)

// Record is one accession as reported by one source.
type Record struct {
	Accession    string
	Source       string
	Organism     string
	TaxonID      string
	AssemblyName string
}

// Source lists the assemblies it knows under a taxon (name or NCBI tax ID).
type Source interface {
	Name() string
	Fetch(ctx context.Context, taxon string) ([]Record, error)
}

// Names lists the supported sources in their default order.
var Names = []string{"ncbi", "ensembl", "ucsc", "boat", "btk"}

// Client does the HTTP work shared by every source.
type Client struct {
	HTTP   *http.Client
	Logger *zap.Logger
}

func NewClient(timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		HTTP:   &http.Client{Timeout: timeout},
		Logger: logger.Named("sources"),
	}
}

// getJSON GETs url and decodes the JSON body into v. Any non-2xx status is
// an error naming the source.
func (c *Client) getJSON(ctx context.Context, source, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	c.Logger.Debug("fetching", zap.String("source", source), zap.String("url", url))
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: %s: %s", source, resp.Status, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%s: decode response: %w", source, err)
	}
	return nil
}

// New builds the named source against the configured base URLs.
func New(name string, cfg config.SourcesConfig, c *Client) (Source, error) {
	switch name {
	case "ncbi":
		return &NCBI{BaseURL: cfg.NCBI, Client: c, PageSize: 1000}, nil
	case "ensembl":
		return &Ensembl{BaseURL: cfg.Ensembl, Client: c}, nil
	case "ucsc":
		return &UCSC{BaseURL: cfg.UCSC, Client: c}, nil
	case "boat":
		return &BoaT{BaseURL: cfg.BoaT, Client: c, Size: 10000}, nil
	case "btk":
		return &BlobToolKit{BaseURL: cfg.BlobToolKit, Client: c}, nil
	}
	return nil, fmt.Errorf("unknown source %q (valid: %s)", name, strings.Join(Names, ", "))
}

// FetchAll queries every source concurrently, at most limit at a time, and
// returns the merged records sorted by accession then source with
// (accession, source) duplicates and invalid accessions removed. The first
// failing source cancels the rest.
func FetchAll(ctx context.Context, srcs []Source, taxon string, limit int) ([]Record, error) {
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	results := make([][]Record, len(srcs))
	for i, src := range srcs {
		g.Go(func() error {
			recs, err := src.Fetch(gctx, taxon)
			if err != nil {
				return err
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	type key struct{ acc, src string }
	seen := make(map[key]bool)
	var merged []Record
	for _, recs := range results {
		for _, r := range recs {
			if !accession.IsValid(r.Accession) {
				continue
			}
			k := key{r.Accession, r.Source}
			if seen[k] {
				continue
			}
			seen[k] = true
			merged = append(merged, r)
		}
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Accession != merged[j].Accession {
			return merged[i].Accession < merged[j].Accession
		}
		return merged[i].Source < merged[j].Source
	})
	return merged, nil
}

// TSVHeader is the first line WriteTSV emits.
const TSVHeader = "accession\tsource\torganism\ttaxon_id\tassembly_name"

// WriteTSV writes records as a tab-separated table with a header row.
func WriteTSV(w io.Writer, recs []Record) error {
	if _, err := fmt.Fprintln(w, TSVHeader); err != nil {
		return err
	}
	for _, r := range recs {
		_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.Accession, r.Source, clean(r.Organism), r.TaxonID, clean(r.AssemblyName))
		if err != nil {
			return err
		}
	}
	return nil
}

func clean(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == '\t' || r == '\n' || r == '\r' }), " ")
}

// flexString decodes a JSON string or number into a string. The APIs
// disagree on whether taxon IDs are quoted.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
