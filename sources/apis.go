package sources

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// NCBI pages through the Datasets v2 taxon dataset_report endpoint.
type NCBI struct {
	BaseURL  string
	Client   *Client
	PageSize int
}

func (n *NCBI) Name() string { return "ncbi" }

func (n *NCBI) Fetch(ctx context.Context, taxon string) ([]Record, error) {
	var recs []Record
	token := ""
	for {
		q := url.Values{}
		q.Set("page_size", strconv.Itoa(n.PageSize))
		if token != "" {
			q.Set("page_token", token)
		}
		endpoint := fmt.Sprintf("%s/genome/taxon/%s/dataset_report?%s",
			strings.TrimRight(n.BaseURL, "/"), url.PathEscape(taxon), q.Encode())

		var page struct {
			Reports []struct {
				Accession string `json:"accession"`
				Organism  struct {
					OrganismName string     `json:"organism_name"`
					TaxID        flexString `json:"tax_id"`
				} `json:"organism"`
				AssemblyInfo struct {
					AssemblyName string `json:"assembly_name"`
				} `json:"assembly_info"`
			} `json:"reports"`
			NextPageToken string `json:"next_page_token"`
		}
		if err := n.Client.getJSON(ctx, n.Name(), endpoint, &page); err != nil {
			return nil, err
		}
		for _, r := range page.Reports {
			recs = append(recs, Record{
				Accession:    r.Accession,
				Source:       n.Name(),
				Organism:     r.Organism.OrganismName,
				TaxonID:      string(r.Organism.TaxID),
				AssemblyName: r.AssemblyInfo.AssemblyName,
			})
		}
		if page.NextPageToken == "" || page.NextPageToken == token {
			break
		}
		token = page.NextPageToken
	}
	n.Client.Logger.Info("fetched", zap.String("source", n.Name()), zap.Int("records", len(recs)))
	return recs, nil
}

// Ensembl lists genomes under a taxon from the REST info endpoint.
type Ensembl struct {
	BaseURL string
	Client  *Client
}

func (e *Ensembl) Name() string { return "ensembl" }

func (e *Ensembl) Fetch(ctx context.Context, taxon string) ([]Record, error) {
	endpoint := fmt.Sprintf("%s/info/genomes/taxonomy/%s?content-type=application/json",
		strings.TrimRight(e.BaseURL, "/"), url.PathEscape(taxon))

	var genomes []struct {
		AssemblyAccession string     `json:"assembly_accession"`
		ScientificName    string     `json:"scientific_name"`
		TaxonomyID        flexString `json:"taxonomy_id"`
		AssemblyName      string     `json:"assembly_name"`
	}
	if err := e.Client.getJSON(ctx, e.Name(), endpoint, &genomes); err != nil {
		return nil, err
	}
	recs := make([]Record, 0, len(genomes))
	for _, g := range genomes {
		recs = append(recs, Record{
			Accession:    g.AssemblyAccession,
			Source:       e.Name(),
			Organism:     g.ScientificName,
			TaxonID:      string(g.TaxonomyID),
			AssemblyName: g.AssemblyName,
		})
	}
	e.Client.Logger.Info("fetched", zap.String("source", e.Name()), zap.Int("records", len(recs)))
	return recs, nil
}

// UCSC lists GenArk assembly hubs. The API cannot filter by taxon, so a
// numeric taxon matches taxId exactly and a name matches scientificName as a
// case-insensitive substring.
type UCSC struct {
	BaseURL string
	Client  *Client
}

func (u *UCSC) Name() string { return "ucsc" }

func (u *UCSC) Fetch(ctx context.Context, taxon string) ([]Record, error) {
	endpoint := strings.TrimRight(u.BaseURL, "/") + "/list/genarkGenomes?maxItemsOutput=-1"

	var resp struct {
		Genomes map[string]struct {
			AsmName        string     `json:"asmName"`
			ScientificName string     `json:"scientificName"`
			TaxID          flexString `json:"taxId"`
		} `json:"genarkGenomes"`
	}
	if err := u.Client.getJSON(ctx, u.Name(), endpoint, &resp); err != nil {
		return nil, err
	}

	_, numErr := strconv.Atoi(taxon)
	numeric := numErr == nil
	needle := strings.ToLower(taxon)

	var recs []Record
	for acc, g := range resp.Genomes {
		if numeric && string(g.TaxID) != taxon {
			continue
		}
		if !numeric && !strings.Contains(strings.ToLower(g.ScientificName), needle) {
			continue
		}
		recs = append(recs, Record{
			Accession:    acc,
			Source:       u.Name(),
			Organism:     g.ScientificName,
			TaxonID:      string(g.TaxID),
			AssemblyName: g.AsmName,
		})
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Accession < recs[j].Accession })
	u.Client.Logger.Info("fetched", zap.String("source", u.Name()), zap.Int("records", len(recs)))
	return recs, nil
}

// BoaT queries the genomehubs search API of the BoaT instance for assemblies
// in the taxon's subtree.
type BoaT struct {
	BaseURL string
	Client  *Client
	Size    int
}

func (b *BoaT) Name() string { return "boat" }

func (b *BoaT) Fetch(ctx context.Context, taxon string) ([]Record, error) {
	q := url.Values{}
	q.Set("query", fmt.Sprintf("tax_tree(%s)", taxon))
	q.Set("result", "assembly")
	q.Set("size", strconv.Itoa(b.Size))
	endpoint := strings.TrimRight(b.BaseURL, "/") + "/search?" + q.Encode()

	var resp struct {
		Status struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		} `json:"status"`
		Results []struct {
			ID     string `json:"id"`
			Result struct {
				AssemblyID     string     `json:"assembly_id"`
				ScientificName string     `json:"scientific_name"`
				TaxonID        flexString `json:"taxon_id"`
				Fields         map[string]struct {
					Value any `json:"value"`
				} `json:"fields"`
			} `json:"result"`
		} `json:"results"`
	}
	if err := b.Client.getJSON(ctx, b.Name(), endpoint, &resp); err != nil {
		return nil, err
	}
	if !resp.Status.Success && resp.Status.Error != "" {
		return nil, fmt.Errorf("%s: %s", b.Name(), resp.Status.Error)
	}

	recs := make([]Record, 0, len(resp.Results))
	for _, r := range resp.Results {
		acc := r.Result.AssemblyID
		if acc == "" {
			acc = r.ID
		}
		name := ""
		if f, ok := r.Result.Fields["assembly_name"]; ok {
			if s, ok := f.Value.(string); ok {
				name = s
			}
		}
		recs = append(recs, Record{
			Accession:    acc,
			Source:       b.Name(),
			Organism:     r.Result.ScientificName,
			TaxonID:      string(r.Result.TaxonID),
			AssemblyName: name,
		})
	}
	b.Client.Logger.Info("fetched", zap.String("source", b.Name()), zap.Int("records", len(recs)))
	return recs, nil
}

// BlobToolKit lists public BlobToolKit datasets in the taxon's subtree.
type BlobToolKit struct {
	BaseURL string
	Client  *Client
}

func (b *BlobToolKit) Name() string { return "btk" }

func (b *BlobToolKit) Fetch(ctx context.Context, taxon string) ([]Record, error) {
	endpoint := fmt.Sprintf("%s/search/tree/%s", strings.TrimRight(b.BaseURL, "/"), url.PathEscape(taxon))

	var datasets []struct {
		Accession string     `json:"accession"`
		Name      string     `json:"name"`
		TaxID     flexString `json:"taxid"`
		TaxonName string     `json:"taxon_name"`
	}
	if err := b.Client.getJSON(ctx, b.Name(), endpoint, &datasets); err != nil {
		return nil, err
	}
	recs := make([]Record, 0, len(datasets))
	for _, d := range datasets {
		recs = append(recs, Record{
			Accession:    d.Accession,
			Source:       b.Name(),
			Organism:     d.TaxonName,
			TaxonID:      string(d.TaxID),
			AssemblyName: d.Name,
		})
	}
	b.Client.Logger.Info("fetched", zap.String("source", b.Name()), zap.Int("records", len(recs)))
	return recs, nil
}
