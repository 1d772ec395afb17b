// Package fetch lists the assembly accessions each public genome API holds
// for a taxon and writes them as one merged TSV.
package fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"molluscdb_ops/app"
	"molluscdb_ops/sources"
)

type Options struct {
	Taxon   string
	Sources []string
	Out     string // "" or "-" writes to stdout
}

func NewCommand(env *app.Env) *cobra.Command {
	opts := Options{}
	cmd := &cobra.Command{
		Use:   "fetch <taxon>",
		Short: "List assembly accessions for a taxon from NCBI, Ensembl, UCSC, BoaT and BlobToolKit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Taxon = args[0]
			return env.Execute(cmd, args, func() error {
				_, err := Run(cmd.Context(), env, opts)
				return err
			})
		},
	}
	cmd.Flags().StringSliceVar(&opts.Sources, "source", sources.Names, "sources to query ("+strings.Join(sources.Names, ",")+")")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "write the TSV here instead of stdout")
	return cmd
}

// Run queries the sources and writes the merged table.
func Run(ctx context.Context, env *app.Env, opts Options) ([]sources.Record, error) {
	taxon := strings.TrimSpace(opts.Taxon)
	if taxon == "" {
		return nil, fmt.Errorf("taxon must not be empty")
	}
	names := opts.Sources
	if len(names) == 0 {
		names = sources.Names
	}

	cfg := env.Settings.Sources
	client := sources.NewClient(env.Settings.SourcesTimeout(), env.Log())
	defer client.HTTP.CloseIdleConnections()

	srcs := make([]sources.Source, 0, len(names))
	for _, name := range names {
		src, err := sources.New(strings.ToLower(strings.TrimSpace(name)), cfg, client)
		if err != nil {
			return nil, err
		}
		srcs = append(srcs, src)
	}

	recs, err := sources.FetchAll(ctx, srcs, taxon, cfg.Parallelism)
	if err != nil {
		return nil, err
	}

	var w io.Writer = env.Out
	if opts.Out != "" && opts.Out != "-" {
		f, err := os.Create(opts.Out)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		w = f
	}
	if err := sources.WriteTSV(w, recs); err != nil {
		return nil, err
	}
	env.Log().Info("fetched accessions",
		zap.String("taxon", taxon),
		zap.Strings("sources", names),
		zap.Int("records", len(recs)))
	return recs, nil
}
