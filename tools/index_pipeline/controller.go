// Package index_pipeline rebuilds the hub's search indices: wipe the matching
// Elasticsearch indices, then genomehubs init, then genomehubs index.
package index_pipeline

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"molluscdb_ops/app"
	"molluscdb_ops/config"
	"molluscdb_ops/pipeline"
	"molluscdb_ops/runner"
	"molluscdb_ops/search"
)

const (
	Done   = "done"
	Failed = "failed"
)

type Options struct {
	ConfigFile     string
	TaxonomySource string
	Directory      string
	IndexPattern   string
}

// withDefaults fills unset options from the genomehubs and elasticsearch config.
func (o Options) withDefaults(s *config.Settings) Options {
	if o.ConfigFile == "" {
		o.ConfigFile = s.Genomehubs.ConfigFile
	}
	if o.TaxonomySource == "" {
		o.TaxonomySource = s.Genomehubs.TaxonomySource
	}
	if o.Directory == "" {
		o.Directory = s.Genomehubs.Directory
	}
	if o.IndexPattern == "" {
		o.IndexPattern = s.Elasticsearch.IndexPattern
	}
	return o
}

func NewCommand(env *app.Env) *cobra.Command {
	opts := Options{}
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Delete Elasticsearch indices, then run genomehubs init and genomehubs index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.Execute(cmd, args, func() error {
				return Run(cmd.Context(), env, opts)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ConfigFile, "config-file", "", "genomehubs config file (default genomehubs.config_file)")
	cmd.Flags().StringVar(&opts.TaxonomySource, "taxonomy-source", "", "genomehubs taxonomy source (default genomehubs.taxonomy_source)")
	cmd.Flags().StringVar(&opts.Directory, "directory", "", "directory passed to genomehubs index (default genomehubs.directory)")
	cmd.Flags().StringVar(&opts.IndexPattern, "index-pattern", "", "indices to delete first (default elasticsearch.index_pattern)")
	return cmd
}

// Steps builds the three steps in order.
func Steps(env *app.Env, es *search.Client, opts Options) []pipeline.Step {
	bin := env.Settings.Genomehubs.Binary
	if bin == "" {
		bin = "genomehubs"
	}
	genomehubs := func(sub string, extra ...string) func(context.Context) error {
		args := append([]string{sub, "--config-file", opts.ConfigFile, "--taxonomy-source", opts.TaxonomySource}, extra...)
		return func(ctx context.Context) error {
			_, err := env.Runner.Run(ctx, runner.Command{Name: bin, Args: args})
			return err
		}
	}
	return []pipeline.Step{
		{Name: "delete indices", Run: func(ctx context.Context) error { return es.DeleteIndices(ctx, opts.IndexPattern) }},
		{Name: "genomehubs init", Run: genomehubs("init")},
		{Name: "genomehubs index", Run: genomehubs("index", "--directory", opts.Directory)},
	}
}

// Run prints "done" when every step succeeds and "failed" otherwise.
func Run(ctx context.Context, env *app.Env, opts Options) error {
	opts = opts.withDefaults(env.Settings)
	es := search.NewClient(env.Settings.Elasticsearch.URL, env.Settings.ElasticsearchTimeout(), env.Log())
	defer es.HTTP.CloseIdleConnections()

	p := pipeline.New(env.Log().With(zap.String("tool", "index")), Steps(env, es, opts)...)
	if _, err := p.Run(ctx); err != nil {
		fmt.Fprintln(env.Out, Failed)
		return err
	}
	fmt.Fprintln(env.Out, Done)
	return nil
}
