// Package busco_upload pushes BUSCO run summaries to object storage under
// <prefix>/<accession>/busco/<lineage>/.
package busco_upload

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"molluscdb_ops/accession"
	"molluscdb_ops/app"
	"molluscdb_ops/busco"
	"molluscdb_ops/storage"
	common "molluscdb_ops/utils"
)

// Options for one run.
type Options struct {
	Root     string
	Lineages []string
}

func NewCommand(env *app.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "busco_upload <root> <lineage>...",
		Short: "Upload BUSCO summaries found under run_<lineage> directories",
		Long: `Looks for <root>/<dir>/run_<lineage>/short_summary.json, derives the
assembly accession from the summary's input path and uploads the summary
(plus short_summary.txt and full_table.tsv when present) to
<prefix>/<accession>/busco/<lineage>/.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.Execute(cmd, args, func() error {
				_, err := Run(cmd.Context(), env, Options{Root: args[0], Lineages: args[1:]})
				return err
			})
		},
	}
}

// Run uploads every summary it finds and returns the keys written.
func Run(ctx context.Context, env *app.Env, opts Options) ([]string, error) {
	if err := common.RequireDir(opts.Root); err != nil {
		return nil, err
	}
	log := env.Log().With(zap.String("tool", "busco_upload"))

	runs, err := busco.FindRuns(opts.Root, opts.Lineages)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		log.Info("no BUSCO summaries found", zap.String("root", opts.Root), zap.Strings("lineages", opts.Lineages))
		return nil, nil
	}

	store, err := env.Store(ctx)
	if err != nil {
		return nil, err
	}
	prefix := env.StoragePrefix()

	var uploaded []string
	for _, run := range runs {
		summary, err := busco.ReadSummary(run.Path(busco.SummaryJSON))
		if err != nil {
			log.Warn("skipping unreadable summary", zap.String("run", run.RunDir), zap.Error(err))
			continue
		}
		acc, err := accession.FromPath(summary.Parameters.In)
		if err != nil {
			log.Warn("skipping summary without accession", zap.String("run", run.RunDir), zap.Error(err))
			continue
		}

		for _, name := range []string{busco.SummaryJSON, busco.SummaryText, busco.FullTable} {
			local := run.Path(name)
			if !common.FileExists(local) {
				continue
			}
			key := storage.Key(prefix, acc, "busco", run.Lineage, name)
			if err := storage.PutFile(ctx, store, local, key, storage.PutOptions{Public: true}); err != nil {
				return uploaded, err
			}
			uploaded = append(uploaded, key)
			fmt.Fprintln(env.Out, store.URI(key))
		}
		fields := append([]zap.Field{
			zap.String("accession", acc),
			zap.String("lineage", run.Lineage),
			zap.String("dir", filepath.Base(run.Dir)),
		}, scoreFields(log, summary, run)...)
		log.Info("uploaded BUSCO run", fields...)
	}
	return uploaded, nil
}

// scoreFields reports the run's scores from the JSON one-line summary, or
// from short_summary.txt when the JSON has none.
func scoreFields(log *zap.Logger, summary *busco.Summary, run busco.Run) []zap.Field {
	if line := summary.OneLine(); line != "" {
		return []zap.Field{zap.String("summary", line)}
	}
	text := run.Path(busco.SummaryText)
	if !common.FileExists(text) {
		return nil
	}
	sc, err := busco.ReadSummaryText(text)
	if err != nil {
		log.Debug("no scores in short_summary.txt", zap.String("run", run.RunDir), zap.Error(err))
		return nil
	}
	return []zap.Field{
		zap.Float64("complete", sc.Complete),
		zap.Float64("fragmented", sc.Fragmented),
		zap.Float64("missing", sc.Missing),
		zap.Int("n", sc.Total),
	}
}
