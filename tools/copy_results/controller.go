// Package copy_results copies BUSCO short summaries to a remote host with scp,
// renamed <accession>.<lineage>.short_summary.txt.
package copy_results

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"molluscdb_ops/accession"
	"molluscdb_ops/app"
	"molluscdb_ops/busco"
	"molluscdb_ops/runner"
	common "molluscdb_ops/utils"
)

type Options struct {
	Root        string
	Destination string // scp target, host:path
	Lineages    []string
}

func NewCommand(env *app.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "copy_results <root> <destination> <lineage>...",
		Short: "scp BUSCO short summaries to a remote results directory",
		Long: `For every <root>/<dir>/run_<lineage>/short_summary.json, copies the
neighbouring short_summary.txt to <destination>/<accession>.<lineage>.short_summary.txt.
An empty <destination> ("") uses remote.host and remote.path from the config.`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.Execute(cmd, args, func() error {
				_, err := Run(cmd.Context(), env, Options{Root: args[0], Destination: args[1], Lineages: args[2:]})
				return err
			})
		},
	}
}

// Destination resolves the scp target, falling back to the remote config.
func Destination(env *app.Env, dest string) (string, error) {
	if dest != "" {
		return dest, nil
	}
	remote := env.Settings.Remote
	if remote.Host == "" {
		return "", fmt.Errorf("no destination given and remote.host is not configured")
	}
	return remote.Host + ":" + remote.Path, nil
}

// remoteJoin appends name to an scp destination. A bare "host:" or a path
// ending in "/" takes name as is so the file lands relative to that point.
func remoteJoin(dest, name string) string {
	path := dest
	if i := strings.Index(dest, ":"); i >= 0 {
		path = dest[i+1:]
	}
	if path == "" || strings.HasSuffix(path, "/") {
		return dest + name
	}
	return dest + "/" + name
}

// Run invokes one scp per run found and returns the remote targets written.
func Run(ctx context.Context, env *app.Env, opts Options) ([]string, error) {
	if err := common.RequireDir(opts.Root); err != nil {
		return nil, err
	}
	dest, err := Destination(env, opts.Destination)
	if err != nil {
		return nil, err
	}
	log := env.Log().With(zap.String("tool", "copy_results"))
	scp := env.Settings.Execution.ScpBinary
	if scp == "" {
		scp = "scp"
	}

	runs, err := busco.FindRuns(opts.Root, opts.Lineages)
	if err != nil {
		return nil, err
	}

	var copied []string
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
		local := run.Path(busco.SummaryText)
		if !common.FileExists(local) {
			log.Debug("no short_summary.txt", zap.String("run", run.RunDir))
			continue
		}

		target := remoteJoin(dest, acc+"."+run.Lineage+".short_summary.txt")
		cmd := runner.Command{Name: scp, Args: []string{local, target}}
		if _, err := env.Runner.Run(ctx, cmd); err != nil {
			return copied, fmt.Errorf("copy %s: %w", local, err)
		}
		copied = append(copied, target)
		fmt.Fprintln(env.Out, target)
	}
	log.Info("copied summaries", zap.Int("count", len(copied)), zap.String("destination", dest))
	return copied, nil
}
