package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"molluscdb_ops/app"
	"molluscdb_ops/config"
	"molluscdb_ops/logging"
	"molluscdb_ops/runner"
	"molluscdb_ops/tools/accession_upload"
	"molluscdb_ops/tools/busco_overlap"
	"molluscdb_ops/tools/busco_upload"
	"molluscdb_ops/tools/copy_results"
	"molluscdb_ops/tools/fetch"
	"molluscdb_ops/tools/files_index"
	"molluscdb_ops/tools/import_features"
	"molluscdb_ops/tools/index_pipeline"
	"molluscdb_ops/tools/raw_upload"
	"molluscdb_ops/tools/rename_accession"
	"molluscdb_ops/tools/sanity_check"
)

// printCustomHelp formats a custom help menu
func printCustomHelp(w io.Writer) {
	fmt.Fprint(w, `MolluscDB Ops - Custom Help Menu
Usage:
  molluscdb_ops <tool> [options]

Tools:
  busco_upload		Upload BUSCO summaries to object storage
  copy_results		scp BUSCO short summaries to the results host
  accession_upload	Upload assembly files listed in a datasets report
  fetch			List accessions for a taxon from the public APIs
  index			Delete ES indices, genomehubs init, genomehubs index
  raw_upload		Upload the files named in a YAML manifest
  files_index		Index analysis files present in the bucket
  import_features	Build feature TSVs from bucket stats and BUSCO tables
  rename_accession	Move objects from a GCF_ to a GCA_ accession
  busco_overlap		Compare gene placements of two BUSCO runs
  check			Run diagnostic test

Global Flags:
  -h, --help		Show this help message
  -v, --version		Show version information
  --config		Settings file (default molluscdb_ops.yaml)
  --prefix		Storage key prefix (default storage.prefix, else YYYY-MM)
  --verbose		Debug logging and streamed command output

Benchmarking:
  --benchmark		Must be used in associtation with a tool.
			Logs computational resource usage and
			pertinent operating system information
`)
}

func printVersion(w io.Writer) {
	fmt.Fprintln(w, "MolluscDB Ops - Version Information Menu")
	fmt.Fprintln(w, "Central Executable:")
	fmt.Fprintf(w, "\tmolluscdb_ops:\t\t%s\n", config.Main_version)
	fmt.Fprintf(w, "\nModular tools:\n")
	fmt.Fprintf(w, "\tBUSCO Upload:\t\t%s\n", config.Busco_Upload)
	fmt.Fprintf(w, "\tCopy Results:\t\t%s\n", config.Copy_Results)
	fmt.Fprintf(w, "\tAccession Upload:\t%s\n", config.Accession_Upload)
	fmt.Fprintf(w, "\tFetch:\t\t\t%s\n", config.Fetch)
	fmt.Fprintf(w, "\tIndex Pipeline:\t\t%s\n", config.Index_Pipeline)
	fmt.Fprintf(w, "\tRaw Upload:\t\t%s\n", config.Raw_Upload)
	fmt.Fprintf(w, "\tFiles Index:\t\t%s\n", config.Files_Index)
	fmt.Fprintf(w, "\tImport Features:\t%s\n", config.Import_Features)
	fmt.Fprintf(w, "\tRename Accession:\t%s\n", config.Rename_Accession)
	fmt.Fprintf(w, "\tBUSCO Overlap:\t\t%s\n", config.Busco_Overlap)
	fmt.Fprintf(w, "\tSanity Check:\t\t%s\n", config.Sanity_check)
	fmt.Fprintf(w, "\tBenchmark:\t\t%s\n", config.Benchmark)
	fmt.Fprintln(w)
}

// newRootCommand wires every tool to env. Settings, logger and runner are
// filled in before any tool runs; a preset Logger, Runner or OpenStore is kept.
func newRootCommand(env *app.Env) *cobra.Command {
	var (
		configPath  string
		verbose     bool
		showVersion bool
	)
	root := &cobra.Command{
		Use:           "molluscdb_ops <tool> [options]",
		Short:         "Data operations for the MolluscDB genome hub",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := settings.Validate(); err != nil {
				return err
			}
			if env.Logger == nil {
				logger, err := logging.New(settings.Logging, verbose)
				if err != nil {
					return err
				}
				env.Logger = logger
			}
			logger := env.Logger
			env.Settings = settings
			env.Out = cmd.OutOrStdout()
			env.Now = time.Now
			if env.Runner == nil {
				r := runner.NewExecRunner(settings.ExecutionTimeout(), logger)
				if verbose {
					r.Stream = cmd.ErrOrStderr()
				}
				env.Runner = r
			}
			logger.Debug("settings loaded", zap.String("config", configPath), zap.String("bucket", settings.Storage.Bucket))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				printVersion(cmd.OutOrStdout())
				return nil
			}
			printCustomHelp(cmd.OutOrStdout())
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configPath, "config", config.DefaultPath, "settings file")
	pf.BoolVar(&verbose, "verbose", false, "debug logging")
	pf.BoolVar(&env.Benchmark, "benchmark", false, "log resource usage of the tool run")
	pf.StringVar(&env.Prefix, "prefix", "", "storage key prefix")
	root.Flags().BoolVarP(&showVersion, "version", "v", false, "show version information")

	defaultHelp := root.HelpFunc()
	root.SetHelpFunc(func(c *cobra.Command, args []string) {
		if c == root {
			printCustomHelp(c.OutOrStdout())
			return
		}
		defaultHelp(c, args)
	})

	root.AddCommand(
		busco_upload.NewCommand(env),
		copy_results.NewCommand(env),
		accession_upload.NewCommand(env),
		fetch.NewCommand(env),
		index_pipeline.NewCommand(env),
		raw_upload.NewCommand(env),
		files_index.NewCommand(env),
		import_features.NewCommand(env),
		rename_accession.NewCommand(env),
		busco_overlap.NewCommand(env),
		sanity_check.NewCommand(env),
	)
	return root
}

// runRoot executes root and flushes the logger, also when the tool failed.
func runRoot(ctx context.Context, root *cobra.Command, env *app.Env) error {
	err := root.ExecuteContext(ctx)
	if env.Logger != nil {
		_ = env.Logger.Sync()
	}
	return err
}

// Main controller
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	env := &app.Env{}
	err := runRoot(ctx, newRootCommand(env), env)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
