// Package files_index builds the genomehubs "files" TSV describing which
// analysis files exist in the bucket for every assembly.
package files_index

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"molluscdb_ops/app"
	"molluscdb_ops/datasets"
	"molluscdb_ops/storage"
	common "molluscdb_ops/utils"
)

const allRuns = "all"

type Options struct {
	Types     string
	Attribute string
	Out       string // overrides file.name
}

func NewCommand(env *app.Env) *cobra.Command {
	opts := Options{}
	cmd := &cobra.Command{
		Use:   "files_index -c files.types.yaml",
		Short: "Index the analysis files present in the bucket into a genomehubs TSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.Execute(cmd, args, func() error {
				_, err := Run(cmd.Context(), env, opts)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&opts.Types, "types", "c", "", "genomehubs files.types.yaml")
	cmd.Flags().StringVar(&opts.Attribute, "attribute", "files", "attribute whose file_paths are indexed")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output TSV (default file.name next to the config)")
	cmd.MarkFlagRequired("types")
	return cmd
}

// Entry is one assembly's row: column -> values.
type Entry map[string][]string

func (e Entry) add(col, value string) {
	e[col] = append(e[col], value)
}

func (e Entry) addOnce(col, value string) {
	if !slices.Contains(e[col], value) {
		e.add(col, value)
	}
}

// Run writes the TSV and returns its rows.
func Run(ctx context.Context, env *app.Env, opts Options) ([]Entry, error) {
	if err := common.RequireFile(opts.Types); err != nil {
		return nil, err
	}
	types, err := ReadTypes(opts.Types)
	if err != nil {
		return nil, err
	}
	attribute := opts.Attribute
	if attribute == "" {
		attribute = "files"
	}
	analyses, err := types.Analyses(attribute)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opts.Types, err)
	}

	store, err := env.Store(ctx)
	if err != nil {
		return nil, err
	}
	prefix := env.StoragePrefix()
	log := env.Log().With(zap.String("tool", "files_index"), zap.String("prefix", prefix))

	assemblies, err := store.ListDirs(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var rows []Entry
	for _, acc := range assemblies {
		dir := storage.Key(prefix, acc)
		entry, err := indexAssembly(ctx, store, dir, acc, attribute, analyses)
		if err != nil {
			log.Warn("skipping assembly", zap.String("assembly", acc), zap.Error(err))
			continue
		}
		rows = append(rows, entry)
	}

	out := opts.Out
	if out == "" {
		out = types.OutputPath()
	}
	if err := writeFile(out, Columns(rows, attribute), rows); err != nil {
		return rows, err
	}
	log.Info("wrote files index", zap.String("path", out), zap.Int("assemblies", len(rows)))
	return rows, nil
}

func indexAssembly(ctx context.Context, store storage.Store, dir, acc, attribute string, analyses map[string]Analysis) (Entry, error) {
	var info struct {
		TaxonID datasets.TaxonID `json:"taxon_id"`
	}
	if err := storage.GetJSON(ctx, store, storage.Key(dir, "assembly_info.json"), &info); err != nil {
		return nil, err
	}
	entry := Entry{"assembly_id": {acc}, "taxon_id": {string(info.TaxonID)}}

	subdirs, err := store.ListDirs(ctx, dir)
	if err != nil {
		return nil, err
	}
	for _, sub := range subdirs {
		analysis, ok := analyses[sub]
		if !ok {
			continue
		}
		runs := []string{allRuns}
		if !analysis.All {
			if runs, err = store.ListDirs(ctx, storage.Key(dir, sub)); err != nil {
				return nil, err
			}
		}
		runCol := attribute + "." + sub + ".run"
		found := false
		for _, key := range analysis.FileKeys() {
			for _, run := range runs {
				path := storage.Key(dir, sub, run, analysis.Files[key])
				if run == allRuns {
					path = storage.Key(dir, sub, analysis.Files[key])
				}
				ok, err := store.Exists(ctx, path)
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}
				entry.add(attribute+"."+sub+"."+run, key)
				found = true
				if run != allRuns {
					entry.addOnce(runCol, run)
				} else if len(entry[runCol]) == 0 {
					if id := runValue(ctx, store, dir, sub); id != "" {
						entry.add(runCol, id)
					}
				}
			}
		}
		if found {
			entry.add(attribute, sub)
		}
	}
	return entry, nil
}

// runValue names an "all" run: the dataset id for BlobToolKit, nothing otherwise.
func runValue(ctx context.Context, store storage.Store, dir, analysis string) string {
	if analysis != "blobtoolkit" {
		return ""
	}
	var meta struct {
		ID string `json:"id"`
	}
	if err := storage.GetJSON(ctx, store, storage.Key(dir, analysis, "blobdir", "meta.json.gz"), &meta); err != nil {
		return ""
	}
	return meta.ID
}

// Columns is assembly_id, taxon_id and attribute followed by every other
// column seen in rows, sorted.
func Columns(rows []Entry, attribute string) []string {
	fixed := []string{"assembly_id", "taxon_id", attribute}
	seen := make(map[string]bool)
	var rest []string
	for _, row := range rows {
		for col := range row {
			if seen[col] || slices.Contains(fixed, col) {
				continue
			}
			seen[col] = true
			rest = append(rest, col)
		}
	}
	sort.Strings(rest)
	return append(fixed, rest...)
}

// WriteTSV writes a header row then one row per entry, list values joined with ';'.
func WriteTSV(w io.Writer, columns []string, rows []Entry) error {
	if _, err := fmt.Fprintln(w, strings.Join(columns, "\t")); err != nil {
		return err
	}
	fields := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			fields[i] = strings.Join(row[col], ";")
		}
		if _, err := fmt.Fprintln(w, strings.Join(fields, "\t")); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, columns []string, rows []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteTSV(f, columns, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
