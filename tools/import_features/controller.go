// Package import_features turns the window statistics and BUSCO tables stored
// per assembly into genomehubs feature TSVs and their types files.
package import_features

import (
	"context"
	"fmt"
	"os"
	"path"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"molluscdb_ops/app"
	"molluscdb_ops/busco"
	"molluscdb_ops/storage"
	common "molluscdb_ops/utils"
)

type Options struct {
	Templates string // directory of TEMPLATE_<name>.yaml files
	Out       string
}

func NewCommand(env *app.Env) *cobra.Command {
	opts := Options{}
	cmd := &cobra.Command{
		Use:   "import_features -c <template dir>",
		Short: "Build genomehubs feature files from window stats and BUSCO tables in the bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.Execute(cmd, args, func() error {
				_, err := Run(cmd.Context(), env, opts)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&opts.Templates, "templates", "c", "", "directory holding TEMPLATE_*.yaml files")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", ".", "directory the feature files are written to")
	cmd.MarkFlagRequired("templates")
	return cmd
}

type importer struct {
	store     storage.Store
	templates string
	out       string
	log       *zap.Logger
	written   []string
}

// Run processes every assembly with a stats/ directory and returns the files written.
func Run(ctx context.Context, env *app.Env, opts Options) ([]string, error) {
	if err := common.RequireDir(opts.Templates); err != nil {
		return nil, err
	}
	out := opts.Out
	if out == "" {
		out = "."
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return nil, err
	}
	store, err := env.Store(ctx)
	if err != nil {
		return nil, err
	}
	prefix := env.StoragePrefix()
	imp := &importer{
		store:     store,
		templates: opts.Templates,
		out:       out,
		log:       env.Log().With(zap.String("tool", "import_features"), zap.String("prefix", prefix)),
	}

	assemblies, err := store.ListDirs(ctx, prefix)
	if err != nil {
		return nil, err
	}
	for _, acc := range assemblies {
		dir := storage.Key(prefix, acc)
		subdirs, err := store.ListDirs(ctx, dir)
		if err != nil {
			return imp.written, err
		}
		if !slices.Contains(subdirs, "stats") {
			continue
		}
		vars, err := imp.assemblyVars(ctx, dir, acc)
		if err != nil {
			return imp.written, err
		}
		if err := imp.windowStats(ctx, dir, vars); err != nil {
			return imp.written, fmt.Errorf("%s: %w", acc, err)
		}
		if err := imp.busco(ctx, dir, vars); err != nil {
			return imp.written, fmt.Errorf("%s: %w", acc, err)
		}
	}
	for _, p := range imp.written {
		fmt.Fprintln(env.Out, p)
	}
	return imp.written, nil
}

// assemblyVars is assembly_info.json flattened to strings plus assembly_id.
func (imp *importer) assemblyVars(ctx context.Context, dir, acc string) (map[string]string, error) {
	var info map[string]any
	if err := storage.GetJSON(ctx, imp.store, storage.Key(dir, "assembly_info.json"), &info); err != nil {
		return nil, err
	}
	vars := make(map[string]string, len(info)+1)
	for k, v := range info {
		switch t := v.(type) {
		case string:
			vars[k] = t
		case float64:
			vars[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case nil:
		default:
			vars[k] = fmt.Sprint(t)
		}
	}
	vars["assembly_id"] = acc
	return vars, nil
}

func with(vars map[string]string, key, value string) map[string]string {
	out := make(map[string]string, len(vars)+1)
	for k, v := range vars {
		out[k] = v
	}
	out[key] = value
	return out
}

// windowSize extracts <size> from window_stats.<size>.tsv; "" for the
// per-sequence window_stats.tsv.
func windowSize(key string) string {
	base := path.Base(key)
	i := strings.Index(base, "window_stats.")
	j := strings.LastIndex(base, ".tsv")
	if i < 0 || j < 0 {
		return ""
	}
	start := i + len("window_stats.")
	if j <= start {
		return ""
	}
	return base[start:j]
}

func (imp *importer) windowStats(ctx context.Context, dir string, vars map[string]string) error {
	keys, err := imp.store.List(ctx, storage.DirPrefix(storage.Key(dir, "stats")))
	if err != nil {
		return err
	}
	windows := make(map[string]string)
	for _, key := range keys {
		if !strings.Contains(path.Base(key), "window_stats") {
			continue
		}
		if size := windowSize(key); size != "" {
			windows[size] = key
			continue
		}

		tpl, err := LoadTemplate(imp.templates, "window_stats", vars)
		if err != nil {
			return err
		}
		rows, err := imp.readTSV(ctx, key, []string{"chromosome", "toplevel", "sequence"})
		if err != nil {
			return err
		}
		span, err := imp.span(key, rows)
		if err != nil {
			return err
		}
		if err := imp.write(tpl.With(map[string]string{"span": strconv.FormatInt(span, 10)}), rows, vars); err != nil {
			return err
		}
	}

	sizes := make([]string, 0, len(windows))
	for size := range windows {
		sizes = append(sizes, size)
	}
	sort.Strings(sizes)
	for _, size := range sizes {
		tpl, err := LoadTemplate(imp.templates, "window_stats.WINDOW", with(vars, "window", size))
		if err != nil {
			return err
		}
		rows, err := imp.readTSV(ctx, windows[size], []string{"window-" + size, "window"})
		if err != nil {
			return err
		}
		if err := imp.write(tpl, rows, vars); err != nil {
			return err
		}
	}
	return nil
}

// span is the summed sequence length.
func (imp *importer) span(key string, rows []Row) (int64, error) {
	lengths := make([]float64, 0, len(rows))
	for i, row := range rows {
		n, err := strconv.ParseFloat(row.Values["length"], 64)
		if err != nil {
			return 0, fmt.Errorf("%s row %d: bad length %q", key, i+1, row.Values["length"])
		}
		lengths = append(lengths, n)
	}
	span := int64(floats.Sum(lengths))
	if len(lengths) > 0 {
		mean, std := stat.MeanStdDev(lengths, nil)
		imp.log.Info("sequence lengths",
			zap.String("file", key),
			zap.Int("sequences", len(lengths)),
			zap.Int64("span", span),
			zap.Float64("mean", mean),
			zap.Float64("stddev", std))
	}
	return span, nil
}

func (imp *importer) busco(ctx context.Context, dir string, vars map[string]string) error {
	lineages, err := imp.store.ListDirs(ctx, storage.Key(dir, "busco"))
	if err != nil {
		return err
	}
	for _, lineage := range lineages {
		tpl, err := LoadTemplate(imp.templates, "busco", with(vars, "lineage", lineage))
		if err != nil {
			return err
		}
		key := storage.Key(dir, "busco", lineage, busco.FullTable)
		rc, err := imp.store.Get(ctx, key)
		if err != nil {
			imp.log.Warn("no BUSCO table", zap.String("key", key), zap.Error(err))
			continue
		}
		table, err := busco.ReadRows(rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		rows := make([]Row, len(table))
		for i, r := range table {
			rows[i] = Row{Values: r, FeatureType: []string{lineage + "-busco-gene", "busco-gene", "gene"}}
		}
		if err := imp.write(tpl, rows, vars); err != nil {
			return err
		}
	}
	return nil
}

// readTSV reads a header-led TSV from the bucket. A leading '#' on the
// header is ignored.
func (imp *importer) readTSV(ctx context.Context, key string, featureType []string) ([]Row, error) {
	rc, err := imp.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	r, err := common.MaybeGunzip(rc)
	if err != nil {
		return nil, err
	}

	var header []string
	var rows []Row
	err = common.StreamLines(r, func(_ int, line string) error {
		cols := strings.Split(line, "\t")
		if header == nil {
			cols[0] = strings.TrimSpace(strings.TrimLeft(cols[0], "#"))
			header = cols
			return nil
		}
		values := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(cols) {
				values[name] = cols[i]
			}
		}
		rows = append(rows, Row{Values: values, FeatureType: featureType})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return rows, nil
}

func (imp *importer) write(tpl *Template, rows []Row, defaults map[string]string) error {
	paths, err := tpl.WritePair(imp.out, rows, defaults)
	if err != nil {
		return err
	}
	imp.written = append(imp.written, paths...)
	imp.log.Info("wrote features", zap.String("file", paths[0]), zap.Int("rows", len(rows)))
	return nil
}
