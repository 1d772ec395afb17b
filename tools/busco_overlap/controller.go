// Package busco_overlap compares where two BUSCO runs placed the same genes
// and reports how much each pair of calls overlaps.
package busco_overlap

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"molluscdb_ops/app"
	"molluscdb_ops/busco"
	common "molluscdb_ops/utils"
)

type Options struct {
	Table1 string
	Table2 string
	Out    string
	Image  string // "" skips the plot
}

func NewCommand(env *app.Env) *cobra.Command {
	opts := Options{}
	cmd := &cobra.Command{
		Use:   "busco_overlap <full_table1.tsv> <full_table2.tsv> <out.tsv>",
		Short: "Tabulate and plot the overlap between two BUSCO full tables",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Table1, opts.Table2, opts.Out = args[0], args[1], args[2]
			return env.Execute(cmd, args, func() error {
				_, err := Run(cmd.Context(), env, opts)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&opts.Image, "image", "output.png", "PNG to draw the overlaps into (empty to skip)")
	return cmd
}

// Summary describes a comparison.
type Summary struct {
	Pairs          int
	Unmatched      int
	MeanOverlap    float64
	MedianOverlap  float64
	MeanNonOverlap float64
}

// Summarise computes Summary over overlaps.
func Summarise(overlaps []busco.Overlap) Summary {
	s := Summary{Pairs: len(overlaps)}
	if len(overlaps) == 0 {
		return s
	}
	lengths := make([]float64, 0, len(overlaps))
	non := make([]float64, 0, len(overlaps))
	for _, o := range overlaps {
		if o.ID2 == "" {
			s.Unmatched++
		}
		lengths = append(lengths, float64(o.Length))
		non = append(non, float64(o.NonOverlap1+o.NonOverlap2))
	}
	s.MeanOverlap = stat.Mean(lengths, nil)
	s.MeanNonOverlap = stat.Mean(non, nil)

	sorted := append([]float64(nil), lengths...)
	sort.Float64s(sorted)
	s.MedianOverlap = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	return s
}

// Run compares the tables, writes the TSV and the plot and returns the rows
// in the order written.
func Run(_ context.Context, env *app.Env, opts Options) ([]busco.Overlap, error) {
	for _, path := range []string{opts.Table1, opts.Table2} {
		if err := common.RequireFile(path); err != nil {
			return nil, err
		}
	}
	set1, err := busco.ReadHitsFile(opts.Table1)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opts.Table1, err)
	}
	set2, err := busco.ReadHitsFile(opts.Table2)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opts.Table2, err)
	}
	overlaps := busco.FindOverlaps(set1, set2)

	busco.SortForPlot(overlaps)
	if opts.Image != "" {
		p, err := OverlapPlot(overlaps)
		if err != nil {
			return nil, err
		}
		if err := SavePNG(p, opts.Image); err != nil {
			return nil, fmt.Errorf("write %s: %w", opts.Image, err)
		}
	}

	busco.SortByLength(overlaps)
	f, err := os.Create(opts.Out)
	if err != nil {
		return nil, err
	}
	if err := busco.WriteOverlaps(f, overlaps); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	s := Summarise(overlaps)
	env.Log().Info("compared BUSCO tables",
		zap.String("table1", opts.Table1),
		zap.String("table2", opts.Table2),
		zap.Int("genes1", set1.Len()),
		zap.Int("genes2", set2.Len()),
		zap.Int("pairs", s.Pairs),
		zap.Int("unmatched", s.Unmatched),
		zap.Float64("mean_overlap", s.MeanOverlap),
		zap.Float64("median_overlap", s.MedianOverlap),
		zap.Float64("mean_non_overlap", s.MeanNonOverlap))
	return overlaps, nil
}
