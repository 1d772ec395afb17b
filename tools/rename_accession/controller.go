// Package rename_accession moves everything stored under a RefSeq (GCF_)
// accession to its GenBank (GCA_) twin.
package rename_accession

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"molluscdb_ops/accession"
	"molluscdb_ops/app"
	"molluscdb_ops/storage"
)

type Options struct {
	GCF string
	GCA string
}

func NewCommand(env *app.Env) *cobra.Command {
	opts := Options{}
	cmd := &cobra.Command{
		Use:   "rename_accession --gcf GCF_... --gca GCA_...",
		Short: "Move objects from <prefix>/<gcf>/ to <prefix>/<gca>/",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.Execute(cmd, args, func() error {
				_, err := Run(cmd.Context(), env, opts)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&opts.GCF, "gcf", "", "RefSeq accession to move from")
	cmd.Flags().StringVar(&opts.GCA, "gca", "", "GenBank accession to move to")
	cmd.MarkFlagRequired("gcf")
	cmd.MarkFlagRequired("gca")
	return cmd
}

// Run copies then deletes every object and returns the new keys.
func Run(ctx context.Context, env *app.Env, opts Options) ([]string, error) {
	for _, acc := range []string{opts.GCF, opts.GCA} {
		if !accession.IsValid(acc) {
			return nil, fmt.Errorf("%q is not an assembly accession", acc)
		}
	}
	if !accession.IsRefSeq(opts.GCF) {
		return nil, fmt.Errorf("--gcf %s is not a RefSeq (GCF_) accession", opts.GCF)
	}
	if accession.IsRefSeq(opts.GCA) {
		return nil, fmt.Errorf("--gca %s is not a GenBank (GCA_) accession", opts.GCA)
	}
	store, err := env.Store(ctx)
	if err != nil {
		return nil, err
	}
	prefix := env.StoragePrefix()
	log := env.Log().With(zap.String("tool", "rename_accession"), zap.String("from", opts.GCF), zap.String("to", opts.GCA))

	keys, err := store.List(ctx, storage.DirPrefix(storage.Key(prefix, opts.GCF)))
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		log.Warn("nothing stored under accession", zap.String("prefix", prefix))
		return nil, nil
	}

	moved := make([]string, 0, len(keys))
	for _, key := range keys {
		dst := strings.ReplaceAll(key, opts.GCF, opts.GCA)
		if err := store.Copy(ctx, key, dst); err != nil {
			return moved, fmt.Errorf("copy %s: %w", store.URI(key), err)
		}
		if err := store.Delete(ctx, key); err != nil {
			return moved, fmt.Errorf("delete %s: %w", store.URI(key), err)
		}
		moved = append(moved, dst)
		fmt.Fprintln(env.Out, store.URI(key), "->", store.URI(dst))
	}
	log.Info("moved objects", zap.Int("count", len(moved)))
	return moved, nil
}
