// Package accession_upload walks an NCBI Datasets JSON-lines report and
// uploads each assembly's files from its species directory.
package accession_upload

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"molluscdb_ops/accession"
	"molluscdb_ops/app"
	"molluscdb_ops/datasets"
	"molluscdb_ops/storage"
	common "molluscdb_ops/utils"
)

const infoName = "assembly_info.json"

type Options struct {
	Root    string // holds one <Genus_species> directory per organism
	Reports string // JSON lines, optionally gzipped
}

func NewCommand(env *app.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "accession_upload <root> <reports.jsonl[.gz]>",
		Short: "Upload assembly files and assembly_info.json per accession",
		Long: `Reads one assembly report per line, finds <root>/<Genus_species>, writes and
uploads <prefix>/<accession>/assembly_info.json, then uploads every file in
the species directory named for that accession to <prefix>/<accession>/assembly/.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.Execute(cmd, args, func() error {
				_, err := Run(cmd.Context(), env, Options{Root: args[0], Reports: args[1]})
				return err
			})
		},
	}
}

// Run processes every report line and returns the keys uploaded.
func Run(ctx context.Context, env *app.Env, opts Options) ([]string, error) {
	if err := common.RequireDir(opts.Root); err != nil {
		return nil, err
	}
	if err := common.RequireFile(opts.Reports); err != nil {
		return nil, err
	}
	log := env.Log().With(zap.String("tool", "accession_upload"))

	rc, err := common.OpenMaybeGzip(opts.Reports)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	prefix := env.StoragePrefix()
	var uploaded []string
	err = datasets.ReadLines(rc, func(rep *datasets.Report) error {
		dir := filepath.Join(opts.Root, rep.DirName())
		if common.RequireDir(dir) != nil {
			log.Debug("no species directory", zap.String("accession", rep.Accession), zap.String("dir", dir))
			return nil
		}
		store, err := env.Store(ctx)
		if err != nil {
			return err
		}

		key, err := uploadInfo(ctx, store, dir, prefix, rep)
		if err != nil {
			return err
		}
		uploaded = append(uploaded, key)
		fmt.Fprintln(env.Out, store.URI(key))

		files, err := matchingFiles(dir, rep.Accession)
		if err != nil {
			return err
		}
		for _, name := range files {
			key := storage.Key(prefix, rep.Accession, "assembly", name)
			if err := storage.PutFile(ctx, store, filepath.Join(dir, name), key, storage.PutOptions{Public: true}); err != nil {
				return err
			}
			uploaded = append(uploaded, key)
			fmt.Fprintln(env.Out, store.URI(key))
		}
		log.Info("uploaded assembly",
			zap.String("accession", rep.Accession),
			zap.String("organism", rep.Organism.OrganismName),
			zap.Int("files", len(files)))
		return nil
	})
	if err != nil {
		return uploaded, fmt.Errorf("%s: %w", opts.Reports, err)
	}
	return uploaded, nil
}

// uploadInfo writes <acc>.assembly_info.json into dir, uploads it and removes
// the local copy again.
func uploadInfo(ctx context.Context, store storage.Store, dir, prefix string, rep *datasets.Report) (string, error) {
	local := filepath.Join(dir, rep.Accession+"."+infoName)
	data, err := json.MarshalIndent(rep.Info(), "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(local, append(data, '\n'), 0o644); err != nil {
		return "", err
	}
	defer os.Remove(local)

	key := storage.Key(prefix, rep.Accession, infoName)
	if err := storage.PutFile(ctx, store, local, key, storage.PutOptions{Public: true}); err != nil {
		return "", err
	}
	return key, nil
}

// matchingFiles lists the regular files in dir whose name derives to acc.
func matchingFiles(dir, acc string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if got, err := accession.FromPath(e.Name()); err == nil && got == acc {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
