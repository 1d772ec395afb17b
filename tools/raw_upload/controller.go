// Package raw_upload uploads the files listed in a YAML manifest, packing
// them into tar or gzip archives when the target key asks for one.
package raw_upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"molluscdb_ops/app"
	"molluscdb_ops/config"
	"molluscdb_ops/placeholder"
	"molluscdb_ops/storage"
	common "molluscdb_ops/utils"
)

// Manifest is the upload list, e.g.
//
//	files:
//	  - filename: "{accession}.blobdir"
//	    s3path: "{accession}/blobtoolkit/blobdir.tar.gz"
//	    mime_type: application/gzip
//	    content_disposition: attachment
type Manifest struct {
	Files []ManifestFile `yaml:"files"`
}

type ManifestFile struct {
	Filename           string `yaml:"filename"`
	S3Path             string `yaml:"s3path"`
	MimeType           string `yaml:"mime_type"`
	ContentDisposition string `yaml:"content_disposition"`
}

// ReadManifest parses the manifest at path.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, f := range m.Files {
		if f.Filename == "" || f.S3Path == "" {
			return nil, fmt.Errorf("%s: files[%d] needs filename and s3path", path, i)
		}
	}
	return &m, nil
}

type Options struct {
	Manifest  string
	Directory string
	Vars      []string // key=value
}

func NewCommand(env *app.Env) *cobra.Command {
	opts := Options{}
	cmd := &cobra.Command{
		Use:   "raw_upload -c manifest.yaml -d dir [--vars key=value ...]",
		Short: "Upload the files named in a manifest, archiving them on the way when needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.Execute(cmd, args, func() error {
				_, err := Run(cmd.Context(), env, opts)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&opts.Manifest, "manifest", "c", "", "YAML manifest listing files to upload")
	cmd.Flags().StringVarP(&opts.Directory, "directory", "d", "", "base directory the manifest filenames are relative to")
	cmd.Flags().StringArrayVar(&opts.Vars, "vars", nil, "placeholder values as key=value (repeatable)")
	cmd.MarkFlagRequired("manifest")
	cmd.MarkFlagRequired("directory")
	return cmd
}

// Run uploads every manifest entry that exists and returns the keys written.
func Run(ctx context.Context, env *app.Env, opts Options) ([]string, error) {
	vars, err := config.ParseVars(opts.Vars)
	if err != nil {
		return nil, err
	}
	if err := common.RequireFile(opts.Manifest); err != nil {
		return nil, err
	}
	if err := common.RequireDir(opts.Directory); err != nil {
		return nil, err
	}
	manifest, err := ReadManifest(opts.Manifest)
	if err != nil {
		return nil, err
	}
	log := env.Log().With(zap.String("tool", "raw_upload"))

	var uploaded []string
	for _, entry := range manifest.Files {
		name, err := placeholder.Expand(entry.Filename, vars)
		if err != nil {
			return uploaded, err
		}
		local := filepath.Join(opts.Directory, name)
		if _, err := os.Stat(local); err != nil {
			log.Warn("file does not exist", zap.String("path", local))
			continue
		}
		key, err := placeholder.Expand(entry.S3Path, vars)
		if err != nil {
			return uploaded, err
		}
		key = storage.Key(env.Prefix, key)

		store, err := env.Store(ctx)
		if err != nil {
			return uploaded, err
		}
		if err := upload(ctx, store, local, key, entry); err != nil {
			return uploaded, err
		}
		uploaded = append(uploaded, key)
		fmt.Fprintln(env.Out, store.URI(key))
		log.Info("uploaded", zap.String("path", local), zap.String("key", key))
	}
	return uploaded, nil
}

func upload(ctx context.Context, store storage.Store, local, key string, entry ManifestFile) error {
	src := local
	if kind := archiveKind(local, key); kind != "" {
		tmp, err := pack(local, kind)
		if err != nil {
			return err
		}
		defer os.Remove(tmp)
		src = tmp
	} else if common.RequireFile(local) != nil {
		return fmt.Errorf("%s is a directory; give it a .tar or .tar.gz key", local)
	}
	return storage.PutFile(ctx, store, src, key, storage.PutOptions{
		ContentType:        entry.MimeType,
		ContentDisposition: entry.ContentDisposition,
		Public:             true,
	})
}
