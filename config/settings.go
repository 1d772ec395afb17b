package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the settings file is looked for when --config is not given.
const DefaultPath = "molluscdb_ops.yaml"

// Settings holds everything the tools need to reach storage, the remote
// host, Elasticsearch, genomehubs and the public APIs.
type Settings struct {
	Storage       StorageConfig       `yaml:"storage"`
	Remote        RemoteConfig        `yaml:"remote"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Genomehubs    GenomehubsConfig    `yaml:"genomehubs"`
	Sources       SourcesConfig       `yaml:"sources"`
	Execution     ExecutionConfig     `yaml:"execution"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// StorageConfig configures the S3-compatible bucket.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"` // empty means the current YYYY-MM date stamp
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	PathStyle bool   `yaml:"path_style"`
}

// RemoteConfig is the scp destination for copy_results.
type RemoteConfig struct {
	Host string `yaml:"host"`
	Path string `yaml:"path"`
}

type ElasticsearchConfig struct {
	URL          string `yaml:"url"`
	IndexPattern string `yaml:"index_pattern"`
	Timeout      string `yaml:"timeout"`
}

// GenomehubsConfig names the binary and the flags passed to init/index.
type GenomehubsConfig struct {
	Binary         string `yaml:"binary"`
	ConfigFile     string `yaml:"config_file"`
	TaxonomySource string `yaml:"taxonomy_source"`
	Directory      string `yaml:"directory"`
}

// SourcesConfig holds base URLs of the metadata APIs.
type SourcesConfig struct {
	NCBI        string `yaml:"ncbi"`
	Ensembl     string `yaml:"ensembl"`
	UCSC        string `yaml:"ucsc"`
	BoaT        string `yaml:"boat"`
	BlobToolKit string `yaml:"btk"`
	Timeout     string `yaml:"timeout"`
	Parallelism int    `yaml:"parallelism"`
}

type ExecutionConfig struct {
	DefaultTimeout string `yaml:"default_timeout"`
	ScpBinary      string `yaml:"scp_binary"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultSettings returns the settings used when no file is present.
func DefaultSettings() *Settings {
	return &Settings{
		Storage: StorageConfig{
			Endpoint:  "https://cog.sanger.ac.uk",
			Region:    "us-east-1",
			Bucket:    "molluscdb",
			PathStyle: true,
		},
		Elasticsearch: ElasticsearchConfig{
			URL:          "http://localhost:9200",
			IndexPattern: "*",
			Timeout:      "60s",
		},
		Genomehubs: GenomehubsConfig{
			Binary:         "genomehubs",
			ConfigFile:     "sources/config.yaml",
			TaxonomySource: "ncbi",
			Directory:      "sources",
		},
		Sources: SourcesConfig{
			NCBI:        "https://api.ncbi.nlm.nih.gov/datasets/v2",
			Ensembl:     "https://rest.ensembl.org",
			UCSC:        "https://api.genome.ucsc.edu",
			BoaT:        "https://boat.genomehubs.org/api/v2",
			BlobToolKit: "https://blobtoolkit.genomehubs.org/api/v1",
			Timeout:     "120s",
			Parallelism: 3,
		},
		Execution: ExecutionConfig{
			DefaultTimeout: "6h",
			ScpBinary:      "scp",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML settings at path on top of the defaults. A .env file
// next to the working directory is loaded into the environment first so the
// overrides below can see it.
func Load(path string) (*Settings, error) {
	// Missing .env is normal outside the deployment host
	_ = godotenv.Load()

	cfg := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (s *Settings) applyEnvOverrides() {
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		s.Storage.AccessKey = v
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		s.Storage.SecretKey = v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		s.Storage.Endpoint = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		s.Storage.Bucket = v
	}
	if v := os.Getenv("ES_HOST"); v != "" {
		s.Elasticsearch.URL = v
	}
	if v := os.Getenv("REMOTE_HOST"); v != "" {
		s.Remote.Host = v
	}
	if v := os.Getenv("REMOTE_PATH"); v != "" {
		s.Remote.Path = v
	}
	if v := os.Getenv("GENOMEHUBS_CONFIG"); v != "" {
		s.Genomehubs.ConfigFile = v
	}
}

// StoragePrefix returns the configured key prefix or, when unset, the
// YYYY-MM date stamp of now.
func (s *Settings) StoragePrefix(now time.Time) string {
	if s.Storage.Prefix != "" {
		return s.Storage.Prefix
	}
	return DatePrefix(now)
}

// DatePrefix formats the month stamp used for release directories.
func DatePrefix(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// ExecutionTimeout bounds every external command.
func (s *Settings) ExecutionTimeout() time.Duration {
	return parseDuration(s.Execution.DefaultTimeout, 6*time.Hour)
}

func (s *Settings) SourcesTimeout() time.Duration {
	return parseDuration(s.Sources.Timeout, 120*time.Second)
}

func (s *Settings) ElasticsearchTimeout() time.Duration {
	return parseDuration(s.Elasticsearch.Timeout, 60*time.Second)
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Validate checks the fields every tool relies on.
func (s *Settings) Validate() error {
	if s.Storage.Bucket == "" {
		return fmt.Errorf("storage bucket not configured (set storage.bucket or S3_BUCKET)")
	}
	if s.Storage.Endpoint == "" {
		return fmt.Errorf("storage endpoint not configured (set storage.endpoint or S3_ENDPOINT)")
	}
	switch s.Logging.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("invalid logging format: %s (valid: json, text)", s.Logging.Format)
	}
	return nil
}
