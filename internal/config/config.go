// Package config loads dbagent settings.
//
// Sources are layered, later ones winning: built-in defaults, the YAML
// file, DBAGENT_* environment variables, then command-line flags that were
// set explicitly. Nested keys use "__" in environment names, e.g.
// DBAGENT_CATALOG__MINIO__ENDPOINT sets catalog.minio.endpoint.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/koustreak/dbagent/internal/errs"
	"github.com/koustreak/dbagent/internal/filestore"
	"github.com/koustreak/dbagent/internal/logger"
	"github.com/spf13/pflag"
)

// DefaultFile is read from the working directory when no file is named.
const DefaultFile = "dbagent.yaml"

const envPrefix = "DBAGENT_"

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"log-level":   "log.level",
	"log-format":  "log.format",
	"catalog-dir": "catalog.dir",
	"addr":        "http.addr",
	"read-only":   "guard.read_only",
}

type Config struct {
	Log     LogConfig     `koanf:"log"`
	Catalog CatalogConfig `koanf:"catalog"`
	HTTP    HTTPConfig    `koanf:"http"`
	Guard   GuardConfig   `koanf:"guard"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// CatalogConfig selects where query templates come from: Dir, then Bucket,
// then the catalogs compiled into the binary.
type CatalogConfig struct {
	Dir    string      `koanf:"dir"`
	Bucket string      `koanf:"bucket"`
	Prefix string      `koanf:"prefix"`
	MinIO  MinIOConfig `koanf:"minio"`
}

type MinIOConfig struct {
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	UseSSL    bool   `koanf:"use_ssl"`
	Region    string `koanf:"region"`
}

type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

type GuardConfig struct {
	// ReadOnly limits execute_query to single read-only statements.
	ReadOnly bool `koanf:"read_only"`
}

func defaults() map[string]any {
	return map[string]any{
		"log.level":       "info",
		"log.format":      "json",
		"catalog.dir":     "",
		"catalog.bucket":  "",
		"catalog.prefix":  "",
		"http.addr":       ":8080",
		"guard.read_only": false,
	}
}

// Load builds the configuration. path may be empty, in which case
// DefaultFile is used when it exists. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to load defaults", err)
	}

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, errs.Wrap(errs.ErrKindNotFound, "config file "+path+" not found", err)
			}
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "error reading config file "+path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to load environment", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to load flags", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "unable to decode config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that no source can be trusted to get right.
func (c *Config) Validate() error {
	switch c.Log.Format {
	case "json", "console":
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "log.format must be json or console, got %q", c.Log.Format)
	}
	if c.Catalog.Dir != "" && c.Catalog.Bucket != "" {
		return errs.New(errs.ErrKindInvalidInput, "catalog.dir and catalog.bucket are mutually exclusive")
	}
	if c.Catalog.Bucket != "" && c.Catalog.MinIO.Endpoint == "" {
		return errs.New(errs.ErrKindInvalidInput, "catalog.bucket requires catalog.minio.endpoint")
	}
	return nil
}

// Logger returns the logger settings. Output is left to the caller.
func (c *Config) Logger() *logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = c.Log.Level
	cfg.Format = c.Log.Format
	return cfg
}

// FileStore returns the object store settings for bucket-backed catalogs.
func (c *CatalogConfig) FileStore() *filestore.Config {
	return &filestore.Config{
		Endpoint:  c.MinIO.Endpoint,
		AccessKey: c.MinIO.AccessKey,
		SecretKey: c.MinIO.SecretKey,
		UseSSL:    c.MinIO.UseSSL,
		Region:    c.MinIO.Region,
	}
}
