// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/gamevault/gamevault/internal/xdg"
)

// DatabaseURLEnv overrides database.url when set.
const DatabaseURLEnv = "DATABASE_URL"

// flagKeys maps command-line flags to configuration keys. Flags not listed
// here, such as --config, are ignored by Load.
var flagKeys = map[string]string{
	"http-addr":    "server.http_addr",
	"grpc-addr":    "server.grpc_addr",
	"metrics-addr": "server.metrics_addr",
	"database-url": "database.url",
	"auto-migrate": "database.auto_migrate",
	"log-format":   "log.format",
	"log-level":    "log.level",
}

// Load builds a Config from, lowest precedence first: Default, the YAML
// file at path (or the XDG default file when path is empty and it exists),
// changed flags, and DATABASE_URL. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	path, required, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := loadFile(k, path, required); err != nil {
			return nil, err
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, flagValue(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "decode config").Wrap(err)
	}
	// Decoding merges into the default slice element by element; a
	// configured list replaces it instead.
	if k.Exists("assets.allowed_types") {
		cfg.Assets.AllowedTypes = k.Strings("assets.allowed_types")
	}
	if url := os.Getenv(DatabaseURLEnv); url != "" {
		cfg.Database.URL = url
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolvePath returns the file to read and whether it must exist.
func resolvePath(path string) (string, bool, error) {
	if path != "" {
		return path, true, nil
	}
	def, err := xdg.ConfigFile()
	if err != nil {
		// No home directory: run on defaults.
		return "", false, nil //nolint:nilerr // a missing home is not fatal
	}
	return def, false, nil
}

func loadFile(k *koanf.Koanf, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
	}
	if err := ValidateYAML(data); err != nil {
		return oops.With("path", path).Wrap(err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
	}
	return nil
}

// flagValue returns a typed value for the flag kinds registered by the CLI.
func flagValue(flags *pflag.FlagSet, f *pflag.Flag) any {
	if f.Value.Type() == "bool" {
		if v, err := flags.GetBool(f.Name); err == nil {
			return v
		}
	}
	return f.Value.String()
}
