// Package config loads samecode settings from defaults, an optional TOML
// file, SAMECODE_* environment variables and command-line overrides, in
// increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/afero"
	"go.uber.org/zap/zapcore"

	"github.com/aboutcode-org/samecode/features"
	"github.com/aboutcode-org/samecode/hasher"
	"github.com/aboutcode-org/samecode/internal/logging"
)

// EnvPrefix is the prefix of environment overrides. A double underscore
// separates sections: SAMECODE_MATCH__MAX_DISTANCE sets match.max_distance.
const EnvPrefix = "SAMECODE_"

// Digest encodings.
const (
	EncodingHex    = "hex"
	EncodingBase64 = "base64"
)

// DefaultPaths are tried in order when no config file is given.
var DefaultPaths = []string{"./samecode.toml", "$HOME/.samecode.toml"}

// Config is the effective configuration.
type Config struct {
	Hash     Hash     `koanf:"hash"`
	Features Features `koanf:"features"`
	Match    Match    `koanf:"match"`
	Workers  int      `koanf:"workers"`
	Log      Log      `koanf:"log"`
}

type Hash struct {
	Width    int    `koanf:"width"`
	Family   string `koanf:"family"`
	Encoding string `koanf:"encoding"`
}

type Features struct {
	Mode string `koanf:"mode"`
	Size int    `koanf:"size"`
	Fold bool   `koanf:"fold"`
}

type Match struct {
	ChunkBytes  int `koanf:"chunk_bytes"`
	MaxDistance int `koanf:"max_distance"`
}

type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Defaults returns the built-in settings as flat koanf keys.
func Defaults() map[string]any {
	return map[string]any{
		"hash.width":         256,
		"hash.family":        hasher.FamilyReference,
		"hash.encoding":      EncodingHex,
		"features.mode":      features.ModeWords,
		"features.size":      3,
		"features.fold":      false,
		"match.chunk_bytes":  4,
		"match.max_distance": 32,
		"workers":            4,
		"log.level":          "info",
		"log.format":         logging.FormatConsole,
	}
}

// Load builds the configuration, reading config files from fs. If path is
// empty the first existing file in DefaultPaths is used, if any. overrides
// holds flat keys such as "hash.width" and wins over every other source.
func Load(fs afero.Fs, path string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("config: defaults: %w", err)
	}

	if path == "" {
		for _, p := range DefaultPaths {
			p = os.ExpandEnv(p)
			if ok, _ := afero.Exists(fs, p); ok {
				path = p
				break
			}
		}
	}
	if path != "" {
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := k.Load(rawbytes.Provider(data), toml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("config: overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// envKey maps SAMECODE_MATCH__MAX_DISTANCE to match.max_distance.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate reports the first setting that cannot be used.
func Validate(cfg *Config) error {
	reg, err := hasher.ByName(cfg.Hash.Family)
	if err != nil {
		return fmt.Errorf("hash.family: %w", err)
	}
	if !reg.Supports(cfg.Hash.Width) {
		return fmt.Errorf("hash.width: %w: %s supports %v, got %d",
			hasher.ErrUnsupportedWidth, reg.Name(), reg.Widths(), cfg.Hash.Width)
	}
	if !slices.Contains([]string{EncodingHex, EncodingBase64}, cfg.Hash.Encoding) {
		return fmt.Errorf("hash.encoding: must be %s or %s, got %q", EncodingHex, EncodingBase64, cfg.Hash.Encoding)
	}

	if cfg.Features.Size <= 0 {
		return fmt.Errorf("features.size: must be positive, got %d", cfg.Features.Size)
	}
	if _, err := cfg.Extractor(); err != nil {
		return fmt.Errorf("features.mode: %w", err)
	}

	digestBytes := cfg.Hash.Width / 8
	if cfg.Match.ChunkBytes <= 0 || digestBytes%cfg.Match.ChunkBytes != 0 {
		return fmt.Errorf("match.chunk_bytes: must divide the %d-byte digest, got %d", digestBytes, cfg.Match.ChunkBytes)
	}
	if cfg.Match.MaxDistance < 0 || cfg.Match.MaxDistance > cfg.Hash.Width {
		return fmt.Errorf("match.max_distance: must be in [0, %d], got %d", cfg.Hash.Width, cfg.Match.MaxDistance)
	}

	if cfg.Workers <= 0 {
		return fmt.Errorf("workers: must be positive, got %d", cfg.Workers)
	}

	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if cfg.Log.Format != logging.FormatConsole && cfg.Log.Format != logging.FormatJSON {
		return fmt.Errorf("log.format: must be %s or %s, got %q", logging.FormatConsole, logging.FormatJSON, cfg.Log.Format)
	}
	return nil
}

// Extractor returns the feature extractor described by cfg.Features.
func (c *Config) Extractor() (features.Extractor, error) {
	return features.New(features.Config{
		Mode: c.Features.Mode,
		Size: c.Features.Size,
		Fold: c.Features.Fold,
	})
}

// TOML renders the configuration in the config file format.
func (c *Config) TOML() ([]byte, error) {
	return toml.Parser().Marshal(map[string]any{
		"hash": map[string]any{
			"width":    c.Hash.Width,
			"family":   c.Hash.Family,
			"encoding": c.Hash.Encoding,
		},
		"features": map[string]any{
			"mode": c.Features.Mode,
			"size": c.Features.Size,
			"fold": c.Features.Fold,
		},
		"match": map[string]any{
			"chunk_bytes":  c.Match.ChunkBytes,
			"max_distance": c.Match.MaxDistance,
		},
		"workers": c.Workers,
		"log": map[string]any{
			"level":  c.Log.Level,
			"format": c.Log.Format,
		},
	})
}

const sample = `# samecode configuration

# Worker goroutines used to fingerprint files in parallel.
workers = 4

[hash]
# Digest width in bits. reference supports 32, 64, 128, 160, 256, 384, 512.
width = 256
# reference, blake2b, xxh3 or fnv. Digests only compare within one family.
family = "reference"
# hex or base64 (URL-safe, unpadded).
encoding = "hex"

[features]
# words, lines, chunks, shingles or html.
mode = "words"
# Chunk length in bytes, or shingle length in tokens.
size = 3
# Lowercase, strip punctuation and collapse whitespace before extracting.
fold = false

[match]
# Aligned chunk length in bytes used to pre-filter candidate pairs.
chunk_bytes = 4
# Largest Hamming distance reported as a near duplicate.
max_distance = 32

[log]
# debug, info, warn or error.
level = "info"
# console or json.
format = "console"
`

// Sample returns a commented sample configuration file.
func Sample() string { return sample }

// WriteSample writes the sample configuration to path. It refuses to
// overwrite an existing file.
func WriteSample(fs afero.Fs, path string) error {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if exists {
		return fmt.Errorf("config: configuration file already exists at %s", path)
	}
	return afero.WriteFile(fs, path, []byte(sample), 0o644)
}
