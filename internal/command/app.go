// Package command implements the samecode command line.
package command

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/aboutcode-org/samecode"
	"github.com/aboutcode-org/samecode/features"
	"github.com/aboutcode-org/samecode/halo"
	"github.com/aboutcode-org/samecode/hasher"
	"github.com/aboutcode-org/samecode/internal/config"
	"github.com/aboutcode-org/samecode/internal/logging"
)

const version = "0.1.0"

// flag name → config key
var overrideKeys = map[string]string{
	"width":     "hash.width",
	"family":    "hash.family",
	"encoding":  "hash.encoding",
	"features":  "features.mode",
	"size":      "features.size",
	"fold":      "features.fold",
	"workers":   "workers",
	"log-level": "log.level",
}

// New returns the samecode application. Input files are read from fs.
func New(fs afero.Fs, stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "samecode",
		Usage:     "Fingerprint files with bit-average halo hashes and find near duplicates",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.IntFlag{Name: "width", Aliases: []string{"w"}, Usage: "digest width in `BITS`"},
			&cli.StringFlag{Name: "family", Usage: "hash family: " + strings.Join(hasher.Families(), ", ")},
			&cli.StringFlag{Name: "features", Aliases: []string{"f"}, Usage: "feature mode: " + strings.Join(features.Modes(), ", ")},
			&cli.IntFlag{Name: "size", Usage: "chunk bytes or shingle tokens"},
			&cli.BoolFlag{Name: "fold", Usage: "lowercase, strip punctuation and collapse whitespace"},
			&cli.StringFlag{Name: "encoding", Aliases: []string{"e"}, Usage: "digest output: hex or base64"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"j"}, Usage: "files fingerprinted in parallel"},
		},
		Commands: []*cli.Command{
			hashCommand(fs),
			combineCommand(fs),
			matchCommand(fs),
			distanceCommand(),
			chunksCommand(),
			configCommand(fs),
		},
	}
}

// runtime is the state shared by commands after configuration is resolved.
type runtime struct {
	cfg *config.Config
	log *zap.Logger
	fp  *samecode.Fingerprinter
}

func setup(c *cli.Context, fs afero.Fs) (*runtime, error) {
	cfg, err := loadConfig(c, fs)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	extractor, err := cfg.Extractor()
	if err != nil {
		return nil, err
	}
	fp, err := samecode.New(
		samecode.WithWidth(cfg.Hash.Width),
		samecode.WithFamily(cfg.Hash.Family),
		samecode.WithExtractor(extractor),
		samecode.WithWorkers(cfg.Workers),
		samecode.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	log.Debug("configured",
		zap.Int("width", cfg.Hash.Width),
		zap.String("family", cfg.Hash.Family),
		zap.String("features", cfg.Features.Mode),
		zap.Int("workers", cfg.Workers),
	)
	return &runtime{cfg: cfg, log: log, fp: fp}, nil
}

// close flushes the logger; Sync fails on some terminals and is ignored.
func (r *runtime) close() { _ = r.log.Sync() }

func loadConfig(c *cli.Context, fs afero.Fs) (*config.Config, error) {
	overrides := make(map[string]any)
	for name, key := range overrideKeys {
		if c.IsSet(name) {
			overrides[key] = c.Value(name)
		}
	}
	cfg, err := config.Load(fs, c.String("config"), overrides)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (r *runtime) encode(h *halo.BitAverage) string {
	if r.cfg.Hash.Encoding == config.EncodingBase64 {
		return h.B64Digest()
	}
	return h.HexDigest()
}
