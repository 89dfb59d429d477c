package command

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/aboutcode-org/samecode"
	"github.com/aboutcode-org/samecode/halo"
	"github.com/aboutcode-org/samecode/match"
)

func hashCommand(fs afero.Fs) *cli.Command {
	return &cli.Command{
		Name:      "hash",
		Usage:     "Print the fingerprint of each file",
		ArgsUsage: "FILE...",
		Action: func(c *cli.Context) error {
			results, rt, err := sumArgs(c, fs)
			if err != nil {
				return err
			}
			defer rt.close()

			for _, r := range results {
				fmt.Fprintf(c.App.Writer, "%s  %s\n", rt.encode(r.Hash), r.Path)
			}
			return nil
		},
	}
}

func combineCommand(fs afero.Fs) *cli.Command {
	return &cli.Command{
		Name:      "combine",
		Usage:     "Print the fingerprint of all files taken together",
		ArgsUsage: "FILE...",
		Action: func(c *cli.Context) error {
			results, rt, err := sumArgs(c, fs)
			if err != nil {
				return err
			}
			defer rt.close()

			parts := make([]*halo.BitAverage, len(results))
			for i, r := range results {
				parts[i] = r.Hash
			}
			h, err := halo.Combine(parts...)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, rt.encode(h))
			return nil
		},
	}
}

func matchCommand(fs afero.Fs) *cli.Command {
	return &cli.Command{
		Name:      "match",
		Usage:     "List pairs of near-duplicate files",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "max-distance", Aliases: []string{"d"}, Usage: "largest Hamming distance reported"},
			&cli.IntFlag{Name: "chunk-bytes", Usage: "aligned chunk length of the pre-filter"},
		},
		Action: func(c *cli.Context) error {
			results, rt, err := sumArgs(c, fs)
			if err != nil {
				return err
			}
			defer rt.close()

			opts := match.Options{ChunkBytes: rt.cfg.Match.ChunkBytes, MaxDistance: rt.cfg.Match.MaxDistance}
			if c.IsSet("chunk-bytes") {
				opts.ChunkBytes = c.Int("chunk-bytes")
			}
			if c.IsSet("max-distance") {
				opts.MaxDistance = c.Int("max-distance")
			}
			if opts.ChunkBytes <= 0 || opts.MaxDistance < 0 {
				return fmt.Errorf("invalid match options: chunk bytes %d, max distance %d", opts.ChunkBytes, opts.MaxDistance)
			}

			idx := match.New(opts)
			for _, r := range results {
				if err := idx.Add(r.Path, r.Hash.Digest()); err != nil {
					return err
				}
			}
			for _, p := range idx.Pairs() {
				fmt.Fprintf(c.App.Writer, "%s  %s  %d  %d\n", p.A, p.B, p.Distance, p.CommonChunks)
			}

			s := idx.Stats()
			rt.log.Debug("matched",
				zap.Int("files", s.Entries),
				zap.Uint64("candidates", s.Candidates),
				zap.Uint64("matches", s.Matches),
			)
			return nil
		},
	}
}

// sumArgs fingerprints the files named by the command arguments.
func sumArgs(c *cli.Context, fs afero.Fs) ([]samecode.Result, *runtime, error) {
	if c.NArg() < 1 {
		return nil, nil, fmt.Errorf("missing required argument: FILE")
	}
	rt, err := setup(c, fs)
	if err != nil {
		return nil, nil, err
	}
	results, err := rt.fp.SumFiles(c.Context, fs, c.Args().Slice())
	if err != nil {
		rt.close()
		return nil, nil, err
	}
	return results, rt, nil
}
