package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/aboutcode-org/samecode/bitvec"
	"github.com/aboutcode-org/samecode/compare"
)

func base64Flag() cli.Flag {
	return &cli.BoolFlag{Name: "base64", Aliases: []string{"b"}, Usage: "digests are URL-safe base64 instead of hex"}
}

func distanceCommand() *cli.Command {
	return &cli.Command{
		Name:      "distance",
		Usage:     "Print the Hamming distance between two digests",
		ArgsUsage: "DIGEST DIGEST",
		Flags:     []cli.Flag{base64Flag()},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("expected 2 digests, got %d", c.NArg())
			}
			d, err := distance(c.Args().Get(0), c.Args().Get(1), c.Bool("base64"))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, d)
			return nil
		},
	}
}

func chunksCommand() *cli.Command {
	return &cli.Command{
		Name:      "chunks",
		Usage:     "Print how many aligned chunks two digests share",
		ArgsUsage: "DIGEST DIGEST",
		Flags: []cli.Flag{
			base64Flag(),
			&cli.IntFlag{Name: "chunk-bytes", Value: 4, Usage: "chunk length in bytes"},
			&cli.IntFlag{Name: "chunk-bits", Usage: "chunk length in bits; overrides --chunk-bytes"},
		},
		Action: func(c *cli.Context) error {
			if c.IsSet("chunk-bits") {
				if c.Bool("base64") {
					return fmt.Errorf("--chunk-bits takes hex digests")
				}
				if c.NArg() != 2 {
					return fmt.Errorf("expected 2 digests, got %d", c.NArg())
				}
				n, err := compare.CommonChunksFromHex(c.Args().Get(0), c.Args().Get(1), c.Int("chunk-bits"))
				if err != nil {
					return err
				}
				fmt.Fprintln(c.App.Writer, n)
				return nil
			}

			a, b, err := digestArgs(c)
			if err != nil {
				return err
			}
			n, err := compare.CommonChunks(a, b, c.Int("chunk-bytes"))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, n)
			return nil
		},
	}
}

func digestArgs(c *cli.Context) ([]byte, []byte, error) {
	if c.NArg() != 2 {
		return nil, nil, fmt.Errorf("expected 2 digests, got %d", c.NArg())
	}
	decode := bitvec.DecodeHex
	if c.Bool("base64") {
		decode = bitvec.DecodeBase64
	}
	a, err := decode(c.Args().Get(0))
	if err != nil {
		return nil, nil, err
	}
	b, err := decode(c.Args().Get(1))
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func distance(a, b string, base64 bool) (int, error) {
	if !base64 {
		return compare.ByteHammingDistance(a, b)
	}
	va, err := compare.DecodeVector(a)
	if err != nil {
		return 0, err
	}
	vb, err := compare.DecodeVector(b)
	if err != nil {
		return 0, err
	}
	return compare.HammingDistance(va, vb)
}
