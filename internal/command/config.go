package command

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/aboutcode-org/samecode/internal/config"
)

func configCommand(fs afero.Fs) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a sample configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
						Value:   "samecode.toml",
					},
				},
				Action: func(c *cli.Context) error {
					path := c.String("output")
					if err := config.WriteSample(fs, path); err != nil {
						return fmt.Errorf("failed to initialize config: %w", err)
					}
					fmt.Fprintf(c.App.Writer, "Created configuration file at %s\n", path)
					return nil
				},
			},
			{
				Name:  "show",
				Usage: "Print the effective configuration",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c, fs)
					if err != nil {
						return err
					}
					out, err := cfg.TOML()
					if err != nil {
						return err
					}
					_, err = c.App.Writer.Write(out)
					return err
				},
			},
			{
				Name:  "validate",
				Usage: "Validate the configuration",
				Action: func(c *cli.Context) error {
					if _, err := loadConfig(c, fs); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "Configuration is valid")
					return nil
				},
			},
		},
	}
}
