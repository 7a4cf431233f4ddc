package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"topomap/internal/config"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect and manage the effective configuration",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the resolved effective configuration as YAML",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := resolveConfig(cmd)
					if err != nil {
						return err
					}
					return yaml.NewEncoder(os.Stdout).Encode(cfg)
				},
			},
			{
				Name:  "write",
				Usage: "Replace all fragments with one canonical config.yaml",
				Description: `Resolve the effective configuration, delete every fragment in every
configured directory, and write the result as config.yaml in the first
directory. Destructive: prior fragments are not preserved.`,
				Action: func(ctx context.Context, cmd *cli.Command) error {
					dirs := configDirs(cmd)
					cfg, err := config.Resolve(dirs)
					if err != nil {
						return err
					}
					if err := config.WriteCanonical(cfg, dirs); err != nil {
						return err
					}
					fmt.Printf("wrote canonical configuration to %s/config.yaml\n", dirs[0])
					return nil
				},
			},
		},
	}
}
