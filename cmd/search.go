package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"topomap/internal/cache"
	"topomap/internal/search"
)

func searchCmd() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the snapshot cache for matching interfaces",
		ArgsUsage: "TERM",
		Description: `Scan the cached topology snapshots for interfaces whose name,
description, alias, or MAC address contains TERM and print a JSON
mapping of hostname to matching interface indices. Reads the cache
directly; the daemon does not need to be running.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one search term")
			}

			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			engine := search.New(cache.New(cfg.Main.CacheDirectory))
			result, err := engine.Search(cmd.Args().First())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}
