// Package cmd wires the CLI: the poll daemon, the standalone search
// query, and configuration inspection.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"topomap/internal/config"
)

const name = "topomap"

// overridden during build with ldflags
var version = "dev"

func rootCmd() *cli.Command {
	return &cli.Command{
		Name:    name,
		Usage:   "SNMP topology poller and search cache",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "config-dir",
				Usage:   "configuration directory, lowest priority first (can be repeated)",
				Sources: cli.EnvVars("TOPOMAP_CONFIGDIR"),
			},
		},
		Commands: []*cli.Command{
			pollCmd(),
			searchCmd(),
			configCmd(),
		},
	}
}

// Execute runs the CLI with SIGINT/SIGTERM mapped to context
// cancellation so the poll daemon drains and shuts down cleanly.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// configDirs returns the fragment directories for this invocation: the
// repeated --config-dir flag when given, the platform defaults otherwise.
func configDirs(cmd *cli.Command) []string {
	if dirs := cmd.StringSlice("config-dir"); len(dirs) > 0 {
		return dirs
	}
	return config.DefaultDirs()
}

// resolveConfig builds the effective configuration for this invocation.
func resolveConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Resolve(configDirs(cmd))
	if err != nil {
		return nil, err
	}
	if cfg.Main.CacheDirectory == "" {
		cfg.Main.CacheDirectory = config.DefaultCacheDir()
	}
	return cfg, nil
}
