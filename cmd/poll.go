package cmd

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"topomap/internal/cache"
	"topomap/internal/engine"
	"topomap/internal/logging"
	"topomap/internal/server"
	"topomap/internal/snmp"
)

const (
	validateTimeout = 5 * time.Second
	collectTimeout  = 10 * time.Second
)

func pollCmd() *cli.Command {
	return &cli.Command{
		Name:  "poll",
		Usage: "Run the polling daemon and query server",
		Description: `Resolve the effective configuration, clear the snapshot cache, and
start the polling sweep: every polling_interval seconds each configured
hostname is polled over SNMP (at most agent_subprocesses concurrently)
and its topology snapshot is written to the cache. The query server
answers /search, /devices, /healthz, and /metrics on
listen_address:bind_port for the presentation layer.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-server",
				Usage: "run the polling sweep without the HTTP query server",
			},
			&cli.BoolFlag{
				Name:  "once",
				Usage: "run a single poll cycle and exit",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if err := logging.Setup(cfg.Main.LogLevel, cfg.Main.LogDirectory); err != nil {
				return err
			}

			store := cache.New(cfg.Main.CacheDirectory)
			if err := store.Reset(); err != nil {
				return err
			}
			slog.Info("cache cleared",
				slog.String("dir", store.Dir()),
				slog.Int("hosts", len(cfg.Main.Hostnames)))

			poller := engine.NewPoller(cfg,
				snmp.NewValidator(validateTimeout),
				snmp.NewCollector(collectTimeout),
				store)

			if cmd.Bool("once") {
				poller.Cycle(ctx)
				return nil
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return poller.Run(gctx)
			})
			if !cmd.Bool("no-server") {
				srv := server.New(cfg.Main.ListenAddr(), store, poller)
				g.Go(func() error {
					return srv.Serve(gctx)
				})
			}

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			slog.Info("shutdown complete")
			return nil
		},
	}
}
