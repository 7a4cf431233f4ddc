// Package engine drives the polling sweep: on a fixed interval it fans one
// task per configured host out across a bounded worker set, waits for the
// whole batch to drain, then sleeps until the next cycle. Host failures
// are logged and absorbed here; they never abort a cycle or touch other
// hosts.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"topomap/internal/config"
	"topomap/internal/topology"
)

// CredentialResolver finds a working credential group for a host, trying
// the groups in the order given. A (nil, nil) result means none worked.
type CredentialResolver interface {
	Validate(ctx context.Context, hostname string, groups []config.SNMPGroup) (*config.SNMPGroup, error)
}

// Collector walks a host with a validated credential group and returns its
// topology snapshot.
type Collector interface {
	Collect(ctx context.Context, hostname string, group config.SNMPGroup) (*topology.Device, error)
}

// SnapshotStore persists one snapshot per hostname.
type SnapshotStore interface {
	Write(hostname string, dev *topology.Device) error
}

// Poller owns the sweep loop. It reads hostnames and the concurrency
// limit from the effective configuration, which is immutable for the
// process lifetime.
type Poller struct {
	cfg       *config.Config
	resolver  CredentialResolver
	collector Collector
	store     SnapshotStore

	mu        sync.Mutex
	cycles    int
	lastCycle time.Time
}

// NewPoller assembles a Poller from its collaborators.
func NewPoller(cfg *config.Config, resolver CredentialResolver, collector Collector, store SnapshotStore) *Poller {
	return &Poller{
		cfg:       cfg,
		resolver:  resolver,
		collector: collector,
		store:     store,
	}
}

// Run executes poll cycles until ctx is cancelled. Each cycle fully
// drains before the interval sleep begins, so cycles never overlap and at
// most the configured number of host polls are in flight at any instant.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.cfg.Main.Interval()
	for {
		p.Cycle(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// Cycle polls every configured host once and blocks until all host tasks
// have completed. Host tasks never contribute errors to the group: a
// failing host is logged, counted, and retried on the next cycle.
func (p *Poller) Cycle(ctx context.Context) {
	hostnames := p.cfg.Main.Hostnames
	limit := p.cfg.Main.Subprocesses
	if limit < 1 {
		limit = 1
	}

	slog.Info("starting poll cycle",
		slog.Int("hosts", len(hostnames)),
		slog.Int("concurrency", limit))
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, hostname := range hostnames {
		g.Go(func() error {
			pollsInFlight.Inc()
			defer pollsInFlight.Dec()
			p.pollHost(gctx, hostname)
			return nil
		})
	}
	// Barrier: the next cycle must not start until this one drains.
	_ = g.Wait()

	elapsed := time.Since(start)
	cyclesTotal.Inc()
	cycleDuration.Observe(elapsed.Seconds())

	p.mu.Lock()
	p.cycles++
	p.lastCycle = time.Now()
	p.mu.Unlock()

	slog.Info("poll cycle complete",
		slog.Int("hosts", len(hostnames)),
		slog.Duration("elapsed", elapsed))
}

// pollHost runs the per-host sequence: resolve credentials, collect a
// snapshot, persist it. Every failure mode is host-scoped.
func (p *Poller) pollHost(ctx context.Context, hostname string) {
	group, err := p.resolver.Validate(ctx, hostname, p.cfg.SNMPGroups)
	if err != nil || group == nil {
		hostPollsTotal.WithLabelValues("no_credentials").Inc()
		slog.Info("uncontactable host or no valid SNMP credentials found for it",
			slog.String("host", hostname))
		return
	}

	slog.Info("querying topology data",
		slog.String("host", hostname),
		slog.String("group", group.GroupName))

	dev, err := p.collector.Collect(ctx, hostname, *group)
	if err != nil {
		hostPollsTotal.WithLabelValues("collect_failed").Inc()
		slog.Warn("topology collection failed",
			slog.String("host", hostname),
			slog.String("error", err.Error()))
		return
	}

	if err := p.store.Write(hostname, dev); err != nil {
		// The previous snapshot, if any, is still intact.
		hostPollsTotal.WithLabelValues("cache_write_failed").Inc()
		slog.Error("snapshot cache write failed",
			slog.String("host", hostname),
			slog.String("error", err.Error()))
		return
	}

	hostPollsTotal.WithLabelValues("ok").Inc()
	slog.Info("completed topology query",
		slog.String("host", hostname),
		slog.Int("interfaces", len(dev.Interfaces)))
}

// Info reports sweep progress for the health endpoint.
func (p *Poller) Info() (cycles int, lastCycle time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cycles, p.lastCycle
}
