package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topomap/internal/config"
	"topomap/internal/topology"
)

// gauge tracks how many host polls overlap, so tests can assert the
// concurrency bound holds.
type gauge struct {
	mu      sync.Mutex
	current int
	peak    int
}

func (g *gauge) enter() {
	g.mu.Lock()
	g.current++
	if g.current > g.peak {
		g.peak = g.current
	}
	g.mu.Unlock()
}

func (g *gauge) exit() {
	g.mu.Lock()
	g.current--
	g.mu.Unlock()
}

type fakeResolver struct {
	gauge *gauge
	delay time.Duration
	deny  map[string]bool // hostnames that resolve to no credentials

	mu    sync.Mutex
	calls []string
}

func (f *fakeResolver) Validate(ctx context.Context, hostname string, groups []config.SNMPGroup) (*config.SNMPGroup, error) {
	if f.gauge != nil {
		f.gauge.enter()
		defer f.gauge.exit()
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	f.calls = append(f.calls, hostname)
	f.mu.Unlock()
	if f.deny[hostname] {
		return nil, nil
	}
	if len(groups) == 0 {
		return nil, nil
	}
	return &groups[0], nil
}

type fakeCollector struct {
	fail map[string]bool
}

func (f *fakeCollector) Collect(ctx context.Context, hostname string, group config.SNMPGroup) (*topology.Device, error) {
	if f.fail[hostname] {
		return nil, errors.New("host unreachable")
	}
	return &topology.Device{Hostname: hostname}, nil
}

type fakeStore struct {
	failFor map[string]bool

	mu     sync.Mutex
	writes []string
}

func (f *fakeStore) Write(hostname string, dev *topology.Device) error {
	if f.failFor[hostname] {
		return errors.New("disk full")
	}
	f.mu.Lock()
	f.writes = append(f.writes, hostname)
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) written() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writes...)
}

func testConfig(hostnames []string, limit int) *config.Config {
	cfg := config.Default()
	cfg.Main.Hostnames = hostnames
	cfg.Main.Subprocesses = limit
	cfg.Main.PollingInterval = 1
	cfg.SNMPGroups = []config.SNMPGroup{
		{GroupName: "TEST", Version: 2, Community: "public", Enabled: true},
	}
	return cfg
}

func TestCycleRespectsConcurrencyLimit(t *testing.T) {
	hosts := make([]string, 24)
	for i := range hosts {
		hosts[i] = fmt.Sprintf("switch%02d", i)
	}

	g := &gauge{}
	resolver := &fakeResolver{gauge: g, delay: 10 * time.Millisecond}
	store := &fakeStore{}
	p := NewPoller(testConfig(hosts, 4), resolver, &fakeCollector{}, store)

	p.Cycle(context.Background())

	assert.LessOrEqual(t, g.peak, 4, "in-flight polls must never exceed the limit")
	assert.Greater(t, g.peak, 1, "polls should actually run concurrently")
	assert.Len(t, store.written(), len(hosts))
}

func TestCycleDrainsBeforeReturning(t *testing.T) {
	resolver := &fakeResolver{delay: 20 * time.Millisecond}
	store := &fakeStore{}
	p := NewPoller(testConfig([]string{"sw1", "sw2", "sw3"}, 2), resolver, &fakeCollector{}, store)

	p.Cycle(context.Background())

	// All hosts completed by the time Cycle returned: that's the barrier.
	assert.ElementsMatch(t, []string{"sw1", "sw2", "sw3"}, store.written())

	cycles, last := p.Info()
	assert.Equal(t, 1, cycles)
	assert.False(t, last.IsZero())
}

func TestNoCredentialsSkipsWriteButNotBatch(t *testing.T) {
	resolver := &fakeResolver{deny: map[string]bool{"sw2": true}}
	store := &fakeStore{}
	p := NewPoller(testConfig([]string{"sw1", "sw2", "sw3"}, 2), resolver, &fakeCollector{}, store)

	p.Cycle(context.Background())

	assert.ElementsMatch(t, []string{"sw1", "sw3"}, store.written(),
		"denied host never reaches the cache, others complete")
}

func TestCollectionFailureIsHostScoped(t *testing.T) {
	store := &fakeStore{}
	p := NewPoller(testConfig([]string{"sw1", "sw2", "sw3"}, 3),
		&fakeResolver{},
		&fakeCollector{fail: map[string]bool{"sw1": true}},
		store)

	p.Cycle(context.Background())

	assert.ElementsMatch(t, []string{"sw2", "sw3"}, store.written())
}

func TestCacheWriteFailureIsHostScoped(t *testing.T) {
	store := &fakeStore{failFor: map[string]bool{"sw3": true}}
	p := NewPoller(testConfig([]string{"sw1", "sw2", "sw3"}, 3),
		&fakeResolver{}, &fakeCollector{}, store)

	p.Cycle(context.Background())

	assert.ElementsMatch(t, []string{"sw1", "sw2"}, store.written())
}

func TestZeroLimitStillPolls(t *testing.T) {
	store := &fakeStore{}
	p := NewPoller(testConfig([]string{"sw1"}, 0), &fakeResolver{}, &fakeCollector{}, store)

	p.Cycle(context.Background())

	assert.Equal(t, []string{"sw1"}, store.written())
}

func TestRunStopsOnCancel(t *testing.T) {
	store := &fakeStore{}
	p := NewPoller(testConfig([]string{"sw1"}, 1), &fakeResolver{}, &fakeCollector{}, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	// Let the first cycle finish, then cancel during the interval sleep.
	require.Eventually(t, func() bool {
		cycles, _ := p.Info()
		return cycles >= 1
	}, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}
