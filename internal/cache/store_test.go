package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topomap/internal/topology"
)

func device(hostname string, ifaces ...topology.Interface) *topology.Device {
	return &topology.Device{
		Hostname:   hostname,
		System:     topology.System{Name: hostname},
		Interfaces: ifaces,
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	dev := device("switch1",
		topology.Interface{IfIndex: 1, Name: "Gi0/1", Alias: "uplink to core"},
		topology.Interface{IfIndex: 2, Name: "Gi0/2"},
	)

	require.NoError(t, store.Write("switch1", dev))

	got, err := store.Read("switch1")
	require.NoError(t, err)
	assert.Equal(t, dev, got)

	// One slot per hostname, named after it.
	_, err = os.Stat(filepath.Join(store.Dir(), "switch1.yaml"))
	assert.NoError(t, err)
}

func TestWriteReplacesPriorSnapshot(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.Write("switch1", device("switch1",
		topology.Interface{IfIndex: 1, Name: "old"})))
	require.NoError(t, store.Write("switch1", device("switch1",
		topology.Interface{IfIndex: 1, Name: "new"})))

	entries, err := store.ReadAll()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].Device.Interfaces[0].Name)
}

func TestReadMissingHost(t *testing.T) {
	store := New(t.TempDir())
	_, err := store.Read("nope")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResetClearsCache(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.Write("switch1", device("switch1")))
	require.NoError(t, store.Write("switch2", device("switch2")))

	require.NoError(t, store.Reset())

	entries, err := store.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestResetCreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache", "nested")
	store := New(dir)

	require.NoError(t, store.Reset())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestReadAllOrderedByHostname(t *testing.T) {
	store := New(t.TempDir())
	for _, h := range []string{"zebra", "alpha", "mango"} {
		require.NoError(t, store.Write(h, device(h)))
	}

	entries, err := store.ReadAll()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "alpha", entries[0].Hostname)
	assert.Equal(t, "mango", entries[1].Hostname)
	assert.Equal(t, "zebra", entries[2].Hostname)
}

// A writer that dies before the rename leaves only a scratch file behind.
// Readers must keep seeing the prior complete snapshot and never the
// partial content.
func TestInterruptedWriteInvisibleToReaders(t *testing.T) {
	store := New(t.TempDir())
	prior := device("switch1", topology.Interface{IfIndex: 3, Alias: "uplink"})
	require.NoError(t, store.Write("switch1", prior))

	scratch := filepath.Join(store.Dir(), ".switch1.12345")
	require.NoError(t, os.WriteFile(scratch, []byte("hostname: swi"), 0o644))

	entries, err := store.ReadAll()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, prior, entries[0].Device)

	got, err := store.Read("switch1")
	require.NoError(t, err)
	assert.Equal(t, prior, got)
}

func TestReadAllMissingDirectory(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "never-created"))
	entries, err := store.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, entries)
}
