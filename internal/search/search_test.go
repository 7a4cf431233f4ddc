package search

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topomap/internal/cache"
	"topomap/internal/topology"
)

func seedCache(t *testing.T) *cache.Store {
	t.Helper()
	store := cache.New(t.TempDir())

	require.NoError(t, store.Write("switch1", &topology.Device{
		Hostname: "switch1",
		Interfaces: []topology.Interface{
			{IfIndex: 3, Name: "Gi0/3", Alias: "uplink to core"},
			{IfIndex: 4, Name: "Gi0/4", Alias: "server"},
		},
	}))
	require.NoError(t, store.Write("switch2", &topology.Device{
		Hostname: "switch2",
		Interfaces: []topology.Interface{
			{IfIndex: 1, Name: "Gi0/1", Alias: "printer"},
		},
	}))
	return store
}

func TestSearchEndToEnd(t *testing.T) {
	engine := New(seedCache(t))

	result, err := engine.Search("uplink")
	require.NoError(t, err)
	assert.Equal(t, Result{"switch1": {3}}, result,
		"only hosts with matches appear")
}

func TestSearchMultipleHosts(t *testing.T) {
	engine := New(seedCache(t))

	result, err := engine.Search("gi0/")
	require.NoError(t, err)
	assert.Equal(t, Result{
		"switch1": {3, 4},
		"switch2": {1},
	}, result)
}

func TestSearchNoMatches(t *testing.T) {
	engine := New(seedCache(t))

	result, err := engine.Search("tengig")
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.NotNil(t, result, "empty result is an empty map, not nil")
}

// An empty or blank term must not scan the cache at all. Pointing the
// store at a plain file makes any ReadAll fail, so success here proves
// the scan was skipped.
func TestSearchEmptyTermSkipsScan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-directory")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	engine := New(cache.New(path))

	for _, term := range []string{"", "   ", "\t\n"} {
		result, err := engine.Search(term)
		require.NoError(t, err, "term %q", term)
		assert.Empty(t, result)
	}
}

func TestSearchEmptyCache(t *testing.T) {
	engine := New(cache.New(t.TempDir()))

	result, err := engine.Search("uplink")
	require.NoError(t, err)
	assert.Empty(t, result)
}
