// Package search answers free-text queries against the snapshot cache.
package search

import (
	"strings"

	"topomap/internal/cache"
)

// Engine is a read-only query layer over the cache. It holds no state
// between calls; every search re-reads the cache so results always
// reflect the latest completed writes.
type Engine struct {
	store *cache.Store
}

// New returns an Engine reading from store.
func New(store *cache.Store) *Engine {
	return &Engine{store: store}
}

// Result maps hostname to the ordered, duplicate-free interface indices
// matching a search term. Hosts with no match are absent.
type Result map[string][]int

// Search scans every cached snapshot for interfaces matching term. The
// term is trimmed first; an empty term returns an empty result without
// touching the cache. Hosts are visited in lexicographic order and
// duplicate indices are coalesced preserving first appearance.
func (e *Engine) Search(term string) (Result, error) {
	term = strings.TrimSpace(term)
	result := make(Result)
	if term == "" {
		return result, nil
	}

	entries, err := e.store.ReadAll()
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		matches := entry.Device.Matches(term)
		if len(matches) == 0 {
			continue
		}
		seen := make(map[int]bool)
		for _, ifindex := range matches {
			if seen[ifindex] {
				continue
			}
			seen[ifindex] = true
			result[entry.Hostname] = append(result[entry.Hostname], ifindex)
		}
	}
	return result, nil
}
