// Package cache persists one topology snapshot per polled hostname as a
// YAML file. Writes go through a scratch file and an atomic rename, so a
// reader sees either the previous complete snapshot or the new one, never
// a partial file.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"topomap/internal/topology"
)

const snapshotExt = ".yaml"

// Store manages the cache directory. Concurrent writers are safe as long
// as they target distinct hostnames, which the poll engine guarantees:
// each host owns exactly one file slot.
type Store struct {
	dir string
}

// New returns a Store rooted at dir. The directory is not created until
// Reset or the first Write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the cache directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Reset deletes every file in the cache directory, creating the directory
// first if it does not exist. The daemon calls this once at startup so
// searches never serve topology from a previous process lifetime.
func (s *Store) Reset() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read cache directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
	}
	return nil
}

// Write atomically replaces the snapshot for hostname. The snapshot is
// serialized into a scratch file in the cache directory and renamed over
// the hostname's slot; on any failure the scratch file is removed and the
// prior snapshot, if any, is left untouched.
func (s *Store) Write(hostname string, dev *topology.Device) error {
	data, err := yaml.Marshal(dev)
	if err != nil {
		return fmt.Errorf("marshal snapshot for %s: %w", hostname, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+hostname+".*")
	if err != nil {
		return fmt.Errorf("create scratch file for %s: %w", hostname, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write scratch file for %s: %w", hostname, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync scratch file for %s: %w", hostname, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close scratch file for %s: %w", hostname, err)
	}

	if err := os.Rename(tmp.Name(), s.path(hostname)); err != nil {
		return fmt.Errorf("publish snapshot for %s: %w", hostname, err)
	}
	return nil
}

// Read returns the snapshot for hostname, or os.ErrNotExist if the host
// has not been cached.
func (s *Store) Read(hostname string) (*topology.Device, error) {
	data, err := os.ReadFile(s.path(hostname))
	if err != nil {
		return nil, err
	}
	var dev topology.Device
	if err := yaml.Unmarshal(data, &dev); err != nil {
		return nil, fmt.Errorf("decode snapshot for %s: %w", hostname, err)
	}
	return &dev, nil
}

// Entry is one cached (hostname, snapshot) pair.
type Entry struct {
	Hostname string
	Device   *topology.Device
}

// ReadAll returns every cached snapshot, ordered by hostname. A missing
// cache directory yields an empty result. Scratch files left by an
// interrupted writer are ignored.
func (s *Store) ReadAll() ([]Entry, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache directory: %w", err)
	}

	var out []Entry
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, snapshotExt) {
			continue
		}
		hostname := strings.TrimSuffix(name, snapshotExt)
		dev, err := s.Read(hostname)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Hostname: hostname, Device: dev})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hostname < out[j].Hostname })
	return out, nil
}

func (s *Store) path(hostname string) string {
	return filepath.Join(s.dir, hostname+snapshotExt)
}
