package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoConfig is returned by Resolve when no readable configuration
// directory yields a usable "main:" section. There is nothing to poll
// without one, so callers treat it as fatal.
var ErrNoConfig = errors.New("no usable main configuration section found")

// fragment mirrors one YAML configuration file. Scalar fields are pointers
// so that an absent key can be told apart from an explicit zero value
// during overlay.
type fragment struct {
	Main       *mainFragment `yaml:"main"`
	SNMPGroups []SNMPGroup   `yaml:"snmp_groups"`
}

type mainFragment struct {
	Username        *string  `yaml:"username"`
	Subprocesses    *int     `yaml:"agent_subprocesses"`
	BindPort        *int     `yaml:"bind_port"`
	CacheDirectory  *string  `yaml:"cache_directory"`
	Hostnames       []string `yaml:"hostnames"`
	ListenAddress   *string  `yaml:"listen_address"`
	LogDirectory    *string  `yaml:"log_directory"`
	LogLevel        *string  `yaml:"log_level"`
	PollingInterval *int     `yaml:"polling_interval"`
}

// Resolve overlays every fragment found under dirs onto the default
// configuration and returns the effective result. Directories are
// processed in the order given, fragments within a directory in
// lexicographic filename order. Later fragments overwrite earlier scalar
// values; hostnames accumulate without duplicates in first-seen order;
// credential groups are unique by group_name with the first occurrence
// winning. Resolution is deterministic: identical inputs always produce
// an identical Config.
//
// A directory that cannot be read is skipped. A fragment that cannot be
// decoded fails resolution outright. If no fragment supplied a "main:"
// section the result is ErrNoConfig.
func Resolve(dirs []string) (*Config, error) {
	cfg := Default()
	sawMain := false

	for _, dir := range dirs {
		for _, path := range fragmentPaths(dir) {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read fragment %s: %w", path, err)
			}
			var frag fragment
			if err := yaml.Unmarshal(data, &frag); err != nil {
				return nil, fmt.Errorf("parse fragment %s: %w", path, err)
			}
			if frag.Main != nil {
				sawMain = true
				cfg.applyMain(frag.Main)
			}
			cfg.applyGroups(frag.SNMPGroups)
		}
	}

	if !sawMain {
		return nil, fmt.Errorf("resolve %v: %w", dirs, ErrNoConfig)
	}
	return cfg, nil
}

// fragmentPaths lists the YAML fragments in dir, sorted by filename.
// Unreadable or missing directories contribute nothing.
func fragmentPaths(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths
}

func (c *Config) applyMain(m *mainFragment) {
	if m.Username != nil {
		c.Main.Username = *m.Username
	}
	if m.Subprocesses != nil {
		c.Main.Subprocesses = *m.Subprocesses
	}
	if m.BindPort != nil {
		c.Main.BindPort = *m.BindPort
	}
	if m.CacheDirectory != nil {
		c.Main.CacheDirectory = *m.CacheDirectory
	}
	if m.ListenAddress != nil {
		c.Main.ListenAddress = *m.ListenAddress
	}
	if m.LogDirectory != nil {
		c.Main.LogDirectory = *m.LogDirectory
	}
	if m.LogLevel != nil {
		c.Main.LogLevel = *m.LogLevel
	}
	if m.PollingInterval != nil {
		c.Main.PollingInterval = *m.PollingInterval
	}
	for _, hostname := range m.Hostnames {
		if !contains(c.Main.Hostnames, hostname) {
			c.Main.Hostnames = append(c.Main.Hostnames, hostname)
		}
	}
}

func (c *Config) applyGroups(groups []SNMPGroup) {
	for _, group := range groups {
		if c.groupIndex(group.GroupName) < 0 {
			c.SNMPGroups = append(c.SNMPGroups, group)
		}
	}
}

func (c *Config) groupIndex(name string) int {
	for i, g := range c.SNMPGroups {
		if g.GroupName == name {
			return i
		}
	}
	return -1
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// WriteCanonical replaces every fragment under dirs with a single resolved
// config.yaml in the first directory. This is destructive: all prior
// fragments are deleted. The first directory is created if absent.
func WriteCanonical(cfg *Config, dirs []string) error {
	if len(dirs) == 0 {
		return errors.New("no configuration directory to write to")
	}

	for _, dir := range dirs {
		for _, path := range fragmentPaths(dir) {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("remove fragment %s: %w", path, err)
			}
		}
	}

	if err := os.MkdirAll(dirs[0], 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	path := filepath.Join(dirs[0], "config.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
