package config

import (
	"fmt"
	"time"
)

// Main holds the daemon-wide settings from the "main:" section of the
// configuration fragments.
type Main struct {
	Username        string   `yaml:"username"`
	Subprocesses    int      `yaml:"agent_subprocesses"`
	BindPort        int      `yaml:"bind_port"`
	CacheDirectory  string   `yaml:"cache_directory"`
	Hostnames       []string `yaml:"hostnames"`
	ListenAddress   string   `yaml:"listen_address"`
	LogDirectory    string   `yaml:"log_directory"`
	LogLevel        string   `yaml:"log_level"`
	PollingInterval int      `yaml:"polling_interval"`
}

// SNMPGroup is one named credential bundle from the "snmp_groups:" section.
// Groups are tried against a host in configuration order until one works.
type SNMPGroup struct {
	GroupName    string `yaml:"group_name"`
	Version      int    `yaml:"snmp_version"`
	SecName      string `yaml:"snmp_secname"`
	Community    string `yaml:"snmp_community"`
	Port         int    `yaml:"snmp_port"`
	AuthProtocol string `yaml:"snmp_authprotocol"`
	AuthPassword string `yaml:"snmp_authpassword"`
	PrivProtocol string `yaml:"snmp_privprotocol"`
	PrivPassword string `yaml:"snmp_privpassword"`
	Enabled      bool   `yaml:"enabled"`
}

// Config is the effective configuration produced by Resolve. It is built
// once at startup and treated as read-only afterwards; every component
// receives it explicitly.
type Config struct {
	Main       Main        `yaml:"main"`
	SNMPGroups []SNMPGroup `yaml:"snmp_groups"`
}

// Default returns the seed configuration that fragments overlay.
func Default() *Config {
	return &Config{
		Main: Main{
			Subprocesses:    20,
			BindPort:        7000,
			ListenAddress:   "localhost",
			LogLevel:        "debug",
			PollingInterval: 3600,
		},
	}
}

// Interval returns the polling interval as a duration.
func (m Main) Interval() time.Duration {
	return time.Duration(m.PollingInterval) * time.Second
}

// ListenAddr returns the address:port the query server binds to.
func (m Main) ListenAddr() string {
	return fmt.Sprintf("%s:%d", m.ListenAddress, m.BindPort)
}

// EnabledGroups returns the credential groups marked enabled, preserving
// configuration order.
func (c *Config) EnabledGroups() []SNMPGroup {
	var out []SNMPGroup
	for _, g := range c.SNMPGroups {
		if g.Enabled {
			out = append(out, g)
		}
	}
	return out
}
