// Package config holds the resolver's recognized configuration options
// (spec.md §6) plus a YAML-file loading path, following the
// piwi3910-dns-go style of a typed Config struct unmarshaled via
// gopkg.in/yaml.v3 — the one config-loading library the retrieved
// corpus actually uses.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultTimeoutConnectSeconds mirrors spec.md §6: effectively unbounded.
const DefaultTimeoutConnectSeconds uint32 = 65535

// Config is the recognized option set from spec.md §6. All setters are
// idempotent: calling one twice with the same value leaves Config
// unchanged.
type Config struct {
	GetNameserversFromOS bool   `yaml:"get_nameservers_from_os"`
	Nameserver           string `yaml:"nameserver"`
	Debug                bool   `yaml:"debug"`
	TimeoutConnect       uint32 `yaml:"timeout_connect"`
}

// New returns a Config with spec.md's documented defaults.
func New() *Config {
	return &Config{
		TimeoutConnect: DefaultTimeoutConnectSeconds,
	}
}

// SetGetNameserversFromOS toggles OS nameserver discovery merging.
func (c *Config) SetGetNameserversFromOS(v bool) *Config {
	c.GetNameserversFromOS = v
	return c
}

// SetNameserver sets the ';'-delimited user preference list.
func (c *Config) SetNameserver(v string) *Config {
	c.Nameserver = v
	return c
}

// SetDebug toggles diagnostic logging.
func (c *Config) SetDebug(v bool) *Config {
	c.Debug = v
	return c
}

// SetTimeoutConnect sets the TCP connect timeout in seconds.
func (c *Config) SetTimeoutConnect(seconds uint32) *Config {
	c.TimeoutConnect = seconds
	return c
}

// Load reads a YAML config file from path. Fields absent from the file
// keep New()'s defaults, since Config is unmarshaled into a value that
// already carries them.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
