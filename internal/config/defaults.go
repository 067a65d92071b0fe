package config

import (
	"time"

	"github.com/Paintersrp/prokill/internal/control"
)

const (
	DefaultRefreshInterval = 2 * time.Second
	DefaultSampleTimeout   = 5 * time.Second
	DefaultTopN            = 10
	DefaultCPUThreshold    = 50.0
	DefaultAPIAddr         = "127.0.0.1:7664"
	DefaultLogLevel        = "info"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills fields that were not provided. An explicitly empty
// protected list is kept and disables protection.
func (c *Config) ApplyDefaults() {
	if !c.RefreshInterval.IsSet() {
		c.RefreshInterval = Duration{Duration: DefaultRefreshInterval}
	}
	if !c.SampleTimeout.IsSet() {
		c.SampleTimeout = Duration{Duration: DefaultSampleTimeout}
	}
	if c.TopN == 0 {
		c.TopN = DefaultTopN
	}
	if c.CPUThreshold == 0 {
		c.CPUThreshold = DefaultCPUThreshold
	}
	if c.Protected == nil {
		c.Protected = control.DefaultProtected()
	}
	if c.API.Addr == "" {
		c.API.Addr = DefaultAPIAddr
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}
