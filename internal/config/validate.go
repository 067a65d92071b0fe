package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/charmbracelet/log"
)

// Validate reports every invalid field in a single error.
func (c *Config) Validate() error {
	var errs []error
	if c.RefreshInterval.Duration <= 0 {
		errs = append(errs, fmt.Errorf("refreshInterval: must be positive, got %s", c.RefreshInterval.Duration))
	}
	if c.SampleTimeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("sampleTimeout: must be positive, got %s", c.SampleTimeout.Duration))
	}
	if c.TopN < 1 {
		errs = append(errs, fmt.Errorf("topN: must be at least 1, got %d", c.TopN))
	}
	if c.CPUThreshold < 0 {
		errs = append(errs, fmt.Errorf("cpuThreshold: must not be negative, got %v", c.CPUThreshold))
	}
	for idx, name := range c.Protected {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, fmt.Errorf("protected[%d]: name must not be empty", idx))
		}
	}
	if _, _, err := net.SplitHostPort(c.API.Addr); err != nil {
		errs = append(errs, fmt.Errorf("api.addr: %w", err))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}
