package config

import (
	"fmt"
	"time"
)

// Duration wraps time.Duration for YAML unmarshalling.
type Duration struct {
	time.Duration
	explicit bool
}

// UnmarshalText parses a textual duration, accepting empty strings.
func (d *Duration) UnmarshalText(text []byte) error {
	d.explicit = true
	if len(text) == 0 {
		d.Duration = 0
		return nil
	}
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = dur
	return nil
}

// MarshalText renders the duration using time.Duration formatting.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// IsSet reports whether the duration was explicitly provided or non-zero.
func (d Duration) IsSet() bool {
	return d.explicit || d.Duration != 0
}

// Config mirrors the config.yaml document structure.
type Config struct {
	RefreshInterval Duration  `yaml:"refreshInterval"`
	SampleTimeout   Duration  `yaml:"sampleTimeout"`
	TopN            int       `yaml:"topN"`
	CPUThreshold    float64   `yaml:"cpuThreshold"`
	Protected       []string  `yaml:"protected"`
	API             APIConfig `yaml:"api"`
	Log             LogConfig `yaml:"log"`

	// Path is the file the configuration was read from, empty when only
	// defaults and environment overrides apply.
	Path string `yaml:"-"`
}

// APIConfig configures the HTTP control API.
type APIConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}
