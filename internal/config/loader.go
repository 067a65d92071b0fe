package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "PROKILL_"

// DefaultPath returns the per-user configuration file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "prokill", "config.yaml"), nil
}

// LoadDotEnv exports the variables in a .env file without overriding the
// existing environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration file, applies PROKILL_* environment overrides
// and defaults, and validates the result. An empty path selects DefaultPath,
// which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	f, err := os.Open(absPath)
	switch {
	case err == nil:
		defer f.Close()
		decoder := yaml.NewDecoder(f)
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: decode: %w", absPath, err)
		}
		cfg.Path = absPath
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("open config file: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		if cfg.Path != "" {
			return nil, fmt.Errorf("%s: %w", cfg.Path, err)
		}
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides fields from PROKILL_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		value, ok := lookup(envPrefix + key)
		value = strings.TrimSpace(value)
		return value, ok && value != ""
	}

	if value, ok := get("REFRESH_INTERVAL"); ok {
		if err := c.RefreshInterval.UnmarshalText([]byte(value)); err != nil {
			return fmt.Errorf("%sREFRESH_INTERVAL: %w", envPrefix, err)
		}
	}
	if value, ok := get("SAMPLE_TIMEOUT"); ok {
		if err := c.SampleTimeout.UnmarshalText([]byte(value)); err != nil {
			return fmt.Errorf("%sSAMPLE_TIMEOUT: %w", envPrefix, err)
		}
	}
	if value, ok := get("TOP_N"); ok {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%sTOP_N: invalid integer %q", envPrefix, value)
		}
		c.TopN = n
	}
	if value, ok := get("CPU_THRESHOLD"); ok {
		threshold, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%sCPU_THRESHOLD: invalid number %q", envPrefix, value)
		}
		c.CPUThreshold = threshold
	}
	if value, ok := get("PROTECTED"); ok {
		names := []string{}
		for _, name := range strings.Split(value, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
		c.Protected = names
	}
	if value, ok := get("API_ADDR"); ok {
		c.API.Addr = value
	}
	if value, ok := get("LOG_LEVEL"); ok {
		c.Log.Level = value
	}
	if value, ok := get("LOG_FILE"); ok {
		c.Log.File = value
	}
	return nil
}

// Encode writes the configuration as YAML.
func (c *Config) Encode(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(c); err != nil {
		return err
	}
	return encoder.Close()
}
