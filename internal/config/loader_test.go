package config

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"REFRESH_INTERVAL", "SAMPLE_TIMEOUT", "TOP_N", "CPU_THRESHOLD",
		"PROTECTED", "API_ADDR", "LOG_LEVEL", "LOG_FILE",
	} {
		t.Setenv(envPrefix+key, "")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "topN: 25\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TopN != 25 {
		t.Fatalf("expected topN 25, got %d", cfg.TopN)
	}
	if cfg.RefreshInterval.Duration != DefaultRefreshInterval {
		t.Fatalf("expected default refresh interval, got %s", cfg.RefreshInterval.Duration)
	}
	if cfg.CPUThreshold != DefaultCPUThreshold || cfg.API.Addr != DefaultAPIAddr || cfg.Log.Level != DefaultLogLevel {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !slices.Contains(cfg.Protected, "systemd") {
		t.Fatalf("expected default protected list, got %v", cfg.Protected)
	}
	if cfg.Path == "" {
		t.Fatalf("expected path to be recorded")
	}
}

func TestLoadParsesEveryField(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
refreshInterval: 500ms
sampleTimeout: 3s
topN: 5
cpuThreshold: 80
protected:
  - postgres
api:
  addr: 127.0.0.1:9000
log:
  level: debug
  file: /tmp/prokill.log
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RefreshInterval.Duration != 500*time.Millisecond || cfg.SampleTimeout.Duration != 3*time.Second {
		t.Fatalf("unexpected durations: %s %s", cfg.RefreshInterval.Duration, cfg.SampleTimeout.Duration)
	}
	if cfg.TopN != 5 || cfg.CPUThreshold != 80 {
		t.Fatalf("unexpected numbers: %+v", cfg)
	}
	if !slices.Equal(cfg.Protected, []string{"postgres"}) {
		t.Fatalf("expected protected list to replace defaults, got %v", cfg.Protected)
	}
	if cfg.API.Addr != "127.0.0.1:9000" || cfg.Log.Level != "debug" || cfg.Log.File != "/tmp/prokill.log" {
		t.Fatalf("unexpected nested fields: %+v", cfg)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "refreshIntervall: 1s\n")

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "refreshIntervall") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestLoadMissingFiles(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected defaults when default file is absent: %v", err)
	}
	if cfg.Path != "" || cfg.TopN != DefaultTopN {
		t.Fatalf("unexpected config %+v", cfg)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for explicit missing file")
	}
}

func TestLoadEmptyFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TopN != DefaultTopN {
		t.Fatalf("expected defaults for empty file, got %+v", cfg)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROKILL_REFRESH_INTERVAL", "750ms")
	t.Setenv("PROKILL_TOP_N", "3")
	t.Setenv("PROKILL_CPU_THRESHOLD", "12.5")
	t.Setenv("PROKILL_PROTECTED", "nginx, redis-server ,")
	t.Setenv("PROKILL_API_ADDR", "0.0.0.0:8000")
	t.Setenv("PROKILL_LOG_LEVEL", "warn")
	path := writeConfig(t, "topN: 20\nrefreshInterval: 10s\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RefreshInterval.Duration != 750*time.Millisecond || cfg.TopN != 3 || cfg.CPUThreshold != 12.5 {
		t.Fatalf("expected env overrides, got %+v", cfg)
	}
	if !slices.Equal(cfg.Protected, []string{"nginx", "redis-server"}) {
		t.Fatalf("unexpected protected list %v", cfg.Protected)
	}
	if cfg.API.Addr != "0.0.0.0:8000" || cfg.Log.Level != "warn" {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
}

func TestEnvironmentRejectsMalformedValues(t *testing.T) {
	cases := map[string]string{
		"REFRESH_INTERVAL": "soon",
		"TOP_N":            "ten",
		"CPU_THRESHOLD":    "hot",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(envPrefix+key, value)
			if _, err := Load(writeConfig(t, "")); err == nil || !strings.Contains(err.Error(), envPrefix+key) {
				t.Fatalf("expected %s error, got %v", key, err)
			}
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.TopN = -1
	cfg.CPUThreshold = -5
	cfg.API.Addr = "no-port"
	cfg.Log.Level = "chatty"
	cfg.Protected = []string{"ok", " "}

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"topN", "cpuThreshold", "api.addr", "log.level", "protected[1]"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PROKILL_TEST_DOTENV=from-file\nPROKILL_TEST_PRESET=from-file\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("PROKILL_TEST_DOTENV", "")
	os.Unsetenv("PROKILL_TEST_DOTENV")
	t.Setenv("PROKILL_TEST_PRESET", "from-env")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv("PROKILL_TEST_DOTENV"); got != "from-file" {
		t.Fatalf("expected value from file, got %q", got)
	}
	if got := os.Getenv("PROKILL_TEST_PRESET"); got != "from-env" {
		t.Fatalf("expected existing environment to win, got %q", got)
	}
	if err := LoadDotEnv(filepath.Join(dir, "absent.env")); err != nil {
		t.Fatalf("expected missing .env to be ignored: %v", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	clearEnv(t)
	var buf bytes.Buffer
	if err := Default().Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(buf.String(), "refreshInterval: 2s") {
		t.Fatalf("expected readable durations, got:\n%s", buf.String())
	}
	cfg, err := Load(writeConfig(t, buf.String()))
	if err != nil {
		t.Fatalf("reload encoded config: %v", err)
	}
	if cfg.TopN != DefaultTopN || cfg.RefreshInterval.Duration != DefaultRefreshInterval {
		t.Fatalf("unexpected reloaded config %+v", cfg)
	}
}
