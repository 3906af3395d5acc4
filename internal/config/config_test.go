package config_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-netsim/netsimd/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()

	if cfg.Control.Addr != ":8080" {
		t.Errorf("Control.Addr = %q, want %q", cfg.Control.Addr, ":8080")
	}

	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, ":9100")
	}

	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/metrics")
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}

	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "json")
	}

	if err := config.Validate(cfg); err != nil {
		t.Errorf("DefaultConfig() failed validation: %v", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	t.Parallel()

	yamlContent := `
control:
  addr: ":9090"
metrics:
  addr: ":9200"
  path: "/custom-metrics"
log:
  level: "debug"
  format: "text"
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Control.Addr != ":9090" {
		t.Errorf("Control.Addr = %q, want %q", cfg.Control.Addr, ":9090")
	}

	if cfg.Metrics.Addr != ":9200" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, ":9200")
	}

	if cfg.Metrics.Path != "/custom-metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/custom-metrics")
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}

	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "text")
	}
}

func TestLoadMergesDefaults(t *testing.T) {
	t.Parallel()

	yamlContent := `
control:
  addr: ":9999"
log:
  level: "warn"
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Control.Addr != ":9999" {
		t.Errorf("Control.Addr = %q, want %q", cfg.Control.Addr, ":9999")
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "warn")
	}

	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("Metrics.Addr = %q, want default %q", cfg.Metrics.Addr, ":9100")
	}

	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want default %q", cfg.Metrics.Path, "/metrics")
	}

	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want default %q", cfg.Log.Format, "json")
	}
}

func TestValidateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr error
	}{
		{
			name: "empty control addr",
			modify: func(cfg *config.Config) {
				cfg.Control.Addr = ""
			},
			wantErr: config.ErrEmptyControlAddr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			tt.modify(cfg)

			err := config.Validate(cfg)
			if err == nil {
				t.Fatal("Validate() returned nil, want error")
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  slog.Level
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "DEBUG", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "INFO", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "WARN", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "Error", want: slog.LevelError},
		{input: "unknown", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
		{input: "trace", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got := config.ParseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadNonexistentFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load("/nonexistent/path/config.yml")
	if err == nil {
		t.Fatal("Load() returned nil error for nonexistent file")
	}
}

// -------------------------------------------------------------------------
// Link Config Tests
// -------------------------------------------------------------------------

func TestLoadWithLinks(t *testing.T) {
	t.Parallel()

	yamlContent := `
control:
  addr: ":8080"
links:
  - node_a: r1
    device_a: eth0
    node_b: r2
    device_b: eth0
    router_a: "0.0.0.1"
    router_b: "0.0.0.2"
    data_rate: "10Mbps"
    delay: "2ms"
    interframe_gap: "9600ns"
    queue_capacity: 64
    metric: 1
  - node_a: r2
    device_a: eth1
    node_b: r3
    device_b: eth0
    data_rate: "1Gbps"
    delay: "1ms"
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if len(cfg.Links) != 2 {
		t.Fatalf("Links count = %d, want 2", len(cfg.Links))
	}

	l1 := cfg.Links[0]
	if l1.NodeA != "r1" || l1.NodeB != "r2" {
		t.Errorf("Links[0] endpoints = %s/%s, want r1/r2", l1.NodeA, l1.NodeB)
	}
	if l1.RouterA != "0.0.0.1" || l1.RouterB != "0.0.0.2" {
		t.Errorf("Links[0] routers = %s/%s, want 0.0.0.1/0.0.0.2", l1.RouterA, l1.RouterB)
	}
	if l1.DataRate != "10Mbps" {
		t.Errorf("Links[0].DataRate = %q, want 10Mbps", l1.DataRate)
	}
	if l1.Delay != 2*time.Millisecond {
		t.Errorf("Links[0].Delay = %v, want 2ms", l1.Delay)
	}
	if l1.InterframeGap != 9600*time.Nanosecond {
		t.Errorf("Links[0].InterframeGap = %v, want 9600ns", l1.InterframeGap)
	}
	if l1.QueueCapacity != 64 {
		t.Errorf("Links[0].QueueCapacity = %d, want 64", l1.QueueCapacity)
	}

	l2 := cfg.Links[1]
	if l2.LinkKey() == l1.LinkKey() {
		t.Error("Links[0] and Links[1] should have distinct keys")
	}
}

func TestValidateLinkErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr error
	}{
		{
			name: "missing endpoint",
			modify: func(cfg *config.Config) {
				cfg.Links = []config.LinkConfig{
					{NodeA: "r1", DeviceA: "eth0", NodeB: "", DeviceB: "eth0"},
				}
			},
			wantErr: config.ErrInvalidLinkEndpoints,
		},
		{
			name: "invalid data rate",
			modify: func(cfg *config.Config) {
				cfg.Links = []config.LinkConfig{
					{NodeA: "r1", DeviceA: "eth0", NodeB: "r2", DeviceB: "eth0", DataRate: "fast"},
				}
			},
			wantErr: config.ErrInvalidLinkDataRate,
		},
		{
			name: "duplicate link keys",
			modify: func(cfg *config.Config) {
				cfg.Links = []config.LinkConfig{
					{NodeA: "r1", DeviceA: "eth0", NodeB: "r2", DeviceB: "eth0"},
					{NodeA: "r1", DeviceA: "eth0", NodeB: "r2", DeviceB: "eth0"},
				}
			},
			wantErr: config.ErrDuplicateLinkKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			tt.modify(cfg)

			err := config.Validate(cfg)
			if err == nil {
				t.Fatal("Validate() returned nil, want error")
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLinkConfigKey(t *testing.T) {
	t.Parallel()

	lc := config.LinkConfig{NodeA: "r1", DeviceA: "eth0", NodeB: "r2", DeviceB: "eth0"}

	want := "r1/eth0|r2/eth0"
	if got := lc.LinkKey(); got != want {
		t.Errorf("LinkKey() = %q, want %q", got, want)
	}
}

// -------------------------------------------------------------------------
// Environment Variable Override Tests
// -------------------------------------------------------------------------

func TestLoadEnvOverrides(t *testing.T) {
	// Environment variable tests cannot be parallel because they modify
	// process-wide state (os.Setenv).

	yamlContent := `
control:
  addr: ":8080"
log:
  level: "info"
`
	path := writeTemp(t, yamlContent)

	t.Setenv("NETSIM_CONTROL_ADDR", ":9999")
	t.Setenv("NETSIM_LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Control.Addr != ":9999" {
		t.Errorf("Control.Addr = %q, want %q (from env)", cfg.Control.Addr, ":9999")
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q (from env)", cfg.Log.Level, "debug")
	}
}

func TestLoadEnvOverridesMetrics(t *testing.T) {
	yamlContent := `
control:
  addr: ":8080"
metrics:
  addr: ":9100"
  path: "/metrics"
`
	path := writeTemp(t, yamlContent)

	t.Setenv("NETSIM_METRICS_ADDR", ":9200")
	t.Setenv("NETSIM_METRICS_PATH", "/custom")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Metrics.Addr != ":9200" {
		t.Errorf("Metrics.Addr = %q, want %q (from env)", cfg.Metrics.Addr, ":9200")
	}

	if cfg.Metrics.Path != "/custom" {
		t.Errorf("Metrics.Path = %q, want %q (from env)", cfg.Metrics.Path, "/custom")
	}
}

// writeTemp creates a temporary YAML file and returns its path.
// The file is automatically cleaned up when the test finishes.
func writeTemp(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "netsimd.yml")

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	return path
}
