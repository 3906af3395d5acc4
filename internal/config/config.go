// Package config manages the netsimd daemon configuration using
// koanf/v2.
//
// Supports YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/go-netsim/netsimd/internal/simtime"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete netsimd configuration.
type Config struct {
	Control Control       `koanf:"control"`
	Metrics MetricsConfig `koanf:"metrics"`
	Log     LogConfig     `koanf:"log"`
	Links   []LinkConfig  `koanf:"links"`
}

// Control holds the control-plane HTTP API configuration.
type Control struct {
	// Addr is the control API listen address (e.g., ":8080").
	Addr string `koanf:"addr"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the HTTP listen address for the metrics endpoint (e.g., ":9100").
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint (e.g., "/metrics").
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// LinkConfig describes one declarative point-to-point link from the
// configuration file. Each entry creates two net devices, a channel
// connecting them, and (if RouterA/RouterB are set) the corresponding
// router adjacencies, on daemon startup. Links are not rebuilt on
// SIGHUP; only the log level is reloaded then.
type LinkConfig struct {
	// NodeA and NodeB are the node names the link connects.
	NodeA string `koanf:"node_a"`
	NodeB string `koanf:"node_b"`

	// DeviceA and DeviceB are the device names created on each node.
	DeviceA string `koanf:"device_a"`
	DeviceB string `koanf:"device_b"`

	// RouterA and RouterB are the RouterIDs, if any, NodeA and NodeB
	// advertise this link under. Empty means the node does not
	// participate in routing over this link.
	RouterA string `koanf:"router_a"`
	RouterB string `koanf:"router_b"`

	// DataRate is the link's transmit rate, e.g. "10Mbps". Parsed with
	// simtime.ParseDataRate.
	DataRate string `koanf:"data_rate"`

	// Delay is the link's one-way propagation delay, e.g. "2ms".
	Delay time.Duration `koanf:"delay"`

	// InterframeGap is the minimum gap enforced between transmissions
	// on each endpoint.
	InterframeGap time.Duration `koanf:"interframe_gap"`

	// QueueCapacity bounds each endpoint's egress queue. Zero means
	// unbounded.
	QueueCapacity int `koanf:"queue_capacity"`

	// Metric is the routing cost of this link. Zero defaults to 1.
	Metric uint32 `koanf:"metric"`
}

// LinkKey returns a unique identifier for the link based on the pair
// of (node, device) endpoints it connects. Used by Validate to reject
// duplicate links.
func (lc LinkConfig) LinkKey() string {
	return lc.NodeA + "/" + lc.DeviceA + "|" + lc.NodeB + "/" + lc.DeviceB
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Control: Control{
			Addr: ":8080",
		},
		Metrics: MetricsConfig{
			Addr: ":9100",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for netsimd
// configuration. Variables are named NETSIM_<section>_<key>, e.g.,
// NETSIM_CONTROL_ADDR.
const envPrefix = "NETSIM_"

// Load reads configuration from a YAML file at path, overlays
// environment variable overrides (NETSIM_ prefix), and merges on top
// of DefaultConfig(). Missing fields inherit defaults.
//
// Environment variable mapping:
//
//	NETSIM_CONTROL_ADDR -> control.addr
//	NETSIM_METRICS_ADDR -> metrics.addr
//	NETSIM_METRICS_PATH -> metrics.path
//	NETSIM_LOG_LEVEL    -> log.level
//	NETSIM_LOG_FORMAT   -> log.format
//
// Uses koanf/v2 with file + env providers and YAML parser.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

// envKeyMapper transforms NETSIM_CONTROL_ADDR -> control.addr.
// Strips the NETSIM_ prefix, lowercases, and replaces _ with .
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "_", ".")
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"control.addr": defaults.Control.Addr,
		"metrics.addr": defaults.Metrics.Addr,
		"metrics.path": defaults.Metrics.Path,
		"log.level":    defaults.Log.Level,
		"log.format":   defaults.Log.Format,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	// ErrEmptyControlAddr indicates the control API listen address is empty.
	ErrEmptyControlAddr = errors.New("control.addr must not be empty")

	// ErrInvalidLinkEndpoints indicates a link config is missing a node
	// or device name on one of its endpoints.
	ErrInvalidLinkEndpoints = errors.New("link node_a/device_a and node_b/device_b must all be set")

	// ErrInvalidLinkDataRate indicates a link's data_rate string could
	// not be parsed.
	ErrInvalidLinkDataRate = errors.New("link data_rate is invalid")

	// ErrDuplicateLinkKey indicates two links share the same pair of
	// (node, device) endpoints.
	ErrDuplicateLinkKey = errors.New("duplicate link key")
)

// Validate checks the configuration for logical errors. Returns the
// first validation error encountered.
func Validate(cfg *Config) error {
	if cfg.Control.Addr == "" {
		return ErrEmptyControlAddr
	}

	return validateLinks(cfg.Links)
}

// validateLinks checks each declarative link entry for correctness.
func validateLinks(links []LinkConfig) error {
	seen := make(map[string]struct{}, len(links))

	for i, lc := range links {
		if lc.NodeA == "" || lc.NodeB == "" || lc.DeviceA == "" || lc.DeviceB == "" {
			return fmt.Errorf("links[%d]: %w", i, ErrInvalidLinkEndpoints)
		}

		if lc.DataRate != "" {
			if _, err := simtime.ParseDataRate(lc.DataRate); err != nil {
				return fmt.Errorf("links[%d]: %w: %w", i, ErrInvalidLinkDataRate, err)
			}
		}

		key := lc.LinkKey()
		if _, dup := seen[key]; dup {
			return fmt.Errorf("links[%d] key %q: %w", i, key, ErrDuplicateLinkKey)
		}
		seen[key] = struct{}{}
	}

	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
//
// Recognized values: "debug", "info", "warn", "error" (case-insensitive).
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
