// Package config defines service configuration and how it is loaded.
package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // schools run in containers without zoneinfo

	"github.com/okian/absensi/internal/domain/status"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`

	// BackendURL is the attendance backend base URL, e.g.
	// "http://localhost:8000/api". Empty runs the in-memory demo backend.
	BackendURL string `koanf:"backend_url" validate:"omitempty,url"`

	// BackendUsername and BackendPassword are the login credentials.
	BackendUsername string `koanf:"backend_username" validate:"required_with=BackendPassword"`
	BackendPassword string `koanf:"backend_password"`

	// BackendToken is a static bearer token used instead of logging in.
	BackendToken string `koanf:"backend_token"`

	// BackendTimeoutMS bounds each backend request.
	BackendTimeoutMS int `koanf:"backend_timeout_ms" validate:"min=100,max=120000"`

	// DefaultThreshold is the late cut-off used when a class has no
	// readable schedule.
	DefaultThreshold string `koanf:"default_threshold" validate:"datetime=15:04"`

	// Timezone is the school's IANA zone; it decides scan dates and the
	// late cut-off.
	Timezone string `koanf:"timezone" validate:"required"`

	// ScanCooldownMS is the minimum gap between two accepted scans.
	ScanCooldownMS int `koanf:"scan_cooldown_ms" validate:"min=0"`

	// ScanTokenWindowMS rejects the same token again within this window.
	ScanTokenWindowMS int `koanf:"scan_token_window_ms" validate:"min=0"`

	// InboxSize bounds the session's pending task queue.
	InboxSize int `koanf:"inbox_size" validate:"min=1,max=65536"`

	// MetricsNamespace and MetricsSubsystem prefix every exported metric.
	MetricsNamespace string `koanf:"metrics_namespace" validate:"omitempty,alphanum"`
	MetricsSubsystem string `koanf:"metrics_subsystem" validate:"omitempty,alphanum"`

	// MetricsLabels are constant labels on every metric, written as
	// "school=sman1,site=north".
	MetricsLabels string `koanf:"metrics_labels"`

	// MetricsBucketsMS overrides the latency histogram buckets, written as
	// ascending milliseconds: "1,5,25,100".
	MetricsBucketsMS string `koanf:"metrics_buckets_ms"`

	// Demo seeds the in-memory backend with a sample school.
	Demo bool `koanf:"demo"`

	// DemoSecret signs the in-memory backend's student tokens.
	DemoSecret string `koanf:"demo_secret"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		BackendTimeoutMS:  10_000,
		DefaultThreshold:  status.DefaultThreshold.String(),
		Timezone:          "Asia/Jakarta",
		ScanCooldownMS:    2_000,
		ScanTokenWindowMS: 10_000,
		InboxSize:         256,
		MetricsNamespace:  "absensi",
		MetricsSubsystem:  "attendance",
		Demo:              true,
	}
}

// Location loads the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// Threshold returns the default late threshold.
func (c *Config) Threshold() status.Threshold {
	return status.ParseThresholdOr(c.DefaultThreshold, status.DefaultThreshold)
}

// BackendTimeout returns the per-request backend timeout.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutMS) * time.Millisecond
}

// ScanCooldown returns the minimum gap between accepted scans.
func (c *Config) ScanCooldown() time.Duration {
	return time.Duration(c.ScanCooldownMS) * time.Millisecond
}

// ScanTokenWindow returns the per-token duplicate window.
func (c *Config) ScanTokenWindow() time.Duration {
	return time.Duration(c.ScanTokenWindowMS) * time.Millisecond
}

// UseMemoryBackend reports whether no remote backend is configured.
func (c *Config) UseMemoryBackend() bool { return c.BackendURL == "" }

// MetricLabels parses MetricsLabels.
func (c *Config) MetricLabels() (map[string]string, error) {
	labels := map[string]string{}
	if strings.TrimSpace(c.MetricsLabels) == "" {
		return labels, nil
	}
	for _, pair := range strings.Split(c.MetricsLabels, ",") {
		key, val, ok := strings.Cut(strings.TrimSpace(pair), "=")
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if !ok || !validLabelName(key) || val == "" {
			return nil, fmt.Errorf("%w: metrics label %q", ErrInvalidConfig, pair)
		}
		if _, dup := labels[key]; dup {
			return nil, fmt.Errorf("%w: metrics label %q repeated", ErrInvalidConfig, key)
		}
		labels[key] = val
	}
	return labels, nil
}

// MetricBuckets parses MetricsBucketsMS. Nil means the library defaults.
func (c *Config) MetricBuckets() ([]float64, error) {
	if strings.TrimSpace(c.MetricsBucketsMS) == "" {
		return nil, nil
	}
	parts := strings.Split(c.MetricsBucketsMS, ",")
	buckets := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("%w: metrics bucket %q", ErrInvalidConfig, p)
		}
		buckets = append(buckets, v)
	}
	if !sort.Float64sAreSorted(buckets) {
		return nil, fmt.Errorf("%w: metrics buckets must ascend", ErrInvalidConfig)
	}
	return buckets, nil
}

func validLabelName(name string) bool {
	if name == "" || strings.HasPrefix(name, "__") {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
