// Package config loads and validates riverd configuration from YAML.
//
// The rule list is order-preserving: rules apply to a river in file order,
// which is also their evaluation order at runtime.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/riverkit/errors"
	"github.com/c360/riverkit/river"
)

// Config is the root riverd configuration.
type Config struct {
	NATS      NATSConfig      `yaml:"nats"`
	Subjects  []string        `yaml:"subjects"`
	Rules     []RuleSpec      `yaml:"rules"`
	Listeners ListenersConfig `yaml:"listeners"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// NATSConfig holds connection settings for the message bus.
type NATSConfig struct {
	URL           string   `yaml:"url"`
	Username      string   `yaml:"username"`
	Password      string   `yaml:"password"`
	Token         string   `yaml:"token"`
	MaxReconnects int      `yaml:"max_reconnects"`
	ReconnectWait Duration `yaml:"reconnect_wait"`
	Timeout       Duration `yaml:"timeout"`
}

// Duration wraps time.Duration so YAML values can use the usual "2s" form.
type Duration time.Duration

// UnmarshalYAML parses a nanosecond integer or a duration string like "2s".
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var ns int64
	if err := value.Decode(&ns); err == nil {
		*d = Duration(ns)
		return nil
	}

	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("invalid duration value: %w", errors.ErrInvalidConfig)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// RuleSpec declares one validation rule. Exactly one field must be set per
// entry.
type RuleSpec struct {
	Require       []string   `yaml:"require,omitempty"`
	Forbid        []string   `yaml:"forbid,omitempty"`
	RequireValue  *ValueSpec `yaml:"require_value,omitempty"`
	RequireSchema string     `yaml:"require_schema,omitempty"`
}

// ValueSpec names a key and the exact value it must hold.
type ValueSpec struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// ListenersConfig enables the stock listeners riverd can register.
type ListenersConfig struct {
	Log               bool   `yaml:"log"`
	DeadLetterSubject string `yaml:"dead_letter_subject"`
}

// WebSocketConfig enables the optional WebSocket ingress feeding the same
// river as the bus subjects.
type WebSocketConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Addr            string `yaml:"addr"`
	Path            string `yaml:"path"`
	MaxMessageBytes int64  `yaml:"max_message_bytes"`
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns a configuration with sensible development defaults.
func Default() *Config {
	return &Config{
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			MaxReconnects: -1,
			ReconnectWait: Duration(2 * time.Second),
			Timeout:       Duration(5 * time.Second),
		},
		Listeners: ListenersConfig{
			Log: true,
		},
		WebSocket: WebSocketConfig{
			Addr: ":8081",
			Path: "/ws",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
		},
	}
}

// Load reads, parses and validates a YAML configuration file. Missing
// optional fields fall back to Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Config", "Load", "read config file")
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapInvalid(err, "Config", "Load", "parse config file")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	if c.NATS.URL == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig,
			"Config", "Validate", "nats.url is required")
	}
	if len(c.Subjects) == 0 {
		return errors.WrapInvalid(errors.ErrMissingConfig,
			"Config", "Validate", "at least one subject is required")
	}

	for i, spec := range c.Rules {
		if err := spec.validate(); err != nil {
			return errors.WrapInvalid(err,
				"Config", "Validate", fmt.Sprintf("rule %d", i))
		}
	}

	return nil
}

// validate ensures exactly one rule variant is declared per entry.
func (s *RuleSpec) validate() error {
	set := 0
	if len(s.Require) > 0 {
		set++
	}
	if len(s.Forbid) > 0 {
		set++
	}
	if s.RequireValue != nil {
		set++
		if s.RequireValue.Key == "" {
			return fmt.Errorf("require_value needs a key: %w", errors.ErrInvalidConfig)
		}
	}
	if s.RequireSchema != "" {
		set++
	}

	if set != 1 {
		return fmt.Errorf("each rule entry must declare exactly one of require, forbid, require_value, require_schema: %w",
			errors.ErrInvalidConfig)
	}
	return nil
}

// ConfigureRiver applies the declared rules to a river in file order.
func (c *Config) ConfigureRiver(r *river.River) error {
	for i, spec := range c.Rules {
		switch {
		case len(spec.Require) > 0:
			r.Require(spec.Require...)
		case len(spec.Forbid) > 0:
			r.Forbid(spec.Forbid...)
		case spec.RequireValue != nil:
			r.RequireValue(spec.RequireValue.Key, spec.RequireValue.Value)
		case spec.RequireSchema != "":
			if _, err := r.RequireSchema(spec.RequireSchema); err != nil {
				return errors.WrapInvalid(err,
					"Config", "ConfigureRiver", fmt.Sprintf("rule %d", i))
			}
		}
	}
	return nil
}
