// Package config loads resolver settings from a YAML file and RESOLVE_ENVELOPE_* variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. RESOLVE_ENVELOPE_FAILURE_POLICY.
const EnvPrefix = "RESOLVE_ENVELOPE"

// Failure policy names.
const (
	PolicyPropagate = "propagate"
	PolicyMask      = "mask"
)

const (
	defaultFailurePolicy = PolicyPropagate
	defaultLogLevel      = "info"
)

// Config configures the resolver adapter and its ambient services.
type Config struct {
	FailurePolicy   string           `mapstructure:"failure_policy" yaml:"failure_policy"`
	OpaqueErrorType string           `mapstructure:"opaque_error_type" yaml:"opaque_error_type,omitempty"`
	Validation      ValidationConfig `mapstructure:"validation" yaml:"validation"`
	Batch           BatchConfig      `mapstructure:"batch" yaml:"batch"`
	Log             LogConfig        `mapstructure:"log" yaml:"log"`
}

// ValidationConfig lists arguments every request must carry.
type ValidationConfig struct {
	RequiredArgs []string `mapstructure:"required_args" yaml:"required_args,omitempty"`
}

// BatchConfig tunes batch normalization.
type BatchConfig struct {
	Parallel bool `mapstructure:"parallel" yaml:"parallel"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	Level   string `mapstructure:"level" yaml:"level"`
	Console bool   `mapstructure:"console" yaml:"console"`
}

// MasksFailures reports whether generic failures are hidden behind an opaque envelope.
func (c Config) MasksFailures() bool {
	return c.FailurePolicy == PolicyMask
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	switch c.FailurePolicy {
	case PolicyPropagate, PolicyMask:
	default:
		return fmt.Errorf("failure_policy: must be %q or %q, got %q", PolicyPropagate, PolicyMask, c.FailurePolicy)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unsupported level %q", c.Log.Level)
	}

	for i, name := range c.Validation.RequiredArgs {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("validation.required_args[%d]: empty argument name", i)
		}
	}
	return nil
}

// SetDefaults registers every key so environment overrides are visible to Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("failure_policy", defaultFailurePolicy)
	v.SetDefault("opaque_error_type", "")
	v.SetDefault("validation.required_args", []string{})
	v.SetDefault("batch.parallel", false)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.console", false)
}

// Load reads path (when non-empty) and environment overrides into a validated Config.
// A nil v uses a fresh viper instance.
func Load(v *viper.Viper, path string) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	cfg.FailurePolicy = strings.ToLower(strings.TrimSpace(cfg.FailurePolicy))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
