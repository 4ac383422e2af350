package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"

	"github.com/jonwraymond/depshield/observe"
	"github.com/jonwraymond/depshield/resilience"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

// ServerConfig configures the operational HTTP server that serves health
// and breaker-control endpoints.
type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
}

// ObservabilityConfig configures tracing, metrics and logging.
type ObservabilityConfig struct {
	ServiceName     string  `mapstructure:"service_name"`
	Version         string  `mapstructure:"version"`
	TracingEnabled  bool    `mapstructure:"tracing_enabled"`
	TracingExporter string  `mapstructure:"tracing_exporter"`
	TracingEndpoint string  `mapstructure:"tracing_endpoint"`
	SamplePct       float64 `mapstructure:"sample_pct"`
	MetricsEnabled  bool    `mapstructure:"metrics_enabled"`
	MetricsExporter string  `mapstructure:"metrics_exporter"`
	MetricsEndpoint string  `mapstructure:"metrics_endpoint"`
	LogLevel        string  `mapstructure:"log_level"`
}

// ControlConfig configures the breaker-control endpoints.
type ControlConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// SigningKey protects the mutating endpoints. Empty disables auth.
	SigningKey string `mapstructure:"signing_key"`
	Issuer     string `mapstructure:"issuer"`
	Audience   string `mapstructure:"audience"`
}

// RedisConfig configures the shared result store.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DependencyConfig is the wire form of a dependency's resilience settings.
// Durations are strings ("100ms", "30s") so the file stays readable.
type DependencyConfig struct {
	FailureThreshold int    `mapstructure:"failure_threshold"`
	SuccessThreshold int    `mapstructure:"success_threshold"`
	OpenTimeout      string `mapstructure:"open_timeout"`
	WindowSize       int    `mapstructure:"window_size"`

	MaxRetries int    `mapstructure:"max_retries"`
	BaseDelay  string `mapstructure:"base_delay"`
	MaxDelay   string `mapstructure:"max_delay"`

	ConnectTimeout string `mapstructure:"connect_timeout"`
	ReadTimeout    string `mapstructure:"read_timeout"`

	MaxConcurrent int    `mapstructure:"max_concurrent"`
	ResultTTL     string `mapstructure:"result_ttl"`
}

// Config is the root configuration.
type Config struct {
	Server        ServerConfig                `mapstructure:"server"`
	Observability ObservabilityConfig         `mapstructure:"observability"`
	Control       ControlConfig               `mapstructure:"control"`
	Redis         RedisConfig                 `mapstructure:"redis"`
	Defaults      DependencyConfig            `mapstructure:"defaults"`
	Dependencies  map[string]DependencyConfig `mapstructure:"dependencies"`
}

// Load reads configuration from the given file, or from the default search
// path when path is empty. Environment variables prefixed with DEPSHIELD_
// override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("observability.service_name", "depshield")
	v.SetDefault("observability.tracing_exporter", "none")
	v.SetDefault("observability.sample_pct", 1.0)
	v.SetDefault("observability.metrics_exporter", "none")
	v.SetDefault("observability.log_level", "info")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("defaults.failure_threshold", 5)
	v.SetDefault("defaults.success_threshold", 2)
	v.SetDefault("defaults.open_timeout", "60s")
	v.SetDefault("defaults.max_retries", 3)
	v.SetDefault("defaults.base_delay", "100ms")
	v.SetDefault("defaults.max_delay", "10s")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("depshield")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("DEPSHIELD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("config: read: %w", err)
		}
		// No file found on the search path: defaults plus env is fine.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for structural errors.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
				)
			}),
		),
		validation.Field(&c.Observability,
			validation.By(func(value interface{}) error {
				oc, ok := value.(ObservabilityConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be an ObservabilityConfig")
				}
				return validation.ValidateStruct(&oc,
					validation.Field(&oc.ServiceName, validation.Required),
					validation.Field(&oc.TracingExporter,
						validation.In(toAnySlice(observe.ValidTracingExporters)...),
					),
					validation.Field(&oc.MetricsExporter,
						validation.In(toAnySlice(observe.ValidMetricsExporters)...),
					),
					validation.Field(&oc.LogLevel,
						validation.In(toAnySlice(observe.ValidLogLevels)...),
					),
					validation.Field(&oc.SamplePct,
						validation.Min(0.0),
						validation.Max(1.0),
					),
				)
			}),
		),
		validation.Field(&c.Redis,
			validation.By(func(value interface{}) error {
				rc, ok := value.(RedisConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a RedisConfig")
				}
				if !rc.Enabled {
					return nil
				}
				return validation.ValidateStruct(&rc,
					validation.Field(&rc.Addr,
						validation.Required,
						validation.By(validateHostPort),
					),
				)
			}),
		),
		validation.Field(&c.Defaults,
			validation.By(validateDependencyConfig),
		),
		validation.Field(&c.Dependencies,
			validation.By(func(value interface{}) error {
				deps, ok := value.(map[string]DependencyConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a dependency map")
				}
				for name, dep := range deps {
					if name == "" {
						return validation.NewError("validation_empty_name", "dependency name cannot be empty")
					}
					if err := validateDependencyConfig(dep); err != nil {
						return fmt.Errorf("dependency %q: %w", name, err)
					}
				}
				return nil
			}),
		),
	)
}

// Observe converts the observability section into an observe.Config.
func (c *Config) Observe() observe.Config {
	return observe.Config{
		ServiceName: c.Observability.ServiceName,
		Version:     c.Observability.Version,
		Tracing: observe.TracingConfig{
			Enabled:   c.Observability.TracingEnabled,
			Exporter:  c.Observability.TracingExporter,
			Endpoint:  c.Observability.TracingEndpoint,
			SamplePct: c.Observability.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Observability.MetricsEnabled,
			Exporter: c.Observability.MetricsExporter,
			Endpoint: c.Observability.MetricsEndpoint,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.Observability.LogLevel,
		},
	}
}

// Resilience converts a wire-form dependency config into runtime settings.
func (d DependencyConfig) Resilience() (resilience.DependencyConfig, error) {
	out := resilience.DependencyConfig{
		FailureThreshold: d.FailureThreshold,
		SuccessThreshold: d.SuccessThreshold,
		WindowSize:       d.WindowSize,
		MaxRetries:       d.MaxRetries,
		MaxConcurrent:    d.MaxConcurrent,
	}

	durations := []struct {
		raw  string
		name string
		dst  *time.Duration
	}{
		{d.OpenTimeout, "open_timeout", &out.OpenTimeout},
		{d.BaseDelay, "base_delay", &out.BaseDelay},
		{d.MaxDelay, "max_delay", &out.MaxDelay},
		{d.ConnectTimeout, "connect_timeout", &out.ConnectTimeout},
		{d.ReadTimeout, "read_timeout", &out.ReadTimeout},
		{d.ResultTTL, "result_ttl", &out.ResultTTL},
	}
	for _, dur := range durations {
		if dur.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(dur.raw)
		if err != nil {
			return resilience.DependencyConfig{}, fmt.Errorf("config: %s: %w", dur.name, err)
		}
		*dur.dst = parsed
	}

	return out, nil
}

// RegistryOptions builds the registry options for the configured defaults
// and per-dependency overrides.
func (c *Config) RegistryOptions() ([]resilience.RegistryOption, error) {
	defaults, err := c.Defaults.Resilience()
	if err != nil {
		return nil, err
	}

	opts := []resilience.RegistryOption{resilience.WithDefaults(defaults)}

	for name, dep := range c.Dependencies {
		override, err := dep.Resilience()
		if err != nil {
			return nil, fmt.Errorf("dependency %q: %w", name, err)
		}
		opts = append(opts, resilience.WithOverride(name, override))
	}

	return opts, nil
}

func validateDependencyConfig(value interface{}) error {
	dep, ok := value.(DependencyConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a DependencyConfig")
	}

	if dep.FailureThreshold < 0 {
		return validation.NewError("validation_invalid_threshold", "failure_threshold cannot be negative")
	}
	if dep.WindowSize < 0 {
		return validation.NewError("validation_invalid_window", "window_size cannot be negative")
	}

	for _, raw := range []string{dep.OpenTimeout, dep.BaseDelay, dep.MaxDelay, dep.ConnectTimeout, dep.ReadTimeout, dep.ResultTTL} {
		if raw == "" {
			continue
		}
		if err := validateDuration(raw); err != nil {
			return err
		}
	}

	return nil
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if _, err := time.ParseDuration(durationStr); err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 100ms, 30s)")
	}

	return nil
}

func toAnySlice(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
