// Package config provides configuration loading and validation for modcache.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/modcache/pkg/safeconv"
)

// Sentinel validation errors.
var (
	ErrInvalidModuleSize     = errors.New("invalid max module size")
	ErrInvalidIdentitySource = errors.New("unknown identity source")
	ErrInvalidLogLevel       = errors.New("unknown log level")
	ErrInvalidLogFormat      = errors.New("unknown log format")
	ErrInvalidSampleRatio    = errors.New("sample ratio must be within [0, 1]")
	ErrEmptyPluginSymbol     = errors.New("plugin symbol must not be empty")
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

// Config holds all configuration for modcache.
type Config struct {
	Resolver  ResolverConfig  `mapstructure:"resolver"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ResolverConfig holds resolution cache configuration.
type ResolverConfig struct {
	ReferenceOnlySegments []string `mapstructure:"reference_only_segments"`
	MaxModuleSize         string   `mapstructure:"max_module_size"`
	PluginSymbol          string   `mapstructure:"plugin_symbol"`
	IdentitySource        string   `mapstructure:"identity_source"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds tracing and metrics export configuration.
type TelemetryConfig struct {
	OTLPEndpoint   string  `mapstructure:"otlp_endpoint"`
	MetricsAddr    string  `mapstructure:"metrics_addr"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
	OTLPInsecure   bool    `mapstructure:"otlp_insecure"`
	TraceLocations bool    `mapstructure:"trace_locations"`
}

// MaxModuleBytes returns MaxModuleSize in bytes. Zero disables the limit.
func (r ResolverConfig) MaxModuleBytes() (int64, error) {
	if strings.TrimSpace(r.MaxModuleSize) == "" {
		return 0, nil
	}

	n, err := humanize.ParseBytes(r.MaxModuleSize)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %w", ErrInvalidModuleSize, r.MaxModuleSize, err)
	}

	return safeconv.Uint64ToInt64(n), nil
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("modcache")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/modcache")
	}

	viperCfg.SetEnvPrefix("MODCACHE")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("resolver.reference_only_segments", DefaultReferenceOnlySegments)
	viperCfg.SetDefault("resolver.max_module_size", DefaultMaxModuleSize)
	viperCfg.SetDefault("resolver.plugin_symbol", DefaultPluginSymbol)
	viperCfg.SetDefault("resolver.identity_source", DefaultIdentitySource)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultOTLPInsecure)
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultSampleRatio)
	viperCfg.SetDefault("telemetry.metrics_addr", "")
	viperCfg.SetDefault("telemetry.trace_locations", false)
}

func validateConfig(config *Config) error {
	_, err := config.Resolver.MaxModuleBytes()
	if err != nil {
		return err
	}

	if strings.TrimSpace(config.Resolver.PluginSymbol) == "" {
		return ErrEmptyPluginSymbol
	}

	switch config.Resolver.IdentitySource {
	case IdentitySourceBuildInfo, IdentitySourceManifest, IdentitySourceChain:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidIdentitySource, config.Resolver.IdentitySource)
	}

	if !slices.Contains(validLogLevels, strings.ToLower(config.Logging.Level)) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, config.Logging.Level)
	}

	if config.Logging.Format != LogFormatText && config.Logging.Format != LogFormatJSON {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	if config.Telemetry.SampleRatio < 0 || config.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, config.Telemetry.SampleRatio)
	}

	return nil
}
