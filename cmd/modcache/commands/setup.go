// Package commands implements CLI command handlers for modcache.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Sumatoshi-tech/modcache/pkg/config"
	"github.com/Sumatoshi-tech/modcache/pkg/identity"
	"github.com/Sumatoshi-tech/modcache/pkg/loader"
	"github.com/Sumatoshi-tech/modcache/pkg/observability"
	"github.com/Sumatoshi-tech/modcache/pkg/resolver"
	"github.com/Sumatoshi-tech/modcache/pkg/version"
)

// GlobalOptions holds the root command's persistent flags.
type GlobalOptions struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
	NoColor    bool
}

// runtimeEnv is what every command needs after startup: the loaded
// configuration and the telemetry providers built from it.
type runtimeEnv struct {
	cfg       *config.Config
	providers observability.Providers
	metrics   *observability.ResolverMetrics
}

func setup(opts *GlobalOptions, prometheus bool, logOut io.Writer) (*runtimeEnv, error) {
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio
	obsCfg.TraceLocations = cfg.Telemetry.TraceLocations
	obsCfg.Prometheus = prometheus
	obsCfg.LogLevel = observability.ParseLogLevel(cfg.Logging.Level)
	obsCfg.LogJSON = cfg.Logging.Format == config.LogFormatJSON
	obsCfg.LogOutput = logOut

	switch {
	case opts.Quiet:
		obsCfg.LogLevel = slog.LevelError
	case opts.Verbose:
		obsCfg.LogLevel = slog.LevelDebug
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	metrics, err := observability.NewResolverMetrics(providers.Meter)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create resolver metrics: %w", err), providers.Shutdown(context.Background()))
	}

	return &runtimeEnv{cfg: cfg, providers: providers, metrics: metrics}, nil
}

func (env *runtimeEnv) close() error {
	return env.providers.Shutdown(context.Background())
}

func (env *runtimeEnv) reader() identity.Reader {
	return identityReader(env.cfg.Resolver.IdentitySource)
}

func identityReader(source string) identity.Reader {
	switch source {
	case config.IdentitySourceBuildInfo:
		return identity.BuildInfoReader{}
	case config.IdentitySourceManifest:
		return identity.ManifestReader{}
	default:
		return identity.ChainReader{identity.BuildInfoReader{}, identity.ManifestReader{}}
	}
}

// newCache builds a resolution cache from the loaded configuration. With
// noLoad set, matching modules are not opened and their handle is the
// location itself.
func (env *runtimeEnv) newCache(noLoad bool) (*resolver.Cache, error) {
	maxSize, err := env.cfg.Resolver.MaxModuleBytes()
	if err != nil {
		return nil, err
	}

	var ld loader.Loader = loader.PluginLoader{Symbol: env.cfg.Resolver.PluginSymbol}
	if noLoad {
		ld = loader.Func(func(location string) (any, error) { return location, nil })
	}

	return resolver.New(resolver.Options{
		Reader:                env.reader(),
		Loader:                ld,
		ReferenceOnlySegments: env.cfg.Resolver.ReferenceOnlySegments,
		MaxModuleSize:         maxSize,
		Logger:                env.providers.Logger,
		Metrics:               env.metrics,
		Tracer:                env.providers.Tracer,
	}), nil
}
