// Package extension provides the Forge extension adapter for the points
// ledger.
//
// It implements the forge.Extension interface to integrate the ledger
// into a Forge application with store discovery, DI registration, metrics
// and the HTTP API.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.points" or "points" keys.
package extension

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xraph/forge"
	gometrics "github.com/xraph/go-utils/metrics"
	"github.com/xraph/vessel"

	points "github.com/xraph/points"
	"github.com/xraph/points/api"
	"github.com/xraph/points/observability"
	"github.com/xraph/points/store"
	"github.com/xraph/points/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "points"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Membership and points ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the points ledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *points.Ledger
	store      store.Store
	handler    *api.Handler
	registry   *prometheus.Registry
	useGrove   bool
	ledgerOpts []points.Option
	apiOpts    []api.Option
}

// New creates a new points Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
		registry:      prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger.
// This is nil until Register is called.
func (e *Extension) Engine() *points.Ledger { return e.engine }

// Registry returns the Prometheus registry behind BasePath + "/metrics".
func (e *Extension) Registry() *prometheus.Registry { return e.registry }

// Config returns the resolved configuration.
func (e *Extension) Config() Config { return e.config }

// Register implements [forge.Extension]. It loads configuration, resolves
// the store, builds the ledger and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	owner, err := types.ParseAddress(e.config.Owner)
	if err != nil {
		return fmt.Errorf("points: owner: %w", err)
	}

	s, source, err := e.resolveStore(context.Background())
	if err != nil {
		return err
	}
	e.store = s

	ledgerOpts, err := e.buildLedgerOpts(fapp)
	if err != nil {
		return err
	}
	e.engine = points.New(e.store, owner, ledgerOpts...)

	e.Logger().Info("points: ledger configured",
		forge.F("owner", owner.Hex()),
		forge.F("store", source),
		forge.F("base_path", e.config.BasePath),
		forge.F("metrics", e.config.Metrics),
	)

	if err := vessel.Provide(fapp.Container(), func() (*points.Ledger, error) {
		return e.engine, nil
	}); err != nil {
		return err
	}

	if !e.config.DisableRoutes {
		if err := e.mountRoutes(fapp); err != nil {
			return err
		}
	}
	return nil
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("points: extension not initialized")
	}

	if e.config.DisableMigrate {
		e.Logger().Warn("points: migrations disabled, schema must already exist")
	}
	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("points: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildLedgerOpts constructs points.Option values from the resolved config.
func (e *Extension) buildLedgerOpts(fapp forge.App) ([]points.Option, error) {
	opts := make([]points.Option, 0, len(e.ledgerOpts)+4)

	if e.config.DisableMigrate {
		opts = append(opts, points.WithSkipMigrate())
	}

	if e.config.FallbackBanThreshold > 0 {
		opts = append(opts, points.WithFallbackBanThreshold(e.config.FallbackBanThreshold))
	}
	if e.config.HookTimeout > 0 {
		opts = append(opts, points.WithHookTimeout(e.config.HookTimeout))
	}
	var forgeMetrics gometrics.MetricFactory
	if m := fapp.Metrics(); m != nil {
		forgeMetrics = m
	}
	mp, err := e.metricsPlugin(forgeMetrics)
	if err != nil {
		return nil, err
	}
	if mp != nil {
		opts = append(opts, points.WithPlugin(mp))
	}

	// Append any pass-through ledger options.
	opts = append(opts, e.ledgerOpts...)

	return opts, nil
}

// metricsPlugin builds the ledger metrics plugin for the configured sink.
// It returns nil when the forge sink is selected but the app has no metrics.
func (e *Extension) metricsPlugin(forgeMetrics gometrics.MetricFactory) (*observability.MetricsExtension, error) {
	switch e.config.Metrics {
	case "", MetricsForge:
		if forgeMetrics == nil {
			return nil, nil
		}
		return observability.NewMetricsExtension(metricsAdapter{m: forgeMetrics}), nil
	case MetricsPrometheus:
		return observability.NewMetricsExtension(observability.NewPrometheusFactory(e.registry)), nil
	default:
		return nil, fmt.Errorf("points: unknown metrics sink %q", e.config.Metrics)
	}
}

// mountRoutes serves the API under BasePath on the app router.
func (e *Extension) mountRoutes(fapp forge.App) error {
	opts := make([]api.Option, 0, len(e.apiOpts)+3)
	opts = append(opts,
		api.WithRegisterer(e.registry),
		api.WithMetricsGatherer(e.registry),
	)
	switch e.config.Identity {
	case "", IdentityHeader:
		opts = append(opts, api.WithIdentityResolver(api.HeaderResolver{}))
	case IdentityJWT:
		if e.config.JWTSecret == "" {
			return errors.New("points: identity \"jwt\" requires jwt_secret")
		}
		opts = append(opts, api.WithIdentityResolver(api.NewJWTResolver(api.JWTConfig{
			HMACSecret: e.config.JWTSecret,
			Issuer:     e.config.JWTIssuer,
		})))
	default:
		return fmt.Errorf("points: unknown identity resolver %q", e.config.Identity)
	}
	opts = append(opts, e.apiOpts...)

	e.handler = api.New(e.engine, opts...)

	base := strings.TrimRight(e.config.BasePath, "/")
	return fapp.Router().Handle(base, http.StripPrefix(base, e.handler.Router()))
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("points: configuration is required but not found in config files; " +
				"ensure 'extensions.points' or 'points' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("points: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("driver", e.config.Driver),
		forge.F("grove_database", e.config.GroveDatabase),
		forge.F("fallback_ban_threshold", e.config.FallbackBanThreshold),
		forge.F("metrics", e.config.Metrics),
		forge.F("identity", e.config.Identity),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.points" first (namespaced pattern).
	if cm.IsSet("extensions.points") {
		if err := cm.Bind("extensions.points", &cfg); err == nil {
			e.Logger().Debug("points: loaded config from file",
				forge.F("key", "extensions.points"),
			)
			return cfg, true
		}
		e.Logger().Warn("points: failed to bind extensions.points config",
			forge.F("error", "bind failed"),
		)
	}

	// Try top-level "points" key.
	if cm.IsSet("points") {
		if err := cm.Bind("points", &cfg); err == nil {
			e.Logger().Debug("points: loaded config from file",
				forge.F("key", "points"),
			)
			return cfg, true
		}
		e.Logger().Warn("points: failed to bind points config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BasePath == "" {
		cfg.BasePath = defaults.BasePath
	}
	if cfg.Driver == "" {
		cfg.Driver = defaults.Driver
	}
	if cfg.HookTimeout == 0 {
		cfg.HookTimeout = defaults.HookTimeout
	}
	if cfg.Metrics == "" {
		cfg.Metrics = defaults.Metrics
	}
	if cfg.Identity == "" {
		cfg.Identity = defaults.Identity
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	fill := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
		}
	}
	fill(&yamlConfig.Owner, programmaticConfig.Owner)
	fill(&yamlConfig.BasePath, programmaticConfig.BasePath)
	fill(&yamlConfig.Driver, programmaticConfig.Driver)
	fill(&yamlConfig.DSN, programmaticConfig.DSN)
	fill(&yamlConfig.GroveDatabase, programmaticConfig.GroveDatabase)
	fill(&yamlConfig.Metrics, programmaticConfig.Metrics)
	fill(&yamlConfig.Identity, programmaticConfig.Identity)
	fill(&yamlConfig.JWTSecret, programmaticConfig.JWTSecret)
	fill(&yamlConfig.JWTIssuer, programmaticConfig.JWTIssuer)

	// Numeric fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.FallbackBanThreshold == 0 && programmaticConfig.FallbackBanThreshold != 0 {
		yamlConfig.FallbackBanThreshold = programmaticConfig.FallbackBanThreshold
	}
	if yamlConfig.HookTimeout == 0 && programmaticConfig.HookTimeout != 0 {
		yamlConfig.HookTimeout = programmaticConfig.HookTimeout
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
