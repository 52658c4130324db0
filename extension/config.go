package extension

import "time"

// Store drivers understood by Config.Driver.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverLevelDB  = "leveldb"
)

// Metrics sinks understood by Config.Metrics.
const (
	MetricsForge      = "forge"
	MetricsPrometheus = "prometheus"
)

// Identity resolvers understood by Config.Identity.
const (
	IdentityHeader = "header"
	IdentityJWT    = "jwt"
)

// Config holds the points extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.points" or "points" keys).
type Config struct {
	// Owner is the address allowed to assign points and ban accounts.
	Owner string `json:"owner" mapstructure:"owner" yaml:"owner"`

	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for points routes (default: "/points").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// Driver selects the store when none is provided programmatically or
	// through grove (default: "memory").
	Driver string `json:"driver" mapstructure:"driver" yaml:"driver"`

	// DSN is the driver-specific connection string: a file path for
	// sqlite and leveldb, a URL for postgres and mongo.
	DSN string `json:"dsn" mapstructure:"dsn" yaml:"dsn"`

	// GroveDatabase is the name of a grove.DB registered in the DI container.
	// When set, the extension resolves this named database and auto-constructs
	// the appropriate store based on the driver type (pg/sqlite/mongo).
	// When empty and WithGroveDatabase was called, the default (unnamed) DB is used.
	GroveDatabase string `json:"grove_database" mapstructure:"grove_database" yaml:"grove_database"`

	// FallbackBanThreshold bans a sender once its data-carrying call count
	// reaches this value. Zero disables the automatic ban.
	FallbackBanThreshold uint64 `json:"fallback_ban_threshold" mapstructure:"fallback_ban_threshold" yaml:"fallback_ban_threshold"`

	// HookTimeout bounds each plugin hook (default: 5s).
	HookTimeout time.Duration `json:"hook_timeout" mapstructure:"hook_timeout" yaml:"hook_timeout"`

	// Metrics selects where ledger metrics go: "forge" records them on
	// app.Metrics(), "prometheus" registers them on the extension's own
	// registry (default: "forge"). HTTP request metrics always use that
	// registry, which is served at BasePath + "/metrics".
	Metrics string `json:"metrics" mapstructure:"metrics" yaml:"metrics"`

	// Identity selects how API callers are identified: "header" or "jwt"
	// (default: "header").
	Identity string `json:"identity" mapstructure:"identity" yaml:"identity"`

	// JWTSecret is the HMAC secret for the "jwt" identity resolver.
	JWTSecret string `json:"jwt_secret" mapstructure:"jwt_secret" yaml:"jwt_secret"`

	// JWTIssuer, when set, must match the token's iss claim.
	JWTIssuer string `json:"jwt_issuer" mapstructure:"jwt_issuer" yaml:"jwt_issuer"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:    "/points",
		Driver:      DriverMemory,
		HookTimeout: 5 * time.Second,
		Metrics:     MetricsForge,
		Identity:    IdentityHeader,
	}
}
