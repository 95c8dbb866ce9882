// internal/config/model.go
//
// Typed configuration model for the domain registry.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                         – dotenv values,
//   • `conf/global.yaml`                      – primary static file,
//   • `ADEPT_`-prefixed environment overrides – highest precedence.
//
// `Database.GlobalPassword` may hold a `vault:mount/path#key` reference.
// The loader leaves it untouched; `internal/app` resolves it through
// internal/vault when the pool is opened, so config tests never need a
// Vault server.
//
// Validation happens immediately after unmarshal and defaults; the app
// fails fast if required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"   validate:"required,hostname_port"`
	BasePath     string        `koanf:"base_path"`
	ForceHTTPS   bool          `koanf:"force_https"`
	ReadTimeout  time.Duration `koanf:"read_timeout"  validate:"gte=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gte=0"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"  validate:"gte=0"`
}

//
// Database section
//

// Database holds the DSN template and its secret.
//
// The *template* (`GlobalDSN`) is kept in YAML so operators can tweak
// host, port, or flags without touching Vault.  A `%s` verb, when present,
// receives the password.  The *secret* portion (`GlobalPassword`) is a
// literal or a Vault reference.
type Database struct {
	GlobalDSN      string `koanf:"global_dsn"      validate:"required,dsn_verbs"`
	GlobalPassword string `koanf:"global_password"`
	MaxOpenConns   int    `koanf:"max_open_conns"  validate:"gte=0"`
	MaxIdleConns   int    `koanf:"max_idle_conns"  validate:"gte=0"`
}

//
// Sequence section
//

// Sequence selects the numeric ID generator.
type Sequence struct {
	Driver    string `koanf:"driver"     validate:"oneof=sql redis"`
	Name      string `koanf:"name"`
	RedisAddr string `koanf:"redis_addr" validate:"required_if=Driver redis"`
	RedisKey  string `koanf:"redis_key"`
	Floor     int64  `koanf:"floor"      validate:"gte=0"`
}

//
// Negotiation section
//

// Negotiation tunes the host → record cache.
type Negotiation struct {
	IdleTTL         time.Duration `koanf:"idle_ttl"         validate:"gte=0"`
	MaxAge          time.Duration `koanf:"max_age"          validate:"gte=0"`
	MaxEntries      int           `koanf:"max_entries"      validate:"gte=0"`
	EvictInterval   time.Duration `koanf:"evict_interval"   validate:"gte=0"`
	FallbackDefault bool          `koanf:"fallback_default"`
	LocalhostAlias  string        `koanf:"localhost_alias"`
	StripWWW        bool          `koanf:"strip_www"`
}

//
// Health section
//

// Health tunes the live probe.
type Health struct {
	Timeout   time.Duration `koanf:"timeout"    validate:"gte=0"`
	ProbePath string        `koanf:"probe_path"`
}

//
// Log section
//

// Log selects the minimum level written by internal/logger.
type Log struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime and never set in YAML or env.
type Paths struct {
	Root string // ADEPT_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP        HTTP        `koanf:"http"`
	Database    Database    `koanf:"database"`
	Sequence    Sequence    `koanf:"sequence"`
	Negotiation Negotiation `koanf:"negotiation"`
	Health      Health      `koanf:"health"`
	Log         Log         `koanf:"log"`
	Paths       Paths       `koanf:"-"`
}

// applyDefaults fills zero values left by YAML and env.
func (c *Config) applyDefaults() {
	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = ":8080"
	}
	if c.HTTP.BasePath == "" {
		c.HTTP.BasePath = "/"
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 15 * time.Second
	}
	if c.HTTP.IdleTimeout == 0 {
		c.HTTP.IdleTimeout = 60 * time.Second
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 15
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Sequence.Driver == "" {
		c.Sequence.Driver = "sql"
	}
	if c.Negotiation.IdleTTL == 0 {
		c.Negotiation.IdleTTL = 30 * time.Minute
	}
	if c.Negotiation.MaxAge == 0 {
		c.Negotiation.MaxAge = time.Minute
	}
	if c.Negotiation.MaxEntries == 0 {
		c.Negotiation.MaxEntries = 1000
	}
	if c.Negotiation.EvictInterval == 0 {
		c.Negotiation.EvictInterval = 5 * time.Minute
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Health.Timeout == 0 {
		c.Health.Timeout = 5 * time.Second
	}
}
