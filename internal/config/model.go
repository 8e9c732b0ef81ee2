// internal/config/model.go
//
// Typed configuration model for storehub.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                            – dotenv values,
//   • `conf/global.yaml`                         – primary static file,
//   • `STOREHUB_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.  Zero durations and sizes are replaced by
// the defaults in `applyDefaults`.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • Durations accept Go syntax ("250ms", "5m").
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr      string        `koanf:"listen_addr"      validate:"required,hostname_port"`
	ForceHTTPS      bool          `koanf:"force_https"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"min=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"min=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"min=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=0"`
}

//
// Database section
//

// Database holds the control-plane DSN template and its secret.
//
// The *template* (`GlobalDSN`) is kept in YAML so operators can tweak
// host, port, or flags without touching Vault.  The *secret* portion
// (`GlobalPassword`) is usually a `vault:` reference and is injected into
// the DSN at connect time.
type Database struct {
	GlobalDSN       string        `koanf:"global_dsn"        validate:"required"`
	GlobalPassword  string        `koanf:"global_password"`
	MaxOpenConns    int           `koanf:"max_open_conns"    validate:"min=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns"    validate:"min=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"min=0"`
	PingAttempts    int           `koanf:"ping_attempts"     validate:"min=0,max=20"`
}

//
// Cache section
//

// Cache selects and tunes the shared tenant cache backend.  An empty
// driver disables caching; every lookup then goes to the database.
type Cache struct {
	Driver           string        `koanf:"driver"            validate:"omitempty,oneof=redis memory"`
	Addr             string        `koanf:"addr"              validate:"required_if=Driver redis,omitempty,hostname_port"`
	Username         string        `koanf:"username"`
	Password         string        `koanf:"password"`
	DB               int           `koanf:"db"                validate:"min=0,max=15"`
	PoolSize         int           `koanf:"pool_size"         validate:"min=0"`
	MinIdleConns     int           `koanf:"min_idle_conns"    validate:"min=0"`
	DialTimeout      time.Duration `koanf:"dial_timeout"      validate:"min=0"`
	ReadTimeout      time.Duration `koanf:"read_timeout"      validate:"min=0"`
	WriteTimeout     time.Duration `koanf:"write_timeout"     validate:"min=0"`
	MemoryCapacity   int           `koanf:"memory_capacity"   validate:"min=0"`
	FailureThreshold int           `koanf:"failure_threshold" validate:"min=-1"` // 0 = default, -1 = never cool down
	Cooldown         time.Duration `koanf:"cooldown"          validate:"min=0"`
}

//
// Tenancy section
//

// Tenancy configures host classification and the tenant cache.
type Tenancy struct {
	RootDomain         string        `koanf:"root_domain"         validate:"required,hostname_rfc1123"`
	ReservedSubdomains []string      `koanf:"reserved_subdomains" validate:"dive,required"`
	CacheTTL           time.Duration `koanf:"cache_ttl"           validate:"min=0"`
	LookupTimeout      time.Duration `koanf:"lookup_timeout"      validate:"min=0"`
	CoalesceMisses     bool          `koanf:"coalesce_misses"`
	WarmOnStart        bool          `koanf:"warm_on_start"`
	WarmConcurrency    int           `koanf:"warm_concurrency"    validate:"min=0,max=256"`
}

//
// Admin section
//

// Admin guards the operational endpoints.  An empty token disables them.
type Admin struct {
	Token string `koanf:"token" validate:"omitempty,min=16"`
}

//
// Log section
//

// Log controls the zap logger.  Dir is relative to Paths.Root unless
// absolute.
type Log struct {
	Dir   string `koanf:"dir"`
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // STOREHUB_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Cache    Cache    `koanf:"cache"`
	Tenancy  Tenancy  `koanf:"tenancy"`
	Admin    Admin    `koanf:"admin"`
	Log      Log      `koanf:"log"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}

// applyDefaults fills zero values.  Called after unmarshal, before
// validation.
func applyDefaults(c *Config) {
	setDur(&c.HTTP.ReadTimeout, 10*time.Second)
	setDur(&c.HTTP.WriteTimeout, 15*time.Second)
	setDur(&c.HTTP.IdleTimeout, 60*time.Second)
	setDur(&c.HTTP.ShutdownTimeout, 10*time.Second)

	setInt(&c.Database.MaxOpenConns, 15)
	setInt(&c.Database.MaxIdleConns, 5)
	setDur(&c.Database.ConnMaxLifetime, 30*time.Minute)
	setInt(&c.Database.PingAttempts, 3)

	setInt(&c.Cache.PoolSize, 20)
	setDur(&c.Cache.DialTimeout, 500*time.Millisecond)
	setDur(&c.Cache.ReadTimeout, 250*time.Millisecond)
	setDur(&c.Cache.WriteTimeout, 250*time.Millisecond)
	setInt(&c.Cache.MemoryCapacity, 10000)
	setInt(&c.Cache.FailureThreshold, 5)
	setDur(&c.Cache.Cooldown, 10*time.Second)

	setDur(&c.Tenancy.CacheTTL, 5*time.Minute)
	setDur(&c.Tenancy.LookupTimeout, 2*time.Second)
	setInt(&c.Tenancy.WarmConcurrency, 8)

	if c.Log.Dir == "" {
		c.Log.Dir = "logs"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func setDur(d *time.Duration, def time.Duration) {
	if *d == 0 {
		*d = def
	}
}

func setInt(n *int, def int) {
	if *n == 0 {
		*n = def
	}
}
