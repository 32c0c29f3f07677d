package authgate

import (
	"errors"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config defines a public type used by authgate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	JWT      JWTConfig
	Cache    CacheConfig
	Database DatabaseConfig
	Activity ActivityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig defines a public type used by authgate APIs.
//
// JWTConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type JWTConfig struct {
	Secret     []byte
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Leeway     time.Duration
}

/*
====================================
CACHE CONFIG
====================================
*/

// CacheConfig defines a public type used by authgate APIs.
//
// CacheConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CacheConfig struct {
	RedisPrefix        string
	SessionValidityTTL time.Duration
	UserSnapshotTTL    time.Duration
	CombinedTTL        time.Duration
	// WriteBuffer is the queue depth for detached cache-population tasks.
	WriteBuffer int
}

/*
====================================
DATABASE CONFIG
====================================
*/

// DatabaseConfig defines a public type used by authgate APIs.
//
// DatabaseConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type DatabaseConfig struct {
	URL             string
	MaxConnections  int
	MinConnections  int
	ConnMaxLifetime time.Duration
}

// ActivityConfig defines a public type used by authgate APIs.
//
// ActivityConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ActivityConfig struct {
	Enabled        bool
	FlushInterval  time.Duration
	SweepThreshold int
}

// AuditConfig defines a public type used by authgate APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by authgate APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration. Secret, Issuer, and
// Audience must still be supplied before [Config.Validate] passes.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
			Leeway:     30 * time.Second,
		},
		Cache: CacheConfig{
			RedisPrefix:        "ag",
			SessionValidityTTL: 60 * time.Second,
			UserSnapshotTTL:    5 * time.Minute,
			CombinedTTL:        60 * time.Second,
			WriteBuffer:        256,
		},
		Database: DatabaseConfig{
			MaxConnections:  25,
			MinConnections:  5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Activity: ActivityConfig{
			Enabled:        true,
			FlushInterval:  time.Minute,
			SweepThreshold: 1024,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT Secret must be at least 256 bits")
	}
	if c.JWT.Issuer == "" {
		return errors.New("JWT Issuer is required")
	}
	if c.JWT.Audience == "" {
		return errors.New("JWT Audience is required")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.Leeway < 0 {
		return errors.New("JWT Leeway must be >= 0")
	}

	// Cache
	if c.Cache.RedisPrefix == "" {
		return errors.New("Cache RedisPrefix is required")
	}
	if c.Cache.SessionValidityTTL <= 0 {
		return errors.New("Cache SessionValidityTTL must be > 0")
	}
	if c.Cache.UserSnapshotTTL <= 0 {
		return errors.New("Cache UserSnapshotTTL must be > 0")
	}
	if c.Cache.CombinedTTL <= 0 {
		return errors.New("Cache CombinedTTL must be > 0")
	}
	if c.Cache.CombinedTTL > c.Cache.UserSnapshotTTL {
		return errors.New("Cache CombinedTTL must be <= UserSnapshotTTL")
	}
	if c.Cache.WriteBuffer <= 0 {
		return errors.New("Cache WriteBuffer must be > 0")
	}

	// Activity
	if c.Activity.Enabled {
		if c.Activity.FlushInterval <= 0 {
			return errors.New("Activity FlushInterval must be > 0")
		}
		if c.Activity.SweepThreshold <= 0 {
			return errors.New("Activity SweepThreshold must be > 0")
		}
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	return nil
}

/*
====================================
ENVIRONMENT
====================================
*/

type envSchema struct {
	JWT struct {
		Secret     string        `env:"AUTHGATE_JWT_SECRET,required"`
		Issuer     string        `env:"AUTHGATE_JWT_ISSUER,required"`
		Audience   string        `env:"AUTHGATE_JWT_AUDIENCE,required"`
		AccessTTL  time.Duration `env:"AUTHGATE_JWT_ACCESS_TTL,default=15m"`
		RefreshTTL time.Duration `env:"AUTHGATE_JWT_REFRESH_TTL,default=168h"`
		Leeway     time.Duration `env:"AUTHGATE_JWT_LEEWAY,default=30s"`
	}
	Cache struct {
		RedisPrefix        string        `env:"AUTHGATE_CACHE_PREFIX,default=ag"`
		SessionValidityTTL time.Duration `env:"AUTHGATE_CACHE_SESSION_TTL,default=60s"`
		UserSnapshotTTL    time.Duration `env:"AUTHGATE_CACHE_USER_TTL,default=5m"`
		CombinedTTL        time.Duration `env:"AUTHGATE_CACHE_COMBINED_TTL,default=60s"`
		WriteBuffer        int           `env:"AUTHGATE_CACHE_WRITE_BUFFER,default=256"`
	}
	Database struct {
		URL             string        `env:"AUTHGATE_DATABASE_URL"`
		MaxConnections  int           `env:"AUTHGATE_DATABASE_MAX_CONNS,default=25"`
		MinConnections  int           `env:"AUTHGATE_DATABASE_MIN_CONNS,default=5"`
		ConnMaxLifetime time.Duration `env:"AUTHGATE_DATABASE_CONN_MAX_LIFETIME,default=30m"`
	}
	Activity struct {
		Enabled        bool          `env:"AUTHGATE_ACTIVITY_ENABLED,default=true"`
		FlushInterval  time.Duration `env:"AUTHGATE_ACTIVITY_FLUSH_INTERVAL,default=1m"`
		SweepThreshold int           `env:"AUTHGATE_ACTIVITY_SWEEP_THRESHOLD,default=1024"`
	}
	Audit struct {
		Enabled    bool `env:"AUTHGATE_AUDIT_ENABLED,default=false"`
		BufferSize int  `env:"AUTHGATE_AUDIT_BUFFER,default=1024"`
		DropIfFull bool `env:"AUTHGATE_AUDIT_DROP_IF_FULL,default=true"`
	}
	Metrics struct {
		Enabled                 bool `env:"AUTHGATE_METRICS_ENABLED,default=false"`
		EnableLatencyHistograms bool `env:"AUTHGATE_METRICS_LATENCY,default=false"`
	}
}

// ConfigFromEnv builds a [Config] from AUTHGATE_* environment variables,
// with defaults matching [defaultConfig] for everything optional.
//
// ConfigFromEnv may return an error when input validation, dependency calls, or security checks fail.
// ConfigFromEnv does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func ConfigFromEnv() (Config, error) {
	var env envSchema
	if err := envdecode.StrictDecode(&env); err != nil {
		return Config{}, err
	}

	cfg := defaultConfig()
	cfg.JWT.Secret = []byte(env.JWT.Secret)
	cfg.JWT.Issuer = env.JWT.Issuer
	cfg.JWT.Audience = env.JWT.Audience
	cfg.JWT.AccessTTL = env.JWT.AccessTTL
	cfg.JWT.RefreshTTL = env.JWT.RefreshTTL
	cfg.JWT.Leeway = env.JWT.Leeway
	cfg.Cache.RedisPrefix = env.Cache.RedisPrefix
	cfg.Cache.SessionValidityTTL = env.Cache.SessionValidityTTL
	cfg.Cache.UserSnapshotTTL = env.Cache.UserSnapshotTTL
	cfg.Cache.CombinedTTL = env.Cache.CombinedTTL
	cfg.Cache.WriteBuffer = env.Cache.WriteBuffer
	cfg.Database.URL = env.Database.URL
	cfg.Database.MaxConnections = env.Database.MaxConnections
	cfg.Database.MinConnections = env.Database.MinConnections
	cfg.Database.ConnMaxLifetime = env.Database.ConnMaxLifetime
	cfg.Activity.Enabled = env.Activity.Enabled
	cfg.Activity.FlushInterval = env.Activity.FlushInterval
	cfg.Activity.SweepThreshold = env.Activity.SweepThreshold
	cfg.Audit.Enabled = env.Audit.Enabled
	cfg.Audit.BufferSize = env.Audit.BufferSize
	cfg.Audit.DropIfFull = env.Audit.DropIfFull
	cfg.Metrics.Enabled = env.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = env.Metrics.EnableLatencyHistograms

	return cfg, cfg.Validate()
}
