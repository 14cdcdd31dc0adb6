// Package config loads and validates extractor configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers accepted by store.driver.
const (
	StoreNone     = "none"
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Logging     LoggingConfig     `mapstructure:"logging"`
	Platform    PlatformConfig    `mapstructure:"platform"`
	Interactive InteractiveConfig `mapstructure:"interactive"`
	Passive     PassiveConfig     `mapstructure:"passive"`
	Extract     ExtractConfig     `mapstructure:"extract"`
	Stealth     StealthConfig     `mapstructure:"stealth"`
	Store       StoreConfig       `mapstructure:"store"`
	Server      ServerConfig      `mapstructure:"server"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// PlatformConfig names the target platform and its hosts.
type PlatformConfig struct {
	Name       string   `mapstructure:"name"`
	Source     string   `mapstructure:"source"`
	Domains    []string `mapstructure:"domains"`
	MirrorHost string   `mapstructure:"mirror_host"`
	// MirrorDomains are the domains rewritten onto MirrorHost on retry.
	MirrorDomains []string `mapstructure:"mirror_domains"`
}

// InteractiveConfig drives the headless browser strategy.
type InteractiveConfig struct {
	Headless     bool          `mapstructure:"headless"`
	NoSandbox    bool          `mapstructure:"no_sandbox"`
	ExecPath     string        `mapstructure:"exec_path"`
	NavTimeout   time.Duration `mapstructure:"nav_timeout"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	SettleMin    time.Duration `mapstructure:"settle_min"`
	SettleMax    time.Duration `mapstructure:"settle_max"`
	ContentLimit int           `mapstructure:"content_limit"`
}

// PassiveConfig drives the static HTTP strategy.
type PassiveConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	DomainQPS    float64       `mapstructure:"domain_qps"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	ContentLimit int           `mapstructure:"content_limit"`
}

// ExtractConfig bounds link harvesting.
type ExtractConfig struct {
	MaxLinks        int `mapstructure:"max_links"`
	AnchorScanLimit int `mapstructure:"anchor_scan_limit"`
}

// StealthConfig bounds the randomized browser identity.
type StealthConfig struct {
	UserAgents []string `mapstructure:"user_agents"`
	MinWidth   int      `mapstructure:"min_width"`
	MaxWidth   int      `mapstructure:"max_width"`
	MinHeight  int      `mapstructure:"min_height"`
	MaxHeight  int      `mapstructure:"max_height"`
	Timezones  []string `mapstructure:"timezones"`
	Locale     string   `mapstructure:"locale"`
	Seed       int64    `mapstructure:"seed"`
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig controls the Postgres document store.
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`
	Table           string        `mapstructure:"table"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	EnsureSchema    bool          `mapstructure:"ensure_schema"`
}

// RedisConfig controls the Redis document store.
type RedisConfig struct {
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxURLs        int           `mapstructure:"max_urls"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("EXTRACTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("platform.name", "reddit")
	v.SetDefault("platform.source", "reddit-extractor")
	v.SetDefault("platform.domains", []string{"reddit.com", "redd.it"})
	v.SetDefault("platform.mirror_host", "old.reddit.com")
	v.SetDefault("platform.mirror_domains", []string{"reddit.com"})
	v.SetDefault("interactive.headless", true)
	v.SetDefault("interactive.no_sandbox", false)
	v.SetDefault("interactive.exec_path", "")
	v.SetDefault("interactive.nav_timeout", 30*time.Second)
	v.SetDefault("interactive.max_attempts", 3)
	v.SetDefault("interactive.settle_min", 1200*time.Millisecond)
	v.SetDefault("interactive.settle_max", 3*time.Second)
	v.SetDefault("interactive.content_limit", 80)
	v.SetDefault("passive.timeout", 15*time.Second)
	v.SetDefault("passive.domain_qps", 1.0)
	v.SetDefault("passive.max_attempts", 1)
	v.SetDefault("passive.content_limit", 80)
	v.SetDefault("extract.max_links", 20)
	v.SetDefault("extract.anchor_scan_limit", 100)
	v.SetDefault("stealth.user_agents", []string{})
	v.SetDefault("stealth.min_width", 1200)
	v.SetDefault("stealth.max_width", 1400)
	v.SetDefault("stealth.min_height", 700)
	v.SetDefault("stealth.max_height", 900)
	v.SetDefault("stealth.timezones", []string{})
	v.SetDefault("stealth.locale", "en-US")
	v.SetDefault("stealth.seed", 0)
	v.SetDefault("store.driver", StoreNone)
	v.SetDefault("store.postgres.dsn", "")
	v.SetDefault("store.postgres.table", "reddit_posts")
	v.SetDefault("store.postgres.max_conns", 4)
	v.SetDefault("store.postgres.min_conns", 0)
	v.SetDefault("store.postgres.max_conn_lifetime", time.Hour)
	v.SetDefault("store.postgres.ensure_schema", true)
	v.SetDefault("store.redis.addr", "")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.key_prefix", "reddit:post:")
	v.SetDefault("store.redis.ttl", 0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout", 5*time.Minute)
	v.SetDefault("server.max_urls", 50)
	v.SetDefault("server.max_body_bytes", 1<<20)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Platform.Name == "" {
		return fmt.Errorf("platform.name must be set")
	}
	if len(c.Platform.Domains) == 0 {
		return fmt.Errorf("platform.domains must not be empty")
	}
	if c.Interactive.NavTimeout <= 0 {
		return fmt.Errorf("interactive.nav_timeout must be > 0")
	}
	if c.Interactive.MaxAttempts <= 0 {
		return fmt.Errorf("interactive.max_attempts must be > 0")
	}
	if c.Interactive.SettleMin < 0 || c.Interactive.SettleMax < c.Interactive.SettleMin {
		return fmt.Errorf("interactive.settle_max must be >= interactive.settle_min >= 0")
	}
	if c.Passive.Timeout <= 0 {
		return fmt.Errorf("passive.timeout must be > 0")
	}
	if c.Passive.MaxAttempts <= 0 {
		return fmt.Errorf("passive.max_attempts must be > 0")
	}
	if c.Passive.DomainQPS < 0 {
		return fmt.Errorf("passive.domain_qps must be >= 0")
	}
	if c.Extract.MaxLinks <= 0 || c.Extract.AnchorScanLimit <= 0 {
		return fmt.Errorf("extract.max_links and extract.anchor_scan_limit must be > 0")
	}
	switch c.Store.Driver {
	case StoreNone, StoreMemory:
	case StorePostgres:
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("store.postgres.dsn must be set when store.driver is postgres")
		}
	case StoreRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr must be set when store.driver is redis")
		}
	default:
		return fmt.Errorf("store.driver must be one of none, memory, postgres, redis")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.MaxURLs <= 0 {
		return fmt.Errorf("server.max_urls must be > 0")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be > 0")
	}
	return nil
}
