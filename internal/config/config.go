// Package config loads the service configuration from config.yaml and
// PROFILE_* environment variables.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/property-profile/internal/db"
	"github.com/sells-group/property-profile/internal/events"
	"github.com/sells-group/property-profile/internal/reconcile"
	"github.com/sells-group/property-profile/internal/source"
)

// Config is the root configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Aggregate  AggregateConfig  `yaml:"aggregate" mapstructure:"aggregate"`
	Reconcile  reconcile.Bounds `yaml:"reconcile" mapstructure:"reconcile"`
	Providers  ProvidersConfig  `yaml:"providers" mapstructure:"providers"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Events     events.Config    `yaml:"events" mapstructure:"events"`
	Rules      RulesConfig      `yaml:"rules" mapstructure:"rules"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port                int      `yaml:"port" mapstructure:"port"`
	RequestTimeoutSecs  int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	ShutdownTimeoutSecs int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
	CORSOrigins         []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	TTLSecs int  `yaml:"ttl_secs" mapstructure:"ttl_secs"`
}

// TTL returns the cache TTL as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSecs) * time.Second
}

// AggregateConfig bounds the fan-out.
type AggregateConfig struct {
	BudgetSecs         int `yaml:"budget_secs" mapstructure:"budget_secs"`
	AdapterTimeoutSecs int `yaml:"adapter_timeout_secs" mapstructure:"adapter_timeout_secs"`
	ParcelTimeoutSecs  int `yaml:"parcel_timeout_secs" mapstructure:"parcel_timeout_secs"`
}

// ProvidersConfig holds provider base URLs and outbound HTTP settings.
type ProvidersConfig struct {
	UserAgent     string           `yaml:"user_agent" mapstructure:"user_agent"`
	RatePerSecond float64          `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	TimeoutSecs   int              `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Geocoder      string           `yaml:"geocoder" mapstructure:"geocoder"`
	Cadastre      string           `yaml:"cadastre" mapstructure:"cadastre"`
	Endpoints     source.Endpoints `yaml:"endpoints" mapstructure:"endpoints"`
}

// ResilienceConfig configures retries and circuit breakers for outbound calls.
type ResilienceConfig struct {
	MaxAttempts         int `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseDelayMs         int `yaml:"base_delay_ms" mapstructure:"base_delay_ms"`
	MaxDelayMs          int `yaml:"max_delay_ms" mapstructure:"max_delay_ms"`
	BreakerThreshold    int `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerCooldownSecs int `yaml:"breaker_cooldown_secs" mapstructure:"breaker_cooldown_secs"`
}

// StoreConfig configures profile persistence. An empty driver disables it.
type StoreConfig struct {
	Driver      string        `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string        `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string        `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	Pool        db.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// RulesConfig points at an optional recommendation rules file.
type RulesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PROFILE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	bounds := reconcile.DefaultBounds()
	endpoints := source.DefaultEndpoints()
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_secs", 45)
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl_secs", 900)
	v.SetDefault("aggregate.budget_secs", 30)
	v.SetDefault("aggregate.adapter_timeout_secs", 12)
	v.SetDefault("aggregate.parcel_timeout_secs", 10)
	v.SetDefault("reconcile.min_price_per_area", bounds.MinPricePerArea)
	v.SetDefault("reconcile.max_price_per_area", bounds.MaxPricePerArea)
	v.SetDefault("reconcile.min_surface", bounds.MinSurface)
	v.SetDefault("providers.user_agent", "property-profile/1.0")
	v.SetDefault("providers.rate_per_second", 10)
	v.SetDefault("providers.timeout_secs", 10)
	v.SetDefault("providers.geocoder", "https://api-adresse.data.gouv.fr")
	v.SetDefault("providers.cadastre", "https://apicarto.ign.fr/api")
	v.SetDefault("providers.endpoints.georisques", endpoints.Georisques)
	v.SetDefault("providers.endpoints.energy", endpoints.Energy)
	v.SetDefault("providers.endpoints.sales", endpoints.Sales)
	v.SetDefault("providers.endpoints.education", endpoints.Education)
	v.SetDefault("providers.endpoints.air_quality", endpoints.AirQuality)
	v.SetDefault("providers.endpoints.overpass", endpoints.Overpass)
	v.SetDefault("providers.endpoints.safety", "")
	v.SetDefault("providers.endpoints.companies", endpoints.Companies)
	v.SetDefault("resilience.max_attempts", 3)
	v.SetDefault("resilience.base_delay_ms", 200)
	v.SetDefault("resilience.max_delay_ms", 2000)
	v.SetDefault("resilience.breaker_threshold", 5)
	v.SetDefault("resilience.breaker_cooldown_secs", 30)
	v.SetDefault("store.driver", "")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.sqlite_path", "profiles.db")
	v.SetDefault("events.url", "")
	v.SetDefault("events.exchange", "property-profile")
	v.SetDefault("events.routing_key", "profile.generated")
	v.SetDefault("rules.path", "")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields required by mode ("serve" or "profile").
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be between 1 and 65535")
		}
		if c.Server.RequestTimeoutSecs <= 0 {
			problems = append(problems, "server.request_timeout_secs must be positive")
		}
	case "profile":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Aggregate.BudgetSecs <= 0 {
		problems = append(problems, "aggregate.budget_secs must be positive")
	}
	if c.Aggregate.AdapterTimeoutSecs <= 0 {
		problems = append(problems, "aggregate.adapter_timeout_secs must be positive")
	}
	if c.Cache.Enabled && c.Cache.TTLSecs <= 0 {
		problems = append(problems, "cache.ttl_secs must be positive when the cache is enabled")
	}

	b := c.Reconcile
	if b.MinPricePerArea < 0 || b.MinSurface < 0 {
		problems = append(problems, "reconcile bounds must not be negative")
	}
	if b.MaxPricePerArea <= b.MinPricePerArea {
		problems = append(problems, "reconcile.max_price_per_area must exceed reconcile.min_price_per_area")
	}

	switch c.Store.Driver {
	case "":
	case "sqlite":
		if c.Store.SQLitePath == "" {
			problems = append(problems, "store.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
	default:
		problems = append(problems, "store.driver must be empty, sqlite or postgres")
	}

	if c.Events.URL != "" && c.Events.Exchange == "" {
		problems = append(problems, "events.exchange is required when events.url is set")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s validation failed: %s", mode, strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
