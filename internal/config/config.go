package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"charge-costs/internal/logging"
)

// Provider kinds selectable via pricing.provider. The kind is resolved once
// at startup; it decides which reconciler the service is wired with.
const (
	ProviderFixedWeekly = "fixed_weekly"
	ProviderAwattar     = "awattar"
	ProviderMonta       = "monta"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates TeslaMate PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SchedulerConfig governs reconciliation cadence.
type SchedulerConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

// ReconcileConfig carries the engine's matching parameters.
type ReconcileConfig struct {
	GeofenceID                 int     `mapstructure:"geofence_id"`
	FeePerKwh                  float64 `mapstructure:"fee_per_kwh"`
	Phases                     int     `mapstructure:"phases"`
	MatchingStartToleranceMins int     `mapstructure:"matching_start_tolerance_minutes"`
	MatchingEndToleranceMins   int     `mapstructure:"matching_end_tolerance_minutes"`
	MatchingEnergyRatio        float64 `mapstructure:"matching_energy_tolerance_ratio"`
}

// PricingConfig selects and parameterises the price source.
type PricingConfig struct {
	Provider    string            `mapstructure:"provider"`
	FixedWeekly FixedWeeklyConfig `mapstructure:"fixed_weekly"`
	Awattar     AwattarConfig     `mapstructure:"awattar"`
	Monta       MontaConfig       `mapstructure:"monta"`
}

// FixedWeeklyConfig holds the human-authored weekly tariff.
type FixedWeeklyConfig struct {
	Prices   []string `mapstructure:"prices"`
	TimeZone string   `mapstructure:"time_zone"`
}

// AwattarConfig captures aWATTar connectivity.
type AwattarConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// MontaConfig captures Monta connectivity.
type MontaConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	ClientID       string        `mapstructure:"client_id"`
	ClientSecret   string        `mapstructure:"client_secret"`
	ChargePointID  int           `mapstructure:"charge_point_id"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CHARGECOSTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "chargecosts")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scheduler.interval", "5m")
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("reconcile.geofence_id", 1)
	v.SetDefault("reconcile.fee_per_kwh", 0.0)
	v.SetDefault("reconcile.phases", 0)
	v.SetDefault("reconcile.matching_start_tolerance_minutes", 120)
	v.SetDefault("reconcile.matching_end_tolerance_minutes", 240)
	v.SetDefault("reconcile.matching_energy_tolerance_ratio", 0.2)

	v.SetDefault("pricing.provider", ProviderFixedWeekly)
	v.SetDefault("pricing.awattar.base_url", "https://api.awattar.de/v1")
	v.SetDefault("pricing.awattar.request_timeout", "10s")
	v.SetDefault("pricing.monta.base_url", "https://public-api.monta.com/api/v1")
	v.SetDefault("pricing.monta.request_timeout", "10s")

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Reconcile.GeofenceID <= 0 {
		return fmt.Errorf("reconcile.geofence_id must be greater than zero")
	}
	if c.Reconcile.FeePerKwh < 0 {
		return fmt.Errorf("reconcile.fee_per_kwh cannot be negative")
	}
	if c.Reconcile.Phases < 0 {
		return fmt.Errorf("reconcile.phases cannot be negative")
	}
	if c.Reconcile.MatchingStartToleranceMins < 0 || c.Reconcile.MatchingEndToleranceMins < 0 {
		return fmt.Errorf("reconcile matching tolerances cannot be negative")
	}
	if c.Reconcile.MatchingEnergyRatio < 0 || c.Reconcile.MatchingEnergyRatio > 1 {
		return fmt.Errorf("reconcile.matching_energy_tolerance_ratio must be between 0 and 1")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}

	switch c.Pricing.Provider {
	case ProviderFixedWeekly:
		if len(c.Pricing.FixedWeekly.Prices) == 0 {
			return fmt.Errorf("pricing.fixed_weekly.prices must not be empty")
		}
		if c.Pricing.FixedWeekly.TimeZone == "" {
			return fmt.Errorf("pricing.fixed_weekly.time_zone is required")
		}
	case ProviderAwattar:
		if c.Pricing.Awattar.BaseURL == "" {
			return fmt.Errorf("pricing.awattar.base_url is required")
		}
	case ProviderMonta:
		if c.Pricing.Monta.ClientID == "" || c.Pricing.Monta.ClientSecret == "" {
			return fmt.Errorf("pricing.monta client credentials are required")
		}
	default:
		return fmt.Errorf("unknown pricing provider %q", c.Pricing.Provider)
	}

	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
