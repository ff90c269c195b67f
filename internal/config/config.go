// Package config loads the engine configuration from a YAML file with
// environment variable overrides. The config is immutable after Load.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the engine.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Ebay     EbayConfig     `yaml:"ebay"`
	Fees     FeeConfig      `yaml:"fees"`
	Zombie   ZombieConfig   `yaml:"zombie"`
	Queue    QueueConfig    `yaml:"queue"`
	Promo    PromoConfig    `yaml:"kickstarter"`
	Offers   OfferConfig    `yaml:"offers"`
	Reprice  RepriceConfig  `yaml:"reprice"`
	Relist   RelistConfig   `yaml:"relist"`
	Growth   GrowthConfig   `yaml:"growth"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds the Redis connection used for the gateway quota limiter
// and the worker run-exclusion locks. Optional; the worker falls back to
// process-local behavior when Addr is empty.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// EbayConfig holds the marketplace gateway settings.
type EbayConfig struct {
	Mode                string `yaml:"mode"` // "mock" | "sandbox" | "production"
	ClientID            string `yaml:"client_id"`
	ClientSecret        string `yaml:"client_secret"`
	RefreshToken        string `yaml:"refresh_token"`
	FulfillmentPolicyID string `yaml:"fulfillment_policy_id"`
	MarketplaceID       string `yaml:"marketplace_id"`
	DailyCallLimit      int    `yaml:"daily_call_limit"`
	TimeoutSeconds      int    `yaml:"timeout_seconds"`
}

// Timeout returns the gateway request timeout as a duration.
func (c EbayConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// FeeConfig holds the marketplace fee structure used by the profit floor.
type FeeConfig struct {
	BaseFeeRate           float64 `yaml:"ebay_base_fee_rate"`
	PaymentProcessingRate float64 `yaml:"payment_processing_rate"`
	PerOrderFee           float64 `yaml:"per_order_fee"`
	MinProfitFloor        float64 `yaml:"min_profit_floor"`
}

// ZombieConfig holds zombie detection and resurrection thresholds.
type ZombieConfig struct {
	DaysThreshold            int `yaml:"days_threshold"`
	ViewsThreshold           int `yaml:"views_threshold"`
	MaxCycles                int `yaml:"max_cycles"`
	ResurrectionDelaySeconds int `yaml:"resurrection_delay_seconds"`
}

// ResurrectionDelay returns the post-withdraw cooldown as a duration.
func (c ZombieConfig) ResurrectionDelay() time.Duration {
	return time.Duration(c.ResurrectionDelaySeconds) * time.Second
}

// QueueConfig holds SmartQueue batch and surge window settings.
type QueueConfig struct {
	BatchSize      int    `yaml:"batch_size"`
	SurgeDay       string `yaml:"surge_window_day"`
	SurgeStartHour int    `yaml:"surge_window_start_hour"`
	SurgeEndHour   int    `yaml:"surge_window_end_hour"`
	SurgeTimezone  string `yaml:"surge_window_timezone"`
}

// PromoConfig holds Kickstarter promoted-listings settings.
type PromoConfig struct {
	AdRatePercent float64 `yaml:"ad_rate"`
	DurationDays  int     `yaml:"duration_days"`
}

// OfferConfig holds OfferSniper settings for outbound and inbound offers.
type OfferConfig struct {
	Tiers               string  `yaml:"tiers"` // "days:pct,days:pct,..."
	AutoAcceptThreshold float64 `yaml:"auto_accept_threshold"`
	CounterThreshold    float64 `yaml:"counter_threshold"`
	CounterPercent      float64 `yaml:"counter_percent"`
	PollIntervalHours   int     `yaml:"poll_interval_hours"`
	CooldownHours       int     `yaml:"cooldown_hours"`
}

// Cooldown returns the per-(listing, buyer) outbound cooldown.
func (c OfferConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownHours) * time.Hour
}

// RepriceConfig holds the graduated markdown ladder.
type RepriceConfig struct {
	Steps string `yaml:"steps"` // "days:pct,days:pct,..."
}

// RelistConfig holds AutoRelister preventive-relist settings.
type RelistConfig struct {
	CadenceDays    int `yaml:"cadence_days"`
	ViewsThreshold int `yaml:"views_threshold"`
}

// GrowthConfig holds purgatory, photo shuffler, and store pulse settings.
type GrowthConfig struct {
	PurgatorySalePercent    float64 `yaml:"purgatory_sale_percent"`
	PhotoShuffleDaysNoViews int     `yaml:"photo_shuffle_days_no_views"`
	StorePulseDayOfMonth    int     `yaml:"store_pulse_day_of_month"`
}

// Load reads and parses the configuration file, applying defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file, if present, is loaded first so secrets can live there
// locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	overrideString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	overrideInt := func(dst *int, key string) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	overrideFloat := func(dst *float64, key string) {
		if v := os.Getenv(key); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}

	overrideString(&cfg.Database.URL, "DATABASE_URL")
	overrideString(&cfg.Redis.Addr, "REDIS_ADDR")

	overrideString(&cfg.Ebay.Mode, "FLIPFLOW_EBAY_MODE")
	overrideString(&cfg.Ebay.ClientID, "FLIPFLOW_EBAY_CLIENT_ID")
	overrideString(&cfg.Ebay.ClientSecret, "FLIPFLOW_EBAY_CLIENT_SECRET")
	overrideString(&cfg.Ebay.RefreshToken, "FLIPFLOW_EBAY_REFRESH_TOKEN")

	overrideFloat(&cfg.Fees.BaseFeeRate, "FLIPFLOW_EBAY_BASE_FEE_RATE")
	overrideFloat(&cfg.Fees.PaymentProcessingRate, "FLIPFLOW_PAYMENT_PROCESSING_RATE")
	overrideFloat(&cfg.Fees.PerOrderFee, "FLIPFLOW_PER_ORDER_FEE")
	overrideFloat(&cfg.Fees.MinProfitFloor, "FLIPFLOW_MIN_PROFIT_FLOOR")

	overrideInt(&cfg.Zombie.DaysThreshold, "FLIPFLOW_ZOMBIE_DAYS_THRESHOLD")
	overrideInt(&cfg.Zombie.ViewsThreshold, "FLIPFLOW_ZOMBIE_VIEWS_THRESHOLD")
	overrideInt(&cfg.Zombie.MaxCycles, "FLIPFLOW_MAX_ZOMBIE_CYCLES")
	overrideInt(&cfg.Zombie.ResurrectionDelaySeconds, "FLIPFLOW_RESURRECTION_DELAY_SECONDS")

	overrideInt(&cfg.Queue.BatchSize, "FLIPFLOW_QUEUE_BATCH_SIZE")
	overrideString(&cfg.Queue.SurgeDay, "FLIPFLOW_SURGE_WINDOW_DAY")
	overrideInt(&cfg.Queue.SurgeStartHour, "FLIPFLOW_SURGE_WINDOW_START_HOUR")
	overrideInt(&cfg.Queue.SurgeEndHour, "FLIPFLOW_SURGE_WINDOW_END_HOUR")
	overrideString(&cfg.Queue.SurgeTimezone, "FLIPFLOW_SURGE_WINDOW_TIMEZONE")

	overrideFloat(&cfg.Promo.AdRatePercent, "FLIPFLOW_KICKSTARTER_AD_RATE")
	overrideInt(&cfg.Promo.DurationDays, "FLIPFLOW_KICKSTARTER_DURATION_DAYS")

	overrideString(&cfg.Offers.Tiers, "FLIPFLOW_OFFER_TIERS")
	overrideFloat(&cfg.Offers.AutoAcceptThreshold, "FLIPFLOW_OFFER_AUTO_ACCEPT_THRESHOLD")
	overrideFloat(&cfg.Offers.CounterThreshold, "FLIPFLOW_OFFER_COUNTER_THRESHOLD")
	overrideFloat(&cfg.Offers.CounterPercent, "FLIPFLOW_OFFER_COUNTER_PERCENT")
	overrideInt(&cfg.Offers.PollIntervalHours, "FLIPFLOW_OFFER_POLL_INTERVAL_HOURS")
	overrideInt(&cfg.Offers.CooldownHours, "FLIPFLOW_OFFER_COOLDOWN_HOURS")

	overrideString(&cfg.Reprice.Steps, "FLIPFLOW_REPRICE_STEPS")
	overrideInt(&cfg.Relist.CadenceDays, "FLIPFLOW_RELIST_CADENCE_DAYS")
	overrideInt(&cfg.Relist.ViewsThreshold, "FLIPFLOW_RELIST_VIEWS_THRESHOLD")

	overrideFloat(&cfg.Growth.PurgatorySalePercent, "FLIPFLOW_PURGATORY_SALE_PERCENT")
	overrideInt(&cfg.Growth.PhotoShuffleDaysNoViews, "FLIPFLOW_PHOTO_SHUFFLE_DAYS_NO_VIEWS")
	overrideInt(&cfg.Growth.StorePulseDayOfMonth, "FLIPFLOW_STORE_PULSE_DAY_OF_MONTH")

	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 20
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Ebay.Mode == "" {
		cfg.Ebay.Mode = "mock"
	}
	if cfg.Ebay.MarketplaceID == "" {
		cfg.Ebay.MarketplaceID = "EBAY_US"
	}
	if cfg.Ebay.DailyCallLimit == 0 {
		cfg.Ebay.DailyCallLimit = 5000
	}
	if cfg.Ebay.TimeoutSeconds == 0 {
		cfg.Ebay.TimeoutSeconds = 30
	}
	if cfg.Fees.BaseFeeRate == 0 {
		cfg.Fees.BaseFeeRate = 0.13
	}
	if cfg.Fees.PaymentProcessingRate == 0 {
		cfg.Fees.PaymentProcessingRate = 0.029
	}
	if cfg.Fees.PerOrderFee == 0 {
		cfg.Fees.PerOrderFee = 0.30
	}
	if cfg.Fees.MinProfitFloor == 0 {
		cfg.Fees.MinProfitFloor = 5.00
	}
	if cfg.Zombie.DaysThreshold == 0 {
		cfg.Zombie.DaysThreshold = 60
	}
	if cfg.Zombie.ViewsThreshold == 0 {
		cfg.Zombie.ViewsThreshold = 10
	}
	if cfg.Zombie.MaxCycles == 0 {
		cfg.Zombie.MaxCycles = 3
	}
	if cfg.Zombie.ResurrectionDelaySeconds == 0 {
		cfg.Zombie.ResurrectionDelaySeconds = 120
	}
	if cfg.Queue.BatchSize == 0 {
		cfg.Queue.BatchSize = 10
	}
	if cfg.Queue.SurgeDay == "" {
		cfg.Queue.SurgeDay = "sunday"
	}
	if cfg.Queue.SurgeStartHour == 0 {
		cfg.Queue.SurgeStartHour = 20
	}
	if cfg.Queue.SurgeEndHour == 0 {
		cfg.Queue.SurgeEndHour = 22
	}
	if cfg.Queue.SurgeTimezone == "" {
		cfg.Queue.SurgeTimezone = "America/New_York"
	}
	if cfg.Promo.AdRatePercent == 0 {
		cfg.Promo.AdRatePercent = 1.5
	}
	if cfg.Promo.DurationDays == 0 {
		cfg.Promo.DurationDays = 14
	}
	if cfg.Offers.Tiers == "" {
		cfg.Offers.Tiers = "0:5,14:10,30:15,45:20"
	}
	if cfg.Offers.AutoAcceptThreshold == 0 {
		cfg.Offers.AutoAcceptThreshold = 0.90
	}
	if cfg.Offers.CounterThreshold == 0 {
		cfg.Offers.CounterThreshold = 0.75
	}
	if cfg.Offers.CounterPercent == 0 {
		cfg.Offers.CounterPercent = 0.95
	}
	if cfg.Offers.PollIntervalHours == 0 {
		cfg.Offers.PollIntervalHours = 1
	}
	if cfg.Offers.CooldownHours == 0 {
		cfg.Offers.CooldownHours = 24
	}
	if cfg.Reprice.Steps == "" {
		cfg.Reprice.Steps = "30:5,60:10,90:15"
	}
	if cfg.Relist.CadenceDays == 0 {
		cfg.Relist.CadenceDays = 45
	}
	if cfg.Relist.ViewsThreshold == 0 {
		cfg.Relist.ViewsThreshold = 10
	}
	if cfg.Growth.PurgatorySalePercent == 0 {
		cfg.Growth.PurgatorySalePercent = 30.0
	}
	if cfg.Growth.PhotoShuffleDaysNoViews == 0 {
		cfg.Growth.PhotoShuffleDaysNoViews = 14
	}
	if cfg.Growth.StorePulseDayOfMonth == 0 {
		cfg.Growth.StorePulseDayOfMonth = 1
	}
}
