package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
	Pricing  PricingConfig  `yaml:"pricing"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address" env:"HTTP_ADDRESS"`
	SwaggerDir     string   `yaml:"swagger_dir" env:"HTTP_SWAGGER_DIR"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-separator:","`
	GinMode        string   `yaml:"gin_mode" env:"GIN_MODE"`
}

type DatabaseConfig struct {
	Host          string `yaml:"host" env:"DB_HOST"`
	Port          int    `yaml:"port" env:"DB_PORT"`
	User          string `yaml:"user" env:"DB_USER"`
	Password      string `yaml:"password" env:"DB_PASSWORD"`
	Name          string `yaml:"name" env:"DB_NAME"`
	SSLMode       string `yaml:"ssl_mode" env:"DB_SSLMODE"`
	MigrateOnBoot bool   `yaml:"migrate_on_boot" env:"DB_MIGRATE_ON_BOOT"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	BookingEventsTopic string   `yaml:"booking_events_topic" env:"KAFKA_BOOKING_EVENTS_TOPIC"`
	NotificationsTopic string   `yaml:"notifications_topic" env:"KAFKA_NOTIFICATIONS_TOPIC"`
	GroupID            string   `yaml:"group_id" env:"KAFKA_GROUP_ID"`
}

type BookingConfig struct {
	CarsCacheTTLSeconds   int `yaml:"cars_cache_ttl_seconds" env:"BOOKING_CARS_CACHE_TTL_SECONDS"`
	IdempotencyTTLMinutes int `yaml:"idempotency_ttl_minutes" env:"BOOKING_IDEMPOTENCY_TTL_MINUTES"`
}

func (b BookingConfig) CarsCacheTTL() time.Duration {
	return time.Duration(b.CarsCacheTTLSeconds) * time.Second
}

func (b BookingConfig) IdempotencyTTL() time.Duration {
	return time.Duration(b.IdempotencyTTLMinutes) * time.Minute
}

// PricingConfig holds the multipliers used to derive weekly and monthly
// prices from the daily one. One pair applies to every car.
type PricingConfig struct {
	WeeklyMultiplier  int `yaml:"weekly_multiplier" env:"PRICING_WEEKLY_MULTIPLIER"`
	MonthlyMultiplier int `yaml:"monthly_multiplier" env:"PRICING_MONTHLY_MULTIPLIER"`
}

type WorkerConfig struct {
	MetricsAddress string `yaml:"metrics_address" env:"WORKER_METRICS_ADDRESS"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// SlogLevel maps the configured level name to slog, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadConfig reads the YAML file at path, lets environment variables override
// it and fills unset values with defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env overrides: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.GinMode == "" {
		c.HTTP.GinMode = "release"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Booking.CarsCacheTTLSeconds == 0 {
		c.Booking.CarsCacheTTLSeconds = 60
	}
	if c.Booking.IdempotencyTTLMinutes == 0 {
		c.Booking.IdempotencyTTLMinutes = 24 * 60
	}
	if c.Pricing.WeeklyMultiplier == 0 {
		c.Pricing.WeeklyMultiplier = 7
	}
	if c.Pricing.MonthlyMultiplier == 0 {
		c.Pricing.MonthlyMultiplier = 30
	}
	if c.Worker.MetricsAddress == "" {
		c.Worker.MetricsAddress = ":9093"
	}
}
