package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/yeremiapane/table-reservations/models"
	"github.com/yeremiapane/table-reservations/services"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type BookingConfig struct {
	Timezone    string        `yaml:"timezone"`
	OpenHour    int           `yaml:"open_hour"`
	CloseHour   int           `yaml:"close_hour"`
	HorizonDays int           `yaml:"horizon_days"`
	LeadWindow  time.Duration `yaml:"lead_window"`
}

type SchedulerConfig struct {
	Interval     time.Duration `yaml:"interval"`
	ReleaseStale bool          `yaml:"release_stale"`
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Interval time.Duration `yaml:"interval"`
}

type AMQPConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

// TableSeed describes a table created on first start.
type TableSeed struct {
	Number   string `yaml:"number"`
	Capacity int    `yaml:"capacity"`
	Location string `yaml:"location"`
	Type     string `yaml:"type"`
}

type Config struct {
	Port       string          `yaml:"port"`
	GinMode    string          `yaml:"gin_mode"`
	LogLevel   string          `yaml:"log_level"`
	Database   DatabaseConfig  `yaml:"database"`
	JWTSecret  string          `yaml:"jwt_secret"`
	RedisURL   string          `yaml:"redis_url"`
	AMQP       AMQPConfig      `yaml:"amqp"`
	Booking    BookingConfig   `yaml:"booking"`
	Scheduler  SchedulerConfig `yaml:"scheduler"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
	CORSOrigin string          `yaml:"cors_origin"`
	LockWait   time.Duration   `yaml:"lock_wait"`
	Tables     []TableSeed     `yaml:"tables"`
}

func Default() *Config {
	return &Config{
		Port:     "8080",
		GinMode:  "debug",
		LogLevel: "info",
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "reservations.db",
		},
		AMQP: AMQPConfig{Exchange: "reservations"},
		Booking: BookingConfig{
			Timezone:    "Local",
			OpenHour:    11,
			CloseHour:   22,
			HorizonDays: 7,
			LeadWindow:  30 * time.Minute,
		},
		Scheduler: SchedulerConfig{Interval: 30 * time.Second},
		RateLimit: RateLimitConfig{Requests: 10, Interval: time.Minute},
		CORSOrigin: "*",
		LockWait:   5 * time.Second,
	}
}

// Load builds the configuration from the defaults, the YAML file at path
// (skipped when it does not exist), a .env file and finally the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// .env never overrides variables that are already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Port = getenv("PORT", c.Port)
	c.GinMode = getenv("GIN_MODE", c.GinMode)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.Database.Driver = getenv("DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getenv("DB_DSN", c.Database.DSN)
	c.JWTSecret = getenv("JWT_SECRET", c.JWTSecret)
	c.RedisURL = getenv("REDIS_URL", c.RedisURL)
	c.AMQP.URL = getenv("AMQP_URL", c.AMQP.URL)
	c.AMQP.Exchange = getenv("AMQP_EXCHANGE", c.AMQP.Exchange)
	c.Booking.Timezone = getenv("BOOKING_TIMEZONE", c.Booking.Timezone)
	c.CORSOrigin = getenv("CORS_ORIGIN", c.CORSOrigin)

	ints := []struct {
		key string
		dst *int
	}{
		{"BOOKING_OPEN_HOUR", &c.Booking.OpenHour},
		{"BOOKING_CLOSE_HOUR", &c.Booking.CloseHour},
		{"BOOKING_HORIZON_DAYS", &c.Booking.HorizonDays},
		{"RATE_LIMIT_REQUESTS", &c.RateLimit.Requests},
	}
	for _, v := range ints {
		raw := os.Getenv(v.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %q", v.key, raw)
		}
		*v.dst = n
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"BOOKING_LEAD_WINDOW", &c.Booking.LeadWindow},
		{"SCHEDULER_INTERVAL", &c.Scheduler.Interval},
		{"RATE_LIMIT_INTERVAL", &c.RateLimit.Interval},
		{"LOCK_WAIT", &c.LockWait},
	}
	for _, v := range durations {
		raw := os.Getenv(v.key)
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", v.key, err)
		}
		*v.dst = d
	}

	if raw := os.Getenv("SCHEDULER_RELEASE_STALE"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid SCHEDULER_RELEASE_STALE: %q", raw)
		}
		c.Scheduler.ReleaseStale = b
	}
	return nil
}

func (c *Config) Validate() error {
	if _, err := c.BookingPolicy(); err != nil {
		return err
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %s", c.Scheduler.Interval)
	}
	if c.RateLimit.Requests < 1 || c.RateLimit.Interval <= 0 {
		return fmt.Errorf("rate limit %d per %s is not valid", c.RateLimit.Requests, c.RateLimit.Interval)
	}
	if c.LockWait <= 0 {
		return fmt.Errorf("lock wait must be positive, got %s", c.LockWait)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET must be set")
	}
	switch strings.ToLower(c.Database.Driver) {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	for _, t := range c.Tables {
		if t.Number == "" || t.Capacity < 1 {
			return fmt.Errorf("seed table %q needs a number and a positive capacity", t.Number)
		}
	}
	return nil
}

// BookingPolicy turns the booking section into the policy used by the engine.
func (c *Config) BookingPolicy() (services.BookingPolicy, error) {
	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return services.BookingPolicy{}, fmt.Errorf("invalid BOOKING_TIMEZONE %q: %w", c.Booking.Timezone, err)
	}
	policy := services.BookingPolicy{
		OpenHour:    c.Booking.OpenHour,
		CloseHour:   c.Booking.CloseHour,
		HorizonDays: c.Booking.HorizonDays,
		LeadWindow:  c.Booking.LeadWindow,
		Location:    loc,
	}
	return policy, policy.Validate()
}

// SeedTables converts the configured seed list into table models.
func (c *Config) SeedTables() []models.Table {
	tables := make([]models.Table, 0, len(c.Tables))
	for _, t := range c.Tables {
		tables = append(tables, models.Table{
			TableNumber: t.Number,
			Capacity:    t.Capacity,
			Location:    t.Location,
			Type:        t.Type,
			Status:      models.TableAvailable,
		})
	}
	return tables
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
