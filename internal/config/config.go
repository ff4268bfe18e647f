// Package config loads service settings from an optional config file, a .env
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"interview-scheduler/internal/availability"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Storage    StorageConfig
	Auth       AuthConfig
	Google     GoogleConfig
	Scheduling SchedulingConfig
	NATS       NATSConfig
	Redis      RedisConfig
	Lock       LockConfig
	Log        LogConfig
}

type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	URL string
}

type StorageConfig struct {
	// Driver is "postgres" or "memory".
	Driver string
}

type AuthConfig struct {
	JWTSecret string
	// StaticTokens is a comma-separated list of owner:token pairs.
	StaticTokens string
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	CalendarID   string
	StateSecret  string
}

type SchedulingConfig struct {
	Timezone    string
	Concurrency int
	CallTimeout time.Duration
	AllowedDays []string
}

type NATSConfig struct {
	URL string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LockConfig struct {
	TTL time.Duration
}

type LogConfig struct {
	Level  string
	Pretty bool
}

var envBindings = map[string]string{
	"database.url":         "DATABASE_URL",
	"server.port":          "PORT",
	"auth.static_tokens":   "STATIC_TOKENS",
	"auth.jwt_secret":      "JWT_HMAC_SECRET",
	"google.client_id":     "GOOGLE_CLIENT_ID",
	"google.client_secret": "GOOGLE_CLIENT_SECRET",
	"google.redirect_url":  "GOOGLE_REDIRECT_URL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("storage.driver", "postgres")
	v.SetDefault("google.calendar_id", "primary")
	v.SetDefault("scheduling.timezone", "UTC")
	v.SetDefault("scheduling.concurrency", 4)
	v.SetDefault("scheduling.call_timeout", 15*time.Second)
	v.SetDefault("scheduling.allowed_days", []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"})
	v.SetDefault("redis.db", 0)
	v.SetDefault("lock.ttl", 5*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Load reads configPath when it is non-empty, then .env, then the environment.
// Environment values win over the file.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SCHEDULER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, "SCHEDULER_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("server.port"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Database: DatabaseConfig{URL: v.GetString("database.url")},
		Storage:  StorageConfig{Driver: strings.ToLower(v.GetString("storage.driver"))},
		Auth: AuthConfig{
			JWTSecret:    v.GetString("auth.jwt_secret"),
			StaticTokens: v.GetString("auth.static_tokens"),
		},
		Google: GoogleConfig{
			ClientID:     v.GetString("google.client_id"),
			ClientSecret: v.GetString("google.client_secret"),
			RedirectURL:  v.GetString("google.redirect_url"),
			CalendarID:   v.GetString("google.calendar_id"),
			StateSecret:  v.GetString("google.state_secret"),
		},
		Scheduling: SchedulingConfig{
			Timezone:    v.GetString("scheduling.timezone"),
			Concurrency: v.GetInt("scheduling.concurrency"),
			CallTimeout: v.GetDuration("scheduling.call_timeout"),
			AllowedDays: v.GetStringSlice("scheduling.allowed_days"),
		},
		NATS: NATSConfig{URL: v.GetString("nats.url")},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Lock: LockConfig{TTL: v.GetDuration("lock.ttl")},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Pretty: v.GetBool("log.pretty"),
		},
	}
	if cfg.Google.StateSecret == "" {
		cfg.Google.StateSecret = cfg.Auth.JWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case "postgres":
		if c.Database.URL == "" {
			errs = append(errs, errors.New("database.url (DATABASE_URL) is required for the postgres driver"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	if c.Scheduling.Concurrency < 1 {
		errs = append(errs, errors.New("scheduling.concurrency must be at least 1"))
	}
	if c.Scheduling.CallTimeout <= 0 {
		errs = append(errs, errors.New("scheduling.call_timeout must be positive"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.AllowedDays(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Location is the zone slot wall-clock times are interpreted in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Scheduling.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduling.timezone: %w", err)
	}
	return loc, nil
}

func (c *Config) AllowedDays() ([]availability.Day, error) {
	days := make([]availability.Day, 0, len(c.Scheduling.AllowedDays))
	for _, raw := range c.Scheduling.AllowedDays {
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			d, err := availability.ParseDay(name)
			if err != nil {
				return nil, fmt.Errorf("scheduling.allowed_days: %w", err)
			}
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		return nil, errors.New("scheduling.allowed_days must name at least one day")
	}
	return days, nil
}
