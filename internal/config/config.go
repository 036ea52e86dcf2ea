package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Store struct {
		Driver string `yaml:"driver"`
	} `yaml:"store"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Quiz struct {
		TTL             string `yaml:"ttl"`
		FinalizeTimeout string `yaml:"finalize_timeout"`
	} `yaml:"quiz"`
	Sessions struct {
		SweepInterval string `yaml:"sweep_interval"`
		IdleRetention string `yaml:"idle_retention"`
	} `yaml:"sessions"`
	Auth struct {
		Secret string `yaml:"secret"`
		TTL    string `yaml:"ttl"`
		Issuer string `yaml:"issuer"`
	} `yaml:"auth"`
	Rabbit struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"rabbit"`
	Preferences struct {
		Path string `yaml:"path"`
	} `yaml:"preferences"`
}

// Load reads YAML config from path, then applies QUIZ_* environment
// overrides. A .env file in the working directory is loaded first when
// present; variables already set in the environment win.
func Load(path string) (Config, error) {
	cfg := Config{}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = DriverMemory
		if cfg.Postgres.URL != "" {
			cfg.Store.Driver = DriverPostgres
		}
	}
	switch cfg.Store.Driver {
	case DriverMemory, DriverSQLite, DriverPostgres:
	default:
		return cfg, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"QUIZ_SERVER_PORT":        &cfg.Server.Port,
		"QUIZ_STORE_DRIVER":       &cfg.Store.Driver,
		"QUIZ_SQLITE_PATH":        &cfg.SQLite.Path,
		"QUIZ_POSTGRES_URL":       &cfg.Postgres.URL,
		"QUIZ_REDIS_ADDR":         &cfg.Redis.Addr,
		"QUIZ_REDIS_PASSWORD":     &cfg.Redis.Password,
		"QUIZ_AUTH_SECRET":        &cfg.Auth.Secret,
		"QUIZ_AUTH_TTL":           &cfg.Auth.TTL,
		"QUIZ_RABBIT_URL":         &cfg.Rabbit.URL,
		"QUIZ_PREFERENCES_PATH":   &cfg.Preferences.Path,
		"QUIZ_SESSIONS_RETENTION": &cfg.Sessions.IdleRetention,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	if v, ok := os.LookupEnv("QUIZ_REDIS_DB"); ok {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("QUIZ_REDIS_DB: %w", err)
		}
		cfg.Redis.DB = db
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
