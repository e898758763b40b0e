package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/vinprj/predictml/internal/core/domain"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	Models   ModelsConfig
	Redis    RedisConfig
	CORS     CORSConfig
	History  HistoryConfig
	Metrics  MetricsConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type LoggerConfig struct {
	Level  string
	Format string
}

type DatabaseConfig struct {
	Driver          string
	URL             string
	MaxOpenConns    int
	MinConns        int
	ConnMaxLifetime time.Duration
}

type ModelsConfig struct {
	// Dir holds artifact files that override the built-in models. Empty means
	// built-ins only.
	Dir   string
	Watch bool
}

// RedisConfig is disabled when URL is empty.
type RedisConfig struct {
	URL     string
	Channel string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type HistoryConfig struct {
	DefaultLimit int
	MaxLimit     int
}

type MetricsConfig struct {
	Enabled bool
}

// Load reads a .env file from the working directory when present, then the
// environment.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	// Defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8000)
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "json")
	v.SetDefault("DATABASE_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_URL", "predictions.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 0)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("MODELS_DIR", "")
	v.SetDefault("MODELS_WATCH", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_CHANNEL", "predictml:predictions")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("HISTORY_DEFAULT_LIMIT", 100)
	v.SetDefault("HISTORY_MAX_LIMIT", 1000)
	v.SetDefault("METRICS_ENABLED", true)

	// Env
	v.AutomaticEnv()

	lifetime, err := time.ParseDuration(v.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		lifetime = 30 * time.Minute
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("DATABASE_DRIVER")),
			URL:             v.GetString("DATABASE_URL"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MinConns:        v.GetInt("DB_MIN_CONNS"),
			ConnMaxLifetime: lifetime,
		},
		Models: ModelsConfig{
			Dir:   v.GetString("MODELS_DIR"),
			Watch: v.GetBool("MODELS_WATCH"),
		},
		Redis: RedisConfig{
			URL:     v.GetString("REDIS_URL"),
			Channel: v.GetString("REDIS_CHANNEL"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		History: HistoryConfig{
			DefaultLimit: v.GetInt("HISTORY_DEFAULT_LIMIT"),
			MaxLimit:     v.GetInt("HISTORY_MAX_LIMIT"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("METRICS_ENABLED"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownStoreKind, c.Database.Driver)
	}
	if c.Database.Driver != DriverMemory && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required for driver %s", c.Database.Driver)
	}
	if c.Database.MinConns < 0 || (c.Database.MaxOpenConns > 0 && c.Database.MinConns > c.Database.MaxOpenConns) {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_OPEN_CONNS, got %d", c.Database.MinConns)
	}
	if c.History.DefaultLimit <= 0 || c.History.MaxLimit < c.History.DefaultLimit {
		return fmt.Errorf("invalid history limits: default %d, max %d", c.History.DefaultLimit, c.History.MaxLimit)
	}
	if c.Models.Watch && c.Models.Dir == "" {
		return fmt.Errorf("MODELS_WATCH requires MODELS_DIR")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
