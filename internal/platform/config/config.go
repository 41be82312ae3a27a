package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	APIPort     string `env:"API_PORT" envDefault:"8080"`
	JWTKey      string `env:"JWT_SECRET" envDefault:"defaultsecret"`
	JWTExpHours int    `env:"JWT_EXPIRATION_HOURS" envDefault:"72"`
	BcryptCost  int    `env:"BCRYPT_COST" envDefault:"12"`

	StoreDriver    string `env:"STORE_DRIVER" envDefault:"postgres"`
	MemoryFallback bool   `env:"MEMORY_FALLBACK" envDefault:"true"`
	SeedOnStart    bool   `env:"SEED_ON_START" envDefault:"false"`

	DatabaseURL string `env:"DATABASE_URL"`
	DBHost      string `env:"DB_HOST" envDefault:"localhost"`
	DBPort      string `env:"DB_PORT" envDefault:"5432"`
	DBUser      string `env:"DB_USER" envDefault:"user"`
	DBPassword  string `env:"DB_PASSWORD" envDefault:"password"`
	DBName      string `env:"DB_NAME" envDefault:"code_arena_db"`
	DBSslMode   string `env:"DB_SSLMODE" envDefault:"disable"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"./code_arena.db"`

	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	ProblemCacheTTL time.Duration `env:"PROBLEM_CACHE_TTL" envDefault:"10m"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
}

// Load reads an optional .env file and then parses the process environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Debug().Msg("No .env file found, relying on environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	switch cfg.StoreDriver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return nil, fmt.Errorf("parse env: unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	return cfg, nil
}

func (c *Config) JWTExp() time.Duration {
	return time.Duration(c.JWTExpHours) * time.Hour
}

// DSN returns the connection string for the configured store driver.
func (c *Config) DSN() string {
	switch c.StoreDriver {
	case DriverSQLite:
		return c.SQLitePath
	case DriverPostgres:
		if c.DatabaseURL != "" {
			return c.DatabaseURL
		}
		return "host=" + c.DBHost +
			" port=" + c.DBPort +
			" user=" + c.DBUser +
			" password=" + c.DBPassword +
			" dbname=" + c.DBName +
			" sslmode=" + c.DBSslMode
	}
	return ""
}
