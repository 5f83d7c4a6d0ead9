package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StoreMongo  = "mongo"
	StoreSQLite = "sqlite"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	StoreDriver   string        `env:"STORE_DRIVER,          default=mongo"`
	ShutdownGrace time.Duration `env:"SHUTDOWN_GRACE_PERIOD, default=10s"`

	Mongo     MongoConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	Graph     GraphConfig
	Timesheet TimesheetConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=timesheet"`
}

type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH, default=timesheet.db"`
}

type RedisConfig struct {
	Addr           string        `env:"REDIS_ADDR,          default=localhost:6379"`
	Password       string        `env:"REDIS_PASSWORD"`
	DB             int           `env:"REDIS_DB,            default=0"`
	DirectoryTTL   time.Duration `env:"DIRECTORY_CACHE_TTL, default=12h"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL,     default=24h"`
}

type GraphConfig struct {
	TenantID     string  `env:"GRAPH_TENANT_ID"`
	ClientID     string  `env:"GRAPH_CLIENT_ID"`
	ClientSecret string  `env:"GRAPH_CLIENT_SECRET"`
	BaseURL      string  `env:"GRAPH_BASE_URL,   default=https://graph.microsoft.com/v1.0"`
	RateLimit    float64 `env:"GRAPH_RATE_LIMIT, default=10"`
}

type TimesheetConfig struct {
	FreezeDayOfMonth   int     `env:"TIMESHEET_FREEZE_DAY_OF_MONTH,  default=12"`
	WeeklyEffortsLimit float64 `env:"TIMESHEET_WEEKLY_EFFORTS_LIMIT, default=44"`
}

// LoadWith reads configuration through lookuper (envconfig.OsLookuper() in
// production) and validates it.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMongo, StoreSQLite:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMongo, StoreSQLite, c.StoreDriver)
	}
	if d := c.Timesheet.FreezeDayOfMonth; d < 1 || d > 31 {
		return fmt.Errorf("TIMESHEET_FREEZE_DAY_OF_MONTH must be within 1..31, got %d", d)
	}
	if c.Timesheet.WeeklyEffortsLimit < 0 {
		return fmt.Errorf("TIMESHEET_WEEKLY_EFFORTS_LIMIT must not be negative")
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.IsProduction() && !c.GraphEnabled() {
		return fmt.Errorf("GRAPH_TENANT_ID, GRAPH_CLIENT_ID and GRAPH_CLIENT_SECRET are required in production")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// GraphEnabled reports whether app credentials for Microsoft Graph are set.
func (c *Config) GraphEnabled() bool {
	return c.Graph.TenantID != "" && c.Graph.ClientID != "" && c.Graph.ClientSecret != ""
}
