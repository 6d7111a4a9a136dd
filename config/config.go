package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	CacheBackendSturdyc = "sturdyc"
	CacheBackendRedis   = "redis"
)

// logLevels maps LOG_LEVEL values to logrus levels. "silent" logs panics only.
var logLevels = map[string]logrus.Level{
	"":       logrus.InfoLevel,
	"debug":  logrus.DebugLevel,
	"info":   logrus.InfoLevel,
	"warn":   logrus.WarnLevel,
	"error":  logrus.ErrorLevel,
	"silent": logrus.PanicLevel,
}

type Config struct {
	DB       DBConfig
	HTTP     HTTPConfig
	Store    StoreConfig
	Cache    CacheConfig
	Redis    RedisConfig
	Sync     SyncConfig
	Telegram TelegramConfig
	Tasks    TasksConfig

	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"false"`
}

type DBConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD"`
	Database string `env:"DB_NAME" envDefault:"menu_db"`
}

// ConnString returns the postgres URL used by pgxpool.
func (d DBConfig) ConnString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s",
		d.User, d.Password, d.Host, d.Port, d.Database,
	)
}

type HTTPConfig struct {
	Addr string `env:"HTTP_ADDR" envDefault:":8000"`
}

type StoreConfig struct {
	Driver string `env:"STORE_DRIVER" envDefault:"postgres"` // postgres or memory
}

type CacheConfig struct {
	Backend            string        `env:"CACHE_BACKEND" envDefault:"sturdyc"` // sturdyc or redis
	TTL                time.Duration `env:"CACHE_TTL" envDefault:"30s"`
	Capacity           int           `env:"CACHE_CAPACITY" envDefault:"10000"`
	NumShards          int           `env:"CACHE_SHARDS" envDefault:"64"`
	EvictionPercentage int           `env:"CACHE_EVICTION_PERCENTAGE" envDefault:"10"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type SyncConfig struct {
	Enabled   bool          `env:"SYNC_ENABLED" envDefault:"true"`
	Interval  time.Duration `env:"SYNC_INTERVAL" envDefault:"15s"`
	SheetPath string        `env:"SYNC_SHEET_PATH" envDefault:"admin/Menu.xlsx"`
	SheetName string        `env:"SYNC_SHEET_NAME"` // empty = first sheet
	BaseURL   string        `env:"SYNC_BASE_URL" envDefault:"http://localhost:8000"`
	// Timeout of 0 leaves the http.Client default (no timeout).
	Timeout time.Duration `env:"SYNC_TIMEOUT" envDefault:"0s"`
}

type TelegramConfig struct {
	Token       string `env:"TELEGRAM_TOKEN"`
	AdminChatID int64  `env:"TELEGRAM_ADMIN_CHAT_ID"`
}

type TasksConfig struct {
	Workers int `env:"TASK_WORKERS" envDefault:"2"`
	Buffer  int `env:"TASK_BUFFER" envDefault:"256"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enum values and numeric bounds that env tags cannot express.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.Store.Driver)
	}
	switch c.Cache.Backend {
	case CacheBackendSturdyc, CacheBackendRedis:
	default:
		return fmt.Errorf("CACHE_BACKEND must be %q or %q, got %q", CacheBackendSturdyc, CacheBackendRedis, c.Cache.Backend)
	}
	if _, ok := logLevels[c.LogLevel]; !ok {
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error or silent, got %q", c.LogLevel)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.Cache.TTL)
	}
	if c.Sync.Enabled && c.Sync.Interval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL must be positive, got %s", c.Sync.Interval)
	}
	if c.Tasks.Workers <= 0 {
		return fmt.Errorf("TASK_WORKERS must be positive, got %d", c.Tasks.Workers)
	}
	if c.Tasks.Buffer < 0 {
		return fmt.Errorf("TASK_BUFFER must be non-negative, got %d", c.Tasks.Buffer)
	}
	if c.Telegram.Token != "" && c.Telegram.AdminChatID == 0 {
		return fmt.Errorf("TELEGRAM_ADMIN_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}
	return nil
}

// LogrusLevel returns the level for LogLevel. Unknown values, which Validate
// rejects, fall back to info.
func (c *Config) LogrusLevel() logrus.Level {
	if lvl, ok := logLevels[c.LogLevel]; ok {
		return lvl
	}
	return logrus.InfoLevel
}

// Logger builds the process logger. Output goes to stderr as text.
func (c *Config) Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(c.LogrusLevel())
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger
}
