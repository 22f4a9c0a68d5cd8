package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App       AppConfig
	Service   ServiceConfig
	DB        DBConfig
	Redis     RedisConfig
	FlashSale FlashSaleConfig
	Scheduler SchedulerConfig
	Admin     AdminConfig
	GCP       GCPConfig
	PubSub    PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	// Schema management in prod belongs to migration tooling, not the
	// service process.
	if cfg.App.IsProd() && cfg.DB.AutoMigrate {
		return nil, fmt.Errorf("auto-migrate must not be enabled in prod")
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FLASHDEALZ_APP_ENV" required:"true"`
	Port         string `envconfig:"FLASHDEALZ_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"FLASHDEALZ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FLASHDEALZ_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FLASHDEALZ_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FLASHDEALZ_DB_DSN" required:"true"`
	Driver string `envconfig:"FLASHDEALZ_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"FLASHDEALZ_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FLASHDEALZ_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FLASHDEALZ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FLASHDEALZ_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"FLASHDEALZ_DB_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FLASHDEALZ_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FLASHDEALZ_REDIS_ADDR"`
	Password     string        `envconfig:"FLASHDEALZ_REDIS_PASSWORD"`
	DB           int           `envconfig:"FLASHDEALZ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FLASHDEALZ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FLASHDEALZ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FLASHDEALZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FLASHDEALZ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FLASHDEALZ_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// FlashSaleConfig groups the tunables of the purchase hot path.
type FlashSaleConfig struct {
	// RateLimitCount/RateLimitWindow bound purchase attempts per (user, item).
	RateLimitCount  int           `envconfig:"FLASHDEALZ_RATE_LIMIT_COUNT" default:"5"`
	RateLimitWindow time.Duration `envconfig:"FLASHDEALZ_RATE_LIMIT_WINDOW" default:"1s"`

	// ItemLockTTL caps how long a purchase/pay/cancel holds the per-item lease.
	ItemLockTTL time.Duration `envconfig:"FLASHDEALZ_ITEM_LOCK_TTL" default:"5s"`

	StockTTL         time.Duration `envconfig:"FLASHDEALZ_STOCK_TTL" default:"24h"`
	ParticipationTTL time.Duration `envconfig:"FLASHDEALZ_PARTICIPATION_TTL" default:"24h"`
	OrderIndexTTL    time.Duration `envconfig:"FLASHDEALZ_ORDER_INDEX_TTL" default:"30m"`
	ItemInfoTTL      time.Duration `envconfig:"FLASHDEALZ_ITEM_INFO_TTL" default:"10m"`

	// PreloadHorizon selects items whose sale starts soon enough to warm.
	PreloadHorizon time.Duration `envconfig:"FLASHDEALZ_PRELOAD_HORIZON" default:"1h"`
}

type SchedulerConfig struct {
	StatusRefreshInterval time.Duration `envconfig:"FLASHDEALZ_STATUS_REFRESH_INTERVAL" default:"1m"`
	StockPreloadInterval  time.Duration `envconfig:"FLASHDEALZ_STOCK_PRELOAD_INTERVAL" default:"15m"`
	LockTTL               time.Duration `envconfig:"FLASHDEALZ_SCHEDULER_LOCK_TTL" default:"2m"`
}

type AdminConfig struct {
	Token string `envconfig:"FLASHDEALZ_ADMIN_TOKEN" required:"true"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"FLASHDEALZ_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	FlashSaleTopic string `envconfig:"FLASHDEALZ_PUBSUB_FLASH_SALE_TOPIC" default:"flash-sale-events"`
}

// Enabled reports whether event publishing is configured at all.
func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.FlashSaleTopic) != ""
}
