package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Outbox       OutboxConfig
	Hooks        HooksConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KAMISHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"KAMISHOP_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"KAMISHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KAMISHOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"KAMISHOP_DB_DSN"`

	LegacyHost     string `envconfig:"KAMISHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"KAMISHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KAMISHOP_DB_USER"`
	LegacyPassword string `envconfig:"KAMISHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"KAMISHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"KAMISHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KAMISHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KAMISHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KAMISHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KAMISHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KAMISHOP_REDIS_URL"`
	Address      string        `envconfig:"KAMISHOP_REDIS_ADDR"`
	Password     string        `envconfig:"KAMISHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"KAMISHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KAMISHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KAMISHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KAMISHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KAMISHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KAMISHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"KAMISHOP_OUTBOX_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"KAMISHOP_OUTBOX_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"KAMISHOP_OUTBOX_MAX_ATTEMPTS" default:"2"`
	IdempotencyTTL time.Duration `envconfig:"KAMISHOP_OUTBOX_IDEMPOTENCY_TTL" default:"720h"`
}

type HooksConfig struct {
	NovelAPIURL string        `envconfig:"KAMISHOP_NOVEL_API_URL"`
	Timeout     time.Duration `envconfig:"KAMISHOP_HOOK_TIMEOUT" default:"30s"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"KAMISHOP_CRON_INTERVAL" default:"5m"`
	LockTTL  time.Duration `envconfig:"KAMISHOP_CRON_LOCK_TTL" default:"4m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"KAMISHOP_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
