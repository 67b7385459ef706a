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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Quote        QuoteConfig
	Poller       PollerConfig
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
	Env          string `envconfig:"MEDIKART_APP_ENV" required:"true"`
	Port         string `envconfig:"MEDIKART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MEDIKART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MEDIKART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MEDIKART_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MEDIKART_DB_DSN"`
	Driver string `envconfig:"MEDIKART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MEDIKART_DB_HOST"`
	LegacyPort     int    `envconfig:"MEDIKART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MEDIKART_DB_USER"`
	LegacyPassword string `envconfig:"MEDIKART_DB_PASSWORD"`
	LegacyName     string `envconfig:"MEDIKART_DB_NAME"`
	LegacySSLMode  string `envconfig:"MEDIKART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MEDIKART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MEDIKART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MEDIKART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MEDIKART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MEDIKART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MEDIKART_REDIS_ADDR"`
	Password     string        `envconfig:"MEDIKART_REDIS_PASSWORD"`
	DB           int           `envconfig:"MEDIKART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MEDIKART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MEDIKART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MEDIKART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MEDIKART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MEDIKART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// QuoteConfig bounds the pharmacy quote window and its server-side sweep.
type QuoteConfig struct {
	WindowSeconds int           `envconfig:"MEDIKART_QUOTE_WINDOW_SECONDS" default:"900"`
	ExpiryTick    time.Duration `envconfig:"MEDIKART_QUOTE_EXPIRY_TICK" default:"1s"`
	SweepInterval time.Duration `envconfig:"MEDIKART_QUOTE_SWEEP_INTERVAL" default:"30s"`
}

// Window returns the quote window as a duration.
func (q QuoteConfig) Window() time.Duration {
	if q.WindowSeconds <= 0 {
		return 0
	}
	return time.Duration(q.WindowSeconds) * time.Second
}

// PollerConfig drives the order polling reconciler.
type PollerConfig struct {
	Interval       time.Duration `envconfig:"MEDIKART_POLL_INTERVAL" default:"3s"`
	FetchTimeout   time.Duration `envconfig:"MEDIKART_POLL_FETCH_TIMEOUT" default:"5s"`
	FetchAttempts  int           `envconfig:"MEDIKART_POLL_FETCH_ATTEMPTS" default:"3"`
	ExpiryWarnSecs int           `envconfig:"MEDIKART_POLL_EXPIRY_WARN_SECONDS" default:"60"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"MEDIKART_CRON_INTERVAL" default:"30s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MEDIKART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MEDIKART_AUTO_MIGRATE" default:"false"`
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
