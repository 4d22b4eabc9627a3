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
	JWT          JWTConfig
	Password     PasswordConfig
	Queue        QueueConfig
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
	cfg.Queue.applyEnvDefaults(cfg.App.IsProd())
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GIFTWAVE_APP_ENV" required:"true"`
	Port         string `envconfig:"GIFTWAVE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GIFTWAVE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GIFTWAVE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"GIFTWAVE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GIFTWAVE_DB_DSN"`
	Driver string `envconfig:"GIFTWAVE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GIFTWAVE_DB_HOST"`
	LegacyPort     int    `envconfig:"GIFTWAVE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GIFTWAVE_DB_USER"`
	LegacyPassword string `envconfig:"GIFTWAVE_DB_PASSWORD"`
	LegacyName     string `envconfig:"GIFTWAVE_DB_NAME"`
	LegacySSLMode  string `envconfig:"GIFTWAVE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GIFTWAVE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GIFTWAVE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GIFTWAVE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GIFTWAVE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GIFTWAVE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GIFTWAVE_REDIS_ADDR"`
	Password     string        `envconfig:"GIFTWAVE_REDIS_PASSWORD"`
	DB           int           `envconfig:"GIFTWAVE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GIFTWAVE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GIFTWAVE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GIFTWAVE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GIFTWAVE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GIFTWAVE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GIFTWAVE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GIFTWAVE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GIFTWAVE_JWT_EXPIRATION_MINUTES" required:"true"`
	SessionTTLMinutes int    `envconfig:"GIFTWAVE_SESSION_TTL_MINUTES" default:"43200"`
}

// SessionTTL returns the server-side session lifetime.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GIFTWAVE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GIFTWAVE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GIFTWAVE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GIFTWAVE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GIFTWAVE_ARGON_KEY_LEN" default:"32"`
}

// QueueConfig tunes the background job queue. Zero values are replaced with
// environment-dependent defaults in Load: production gets more retry attempts,
// a larger backoff base, deeper worker concurrency, and longer retention.
type QueueConfig struct {
	Concurrency  int           `envconfig:"GIFTWAVE_QUEUE_CONCURRENCY"`
	MaxAttempts  int           `envconfig:"GIFTWAVE_QUEUE_MAX_ATTEMPTS"`
	BackoffBase  time.Duration `envconfig:"GIFTWAVE_QUEUE_BACKOFF_BASE"`
	Retention    int64         `envconfig:"GIFTWAVE_QUEUE_RETENTION"`
	PollInterval time.Duration `envconfig:"GIFTWAVE_QUEUE_POLL_INTERVAL" default:"250ms"`
}

func (q *QueueConfig) applyEnvDefaults(prod bool) {
	if q.Concurrency <= 0 {
		q.Concurrency = 2
		if prod {
			q.Concurrency = 8
		}
	}
	if q.MaxAttempts <= 0 {
		q.MaxAttempts = 3
		if prod {
			q.MaxAttempts = 5
		}
	}
	if q.BackoffBase <= 0 {
		q.BackoffBase = 500 * time.Millisecond
		if prod {
			q.BackoffBase = 2 * time.Second
		}
	}
	if q.Retention <= 0 {
		q.Retention = 100
		if prod {
			q.Retention = 1000
		}
	}
	if q.PollInterval <= 0 {
		q.PollInterval = 250 * time.Millisecond
	}
}

type CronConfig struct {
	Interval              time.Duration `envconfig:"GIFTWAVE_CRON_INTERVAL" default:"24h"`
	NotificationRetention int           `envconfig:"GIFTWAVE_CRON_NOTIFICATION_RETENTION_DAYS" default:"30"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GIFTWAVE_AUTO_MIGRATE" default:"false"`
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
