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
	FeatureFlags FeatureFlagsConfig
	Ledger       LedgerConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
		if cfg.DB.DSN == "" {
			cfg.DB.DSN = defaultSQLiteDSN
		}
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"KUMSS_APP_ENV" required:"true"`
	Port         string   `envconfig:"KUMSS_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"KUMSS_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"KUMSS_LOG_WARN_STACK" default:"false"`
	LogFormat    string   `envconfig:"KUMSS_LOG_FORMAT" default:"json"`
	CORSOrigins  []string `envconfig:"KUMSS_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"KUMSS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"KUMSS_DB_DSN"`
	Driver string `envconfig:"KUMSS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"KUMSS_DB_HOST"`
	LegacyPort     int    `envconfig:"KUMSS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KUMSS_DB_USER"`
	LegacyPassword string `envconfig:"KUMSS_DB_PASSWORD"`
	LegacyName     string `envconfig:"KUMSS_DB_NAME"`
	LegacySSLMode  string `envconfig:"KUMSS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KUMSS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KUMSS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KUMSS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KUMSS_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"KUMSS_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KUMSS_REDIS_URL"`
	Address      string        `envconfig:"KUMSS_REDIS_ADDR"`
	Password     string        `envconfig:"KUMSS_REDIS_PASSWORD"`
	DB           int           `envconfig:"KUMSS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KUMSS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KUMSS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KUMSS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KUMSS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KUMSS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint is configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"KUMSS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"KUMSS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"KUMSS_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool   `envconfig:"KUMSS_USE_SQLITE" default:"false"`
	AutoMigrate bool   `envconfig:"KUMSS_AUTO_MIGRATE" default:"false"`
	GateMode    string `envconfig:"KUMSS_APPROVAL_GATE" default:"roles"`
}

type LedgerConfig struct {
	LockWaitTimeout time.Duration `envconfig:"KUMSS_LEDGER_LOCK_WAIT_TIMEOUT" default:"10s"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"KUMSS_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	IndentsTopic      string `envconfig:"KUMSS_PUBSUB_INDENTS_TOPIC" default:"kumss-indent-events"`
	InventoryTopic    string `envconfig:"KUMSS_PUBSUB_INVENTORY_TOPIC" default:"kumss-inventory-events"`
	NotificationTopic string `envconfig:"KUMSS_PUBSUB_NOTIFICATION_TOPIC" default:"kumss-notification-events"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"KUMSS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"KUMSS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"KUMSS_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"KUMSS_OUTBOX_RETENTION" default:"720h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"KUMSS_CRON_INTERVAL" default:"15m"`
	LockTTL  time.Duration `envconfig:"KUMSS_CRON_LOCK_TTL" default:"10m"`
	// RetentionEvery spaces outbox pruning over this many cron cycles.
	RetentionEvery int `envconfig:"KUMSS_CRON_RETENTION_EVERY" default:"4"`
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
