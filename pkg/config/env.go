package config

const (
	EnvPrefix = "KUMSS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	defaultSQLiteDSN = "file:kumss.db?_foreign_keys=on"
)

const (
	EnvAppEnv       = "KUMSS_APP_ENV"
	EnvPort         = "KUMSS_APP_PORT"
	EnvLogLevel     = "KUMSS_LOG_LEVEL"
	EnvDBDSN        = "KUMSS_DB_DSN"
	EnvDBDriver     = "KUMSS_DB_DRIVER"
	EnvDBHost       = "KUMSS_DB_HOST"
	EnvDBUser       = "KUMSS_DB_USER"
	EnvDBName       = "KUMSS_DB_NAME"
	EnvDBPassword   = "KUMSS_DB_PASSWORD"
	EnvRedisURL     = "KUMSS_REDIS_URL"
	EnvJWTSecret    = "KUMSS_JWT_SECRET"
	EnvJWTIssuer    = "KUMSS_JWT_ISSUER"
	EnvJWTExpMins   = "KUMSS_JWT_EXPIRATION_MINUTES"
	EnvUseSQLite    = "KUMSS_USE_SQLITE"
	EnvGCPProjectID = "KUMSS_GCP_PROJECT_ID"
	EnvIndentsTopic = "KUMSS_PUBSUB_INDENTS_TOPIC"
	EnvLedgerLock   = "KUMSS_LEDGER_LOCK_WAIT_TIMEOUT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
