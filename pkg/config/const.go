package config

// EnvPrefix namespaces every environment variable this service reads.
const EnvPrefix = "MEDIKART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "MEDIKART_APP_ENV"
	EnvPort     = "MEDIKART_APP_PORT"
	EnvDBDSN    = "MEDIKART_DB_DSN"
	EnvDBHost   = "MEDIKART_DB_HOST"
	EnvDBUser   = "MEDIKART_DB_USER"
	EnvDBName   = "MEDIKART_DB_NAME"
	EnvRedisURL = "MEDIKART_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
