package config

const (
	EnvPrefix = "LIBRARY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv    = "LIBRARY_APP_ENV"
	EnvPort      = "LIBRARY_APP_PORT"
	EnvDBDSN     = "LIBRARY_DB_DSN"
	EnvDBHost    = "LIBRARY_DB_HOST"
	EnvDBUser    = "LIBRARY_DB_USER"
	EnvDBName    = "LIBRARY_DB_NAME"
	EnvRedisURL  = "LIBRARY_REDIS_URL"
	EnvJWTSecret = "LIBRARY_JWT_SECRET"
	EnvJWTExpMin = "LIBRARY_JWT_EXPIRATION_MINUTES"
	EnvUseSQLite = "LIBRARY_USE_SQLITE"
	EnvCronEvery = "LIBRARY_CRON_INTERVAL"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
