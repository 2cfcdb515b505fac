package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names so
// the prefix only matters for unnamed additions.
const EnvPrefix = "KAMISHOP"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv = "KAMISHOP_APP_ENV"
	EnvDBDSN  = "KAMISHOP_DB_DSN"
	EnvDBHost = "KAMISHOP_DB_HOST"
	EnvDBUser = "KAMISHOP_DB_USER"
	EnvDBName = "KAMISHOP_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
