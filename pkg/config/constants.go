package config

// EnvPrefix namespaces every environment variable consumed by the service.
const EnvPrefix = "GIFTWAVE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "GIFTWAVE_DB_DSN"
	EnvDBHost = "GIFTWAVE_DB_HOST"
	EnvDBUser = "GIFTWAVE_DB_USER"
	EnvDBName = "GIFTWAVE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
