package config

const EnvPrefix = "BRIEFLY"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "BRIEFLY_APP_ENV"
	EnvAppPort  = "BRIEFLY_APP_PORT"
	EnvLogLevel = "BRIEFLY_LOG_LEVEL"

	EnvDBDSN      = "BRIEFLY_DB_DSN"
	EnvDBHost     = "BRIEFLY_DB_HOST"
	EnvDBPort     = "BRIEFLY_DB_PORT"
	EnvDBUser     = "BRIEFLY_DB_USER"
	EnvDBPassword = "BRIEFLY_DB_PASSWORD"
	EnvDBName     = "BRIEFLY_DB_NAME"
	EnvDBSSLMode  = "BRIEFLY_DB_SSLMODE"

	EnvRedisURL = "BRIEFLY_REDIS_URL"

	EnvJWTSecret            = "BRIEFLY_JWT_SECRET"
	EnvJWTIssuer            = "BRIEFLY_JWT_ISSUER"
	EnvJWTExpirationMinutes = "BRIEFLY_JWT_EXPIRATION_MINUTES"

	EnvRazorpayKeyID         = "BRIEFLY_RAZORPAY_KEY_ID"
	EnvRazorpayKeySecret     = "BRIEFLY_RAZORPAY_KEY_SECRET"
	EnvRazorpayWebhookSecret = "BRIEFLY_RAZORPAY_WEBHOOK_SECRET"

	EnvGeminiAPIKey = "BRIEFLY_GEMINI_API_KEY"
)

// legacyDBEnvVars are the discrete variables required when EnvDBDSN is unset.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
