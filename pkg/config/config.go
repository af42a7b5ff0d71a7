package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Razorpay      RazorpayConfig
	Gemini        GeminiConfig
	SMTP          SMTPConfig
	Quota         QuotaConfig
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
	Env          string `envconfig:"BRIEFLY_APP_ENV" required:"true"`
	Port         string `envconfig:"BRIEFLY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BRIEFLY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BRIEFLY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BRIEFLY_DB_DSN"`
	Driver string `envconfig:"BRIEFLY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BRIEFLY_DB_HOST"`
	LegacyPort     int    `envconfig:"BRIEFLY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BRIEFLY_DB_USER"`
	LegacyPassword string `envconfig:"BRIEFLY_DB_PASSWORD"`
	LegacyName     string `envconfig:"BRIEFLY_DB_NAME"`
	LegacySSLMode  string `envconfig:"BRIEFLY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BRIEFLY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BRIEFLY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BRIEFLY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BRIEFLY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BRIEFLY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BRIEFLY_REDIS_ADDR"`
	Password     string        `envconfig:"BRIEFLY_REDIS_PASSWORD"`
	DB           int           `envconfig:"BRIEFLY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BRIEFLY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BRIEFLY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BRIEFLY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BRIEFLY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BRIEFLY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"BRIEFLY_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"BRIEFLY_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"BRIEFLY_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"BRIEFLY_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BRIEFLY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BRIEFLY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BRIEFLY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BRIEFLY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BRIEFLY_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"BRIEFLY_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"BRIEFLY_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"BRIEFLY_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"BRIEFLY_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"BRIEFLY_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"BRIEFLY_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BRIEFLY_AUTO_MIGRATE" default:"false"`
}

// RazorpayConfig carries the gateway credentials. KeySecret signs client
// confirmations; WebhookSecret signs gateway-pushed events. A missing
// WebhookSecret disables webhook processing entirely (fail closed).
type RazorpayConfig struct {
	KeyID         string `envconfig:"BRIEFLY_RAZORPAY_KEY_ID"`
	KeySecret     string `envconfig:"BRIEFLY_RAZORPAY_KEY_SECRET"`
	WebhookSecret string `envconfig:"BRIEFLY_RAZORPAY_WEBHOOK_SECRET"`
	Currency      string `envconfig:"BRIEFLY_RAZORPAY_CURRENCY" default:"INR"`
}

type GeminiConfig struct {
	APIKey string `envconfig:"BRIEFLY_GEMINI_API_KEY"`
	Model  string `envconfig:"BRIEFLY_GEMINI_MODEL" default:"gemini-2.0-flash"`
}

type SMTPConfig struct {
	Host         string `envconfig:"BRIEFLY_SMTP_HOST"`
	Port         int    `envconfig:"BRIEFLY_SMTP_PORT" default:"587"`
	User         string `envconfig:"BRIEFLY_SMTP_USER"`
	Password     string `envconfig:"BRIEFLY_SMTP_PASSWORD"`
	FromEmail    string `envconfig:"BRIEFLY_FROM_EMAIL"`
	SupportEmail string `envconfig:"BRIEFLY_SUPPORT_EMAIL"`
}

// From returns the sender address, falling back to the SMTP user.
func (s SMTPConfig) From() string {
	if s.FromEmail != "" {
		return s.FromEmail
	}
	return s.User
}

type QuotaConfig struct {
	FreeSummaries int           `envconfig:"BRIEFLY_QUOTA_FREE_SUMMARIES" default:"2"`
	Window        time.Duration `envconfig:"BRIEFLY_QUOTA_WINDOW" default:"720h"`
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
