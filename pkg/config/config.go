package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "AWEME"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Stripe        StripeConfig
	Billing       BillingConfig
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
	Env          string `envconfig:"AWEME_APP_ENV" required:"true"`
	Port         string `envconfig:"AWEME_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AWEME_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AWEME_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"AWEME_DB_DSN"`

	Host     string `envconfig:"AWEME_DB_HOST"`
	Port     int    `envconfig:"AWEME_DB_PORT" default:"5432"`
	User     string `envconfig:"AWEME_DB_USER"`
	Password string `envconfig:"AWEME_DB_PASSWORD"`
	Name     string `envconfig:"AWEME_DB_NAME"`
	SSLMode  string `envconfig:"AWEME_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AWEME_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AWEME_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AWEME_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AWEME_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AWEME_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AWEME_REDIS_ADDR"`
	Password     string        `envconfig:"AWEME_REDIS_PASSWORD"`
	DB           int           `envconfig:"AWEME_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AWEME_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AWEME_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AWEME_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AWEME_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AWEME_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"AWEME_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"AWEME_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"AWEME_JWT_EXPIRATION_MINUTES" default:"1440"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"AWEME_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"AWEME_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"AWEME_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"AWEME_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"AWEME_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"AWEME_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"AWEME_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"AWEME_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"AWEME_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey              string        `envconfig:"AWEME_STRIPE_API_KEY"`
	WebhookSecret       string        `envconfig:"AWEME_STRIPE_WEBHOOK_SECRET"`
	Env                 string        `envconfig:"AWEME_STRIPE_ENV" default:"test"`
	CheckoutSuccessURL  string        `envconfig:"AWEME_STRIPE_CHECKOUT_SUCCESS_URL" default:"https://app.aweme.ai/billing/success"`
	CheckoutCancelURL   string        `envconfig:"AWEME_STRIPE_CHECKOUT_CANCEL_URL" default:"https://app.aweme.ai/billing/cancel"`
	IdempotencyTTL      time.Duration `envconfig:"AWEME_STRIPE_EVENT_IDEMPOTENCY_TTL" default:"720h"`
	UpstreamCallTimeout time.Duration `envconfig:"AWEME_STRIPE_CALL_TIMEOUT" default:"10s"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// BillingConfig binds the static plan catalog. Price ids come from the
// Stripe dashboard; credits and display prices are ours.
type BillingConfig struct {
	BasicPriceID    string `envconfig:"AWEME_BILLING_BASIC_PRICE_ID" required:"true"`
	BasicCredits    int    `envconfig:"AWEME_BILLING_BASIC_CREDITS" default:"100"`
	BasicMonthlyUSD string `envconfig:"AWEME_BILLING_BASIC_MONTHLY_USD" default:"9.99"`
	ProPriceID      string `envconfig:"AWEME_BILLING_PRO_PRICE_ID" required:"true"`
	ProCredits      int    `envconfig:"AWEME_BILLING_PRO_CREDITS" default:"1000"`
	ProMonthlyUSD   string `envconfig:"AWEME_BILLING_PRO_MONTHLY_USD" default:"29.99"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	required := map[string]string{
		"AWEME_DB_HOST": db.Host,
		"AWEME_DB_USER": db.User,
		"AWEME_DB_NAME": db.Name,
	}
	for _, env := range []string{"AWEME_DB_HOST", "AWEME_DB_USER", "AWEME_DB_NAME"} {
		if required[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either AWEME_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
