package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "garagehub"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv   = "GARAGEHUB_APP_ENV"
	EnvPort     = "GARAGEHUB_APP_PORT"
	EnvDBDSN    = "GARAGEHUB_DB_DSN"
	EnvDBHost   = "GARAGEHUB_DB_HOST"
	EnvDBUser   = "GARAGEHUB_DB_USER"
	EnvDBName   = "GARAGEHUB_DB_NAME"
	EnvRedisURL = "GARAGEHUB_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Features      FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Stripe        StripeConfig
	Billing       BillingConfig
	RFQ           RFQConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validateRequired(); err != nil {
		return nil, err
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validateRequired rejects required variables that are set but blank.
// envconfig's required tag only checks presence, so an exported-but-empty
// variable would otherwise slip through to startup.
func (c *Config) validateRequired() error {
	required := map[string]string{
		EnvAppEnv:              c.App.Env,
		EnvPort:                c.App.Port,
		EnvRedisURL:            c.Redis.URL,
		"GARAGEHUB_JWT_SECRET": c.JWT.Secret,
		"GARAGEHUB_JWT_ISSUER": c.JWT.Issuer,
	}
	var missing []string
	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}

type AppConfig struct {
	Env          string   `envconfig:"GARAGEHUB_APP_ENV" required:"true"`
	Port         string   `envconfig:"GARAGEHUB_APP_PORT" required:"true"`
	BaseURL      string   `envconfig:"GARAGEHUB_APP_BASE_URL" default:"http://localhost:8080"`
	CORSOrigins  []string `envconfig:"GARAGEHUB_APP_CORS_ORIGINS" default:"http://localhost:3000"`
	LogLevel     string   `envconfig:"GARAGEHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"GARAGEHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"GARAGEHUB_DB_DSN"`
	Driver string `envconfig:"GARAGEHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GARAGEHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"GARAGEHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GARAGEHUB_DB_USER"`
	LegacyPassword string `envconfig:"GARAGEHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"GARAGEHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"GARAGEHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GARAGEHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GARAGEHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GARAGEHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GARAGEHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GARAGEHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GARAGEHUB_REDIS_ADDR"`
	Password     string        `envconfig:"GARAGEHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"GARAGEHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GARAGEHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GARAGEHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GARAGEHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GARAGEHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GARAGEHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GARAGEHUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GARAGEHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GARAGEHUB_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GARAGEHUB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GARAGEHUB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GARAGEHUB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GARAGEHUB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GARAGEHUB_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow         time.Duration `envconfig:"GARAGEHUB_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginMobileLimit    int           `envconfig:"GARAGEHUB_AUTH_RATE_LIMIT_LOGIN_MOBILE_LIMIT" default:"5"`
	LoginIPLimit        int           `envconfig:"GARAGEHUB_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow      time.Duration `envconfig:"GARAGEHUB_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterMobileLimit int           `envconfig:"GARAGEHUB_AUTH_RATE_LIMIT_REGISTER_MOBILE_LIMIT" default:"3"`
	RegisterIPLimit     int           `envconfig:"GARAGEHUB_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GARAGEHUB_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GARAGEHUB_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	WebhookIdempotencyTTL time.Duration `envconfig:"GARAGEHUB_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"GARAGEHUB_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"GARAGEHUB_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GARAGEHUB_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	JobEventsTopic        string `envconfig:"GARAGEHUB_PUBSUB_JOB_EVENTS_TOPIC" default:"gh-job-events"`
	JobEventsSubscription string `envconfig:"GARAGEHUB_PUBSUB_JOB_EVENTS_SUBSCRIPTION" default:"gh-job-events-notifier"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"GARAGEHUB_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"GARAGEHUB_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"GARAGEHUB_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type StripeConfig struct {
	APIKey string `envconfig:"GARAGEHUB_STRIPE_API_KEY"`
	Secret string `envconfig:"GARAGEHUB_STRIPE_SECRET"`
	Env    string `envconfig:"GARAGEHUB_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// BillingConfig carries flat billing knobs: VAT rate, currency and the
// payment-link expiry window.
type BillingConfig struct {
	Currency          string        `envconfig:"GARAGEHUB_BILLING_CURRENCY" default:"AED"`
	TaxRatePercent    float64       `envconfig:"GARAGEHUB_BILLING_TAX_RATE_PERCENT" default:"5"`
	PaymentLinkExpiry time.Duration `envconfig:"GARAGEHUB_BILLING_PAYMENT_LINK_EXPIRY" default:"24h"`
}

// RFQConfig is injected into the RFQ service so tests can vary the policy
// without process-wide side effects.
type RFQConfig struct {
	MaxVendors      int           `envconfig:"GARAGEHUB_RFQ_MAX_VENDORS" default:"5"`
	DeadlineWindow  time.Duration `envconfig:"GARAGEHUB_RFQ_DEADLINE_WINDOW" default:"48h"`
	DefaultPolicy   string        `envconfig:"GARAGEHUB_RFQ_DEFAULT_POLICY" default:"cheapest_available"`
	MaxDeliveryDays int           `envconfig:"GARAGEHUB_RFQ_MAX_DELIVERY_DAYS" default:"14"`
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
