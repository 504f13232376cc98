package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Identity     IdentityConfig
	Payments     PaymentsConfig
	Square       SquareConfig
	Stripe       StripeConfig
	Pricing      PricingConfig
	Checkout     CheckoutConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Outbox       OutboxConfig
	Eventing     EventingConfig
	Cron         CronConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Payments.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"RESTAURANT_APP_ENV" required:"true"`
	Port         string   `envconfig:"RESTAURANT_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"RESTAURANT_LOG_LEVEL" default:"info"`
	LogFormat    string   `envconfig:"RESTAURANT_LOG_FORMAT" default:"json"`
	LogWarnStack bool     `envconfig:"RESTAURANT_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"RESTAURANT_CORS_ORIGINS" default:"*"`
	Timezone     string   `envconfig:"RESTAURANT_TIMEZONE" default:"America/Chicago"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Location resolves the configured store timezone, falling back to UTC.
func (a AppConfig) Location() *time.Location {
	if a.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type ServiceConfig struct {
	Kind string `envconfig:"RESTAURANT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"RESTAURANT_DB_DSN"`
	Driver string `envconfig:"RESTAURANT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RESTAURANT_DB_HOST"`
	LegacyPort     int    `envconfig:"RESTAURANT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RESTAURANT_DB_USER"`
	LegacyPassword string `envconfig:"RESTAURANT_DB_PASSWORD"`
	LegacyName     string `envconfig:"RESTAURANT_DB_NAME"`
	LegacySSLMode  string `envconfig:"RESTAURANT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RESTAURANT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RESTAURANT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RESTAURANT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RESTAURANT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RESTAURANT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RESTAURANT_REDIS_ADDR"`
	Password     string        `envconfig:"RESTAURANT_REDIS_PASSWORD"`
	DB           int           `envconfig:"RESTAURANT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RESTAURANT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RESTAURANT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RESTAURANT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RESTAURANT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RESTAURANT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"RESTAURANT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"RESTAURANT_AUTO_MIGRATE" default:"false"`
	// GuestCheckout lets requests without a bearer token reach the order and checkout routes.
	GuestCheckout bool `envconfig:"RESTAURANT_FEATURE_GUEST_CHECKOUT" default:"true"`
}

type IdentityConfig struct {
	ProjectID    string        `envconfig:"RESTAURANT_IDENTITY_PROJECT_ID" required:"true"`
	CertsURL     string        `envconfig:"RESTAURANT_IDENTITY_CERTS_URL" default:"https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"`
	IssuerPrefix string        `envconfig:"RESTAURANT_IDENTITY_ISSUER_PREFIX" default:"https://securetoken.google.com/"`
	FetchTimeout time.Duration `envconfig:"RESTAURANT_IDENTITY_FETCH_TIMEOUT" default:"5s"`
	ClockSkew    time.Duration `envconfig:"RESTAURANT_IDENTITY_CLOCK_SKEW" default:"30s"`
}

// Issuer returns the expected token issuer for the configured project.
func (i IdentityConfig) Issuer() string {
	return i.IssuerPrefix + i.ProjectID
}

type PaymentsConfig struct {
	Provider string `envconfig:"RESTAURANT_PAYMENTS_PROVIDER" default:"square"`
	Currency string `envconfig:"RESTAURANT_PAYMENTS_CURRENCY" default:"USD"`
}

func (p PaymentsConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(p.Provider)) {
	case PaymentProviderSquare, PaymentProviderStripe:
		return nil
	default:
		return fmt.Errorf("%s must be %q or %q", EnvPaymentsProvider, PaymentProviderSquare, PaymentProviderStripe)
	}
}

// ProviderName returns the normalized payment provider.
func (p PaymentsConfig) ProviderName() string {
	return strings.ToLower(strings.TrimSpace(p.Provider))
}

type SquareConfig struct {
	AccessToken string `envconfig:"RESTAURANT_SQUARE_ACCESS_TOKEN"`
	LocationID  string `envconfig:"RESTAURANT_SQUARE_LOCATION_ID"`
	Env         string `envconfig:"RESTAURANT_SQUARE_ENV" default:"sandbox"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type StripeConfig struct {
	APIKey string `envconfig:"RESTAURANT_STRIPE_API_KEY"`
	Env    string `envconfig:"RESTAURANT_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type PricingConfig struct {
	// TaxRate is a decimal fraction, e.g. "0.0825".
	TaxRate string `envconfig:"RESTAURANT_PRICING_TAX_RATE" default:"0"`
}

type CheckoutConfig struct {
	LockTTL       time.Duration `envconfig:"RESTAURANT_CHECKOUT_LOCK_TTL" default:"60s"`
	ChargeTimeout time.Duration `envconfig:"RESTAURANT_CHECKOUT_CHARGE_TIMEOUT" default:"20s"`
	// MaxLineQuantity caps the quantity of a single order line at checkout.
	MaxLineQuantity int `envconfig:"RESTAURANT_CHECKOUT_MAX_LINE_QUANTITY" default:"50"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"RESTAURANT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"RESTAURANT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"RESTAURANT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"RESTAURANT_PUBSUB_ORDERS_TOPIC" default:"restaurant-order-events"`
	OrdersSubscription string `envconfig:"RESTAURANT_PUBSUB_ORDERS_SUBSCRIPTION" default:"restaurant-order-events-analytics"`
}

type BigQueryConfig struct {
	Dataset     string `envconfig:"RESTAURANT_BIGQUERY_DATASET" default:"restaurant"`
	OrdersTable string `envconfig:"RESTAURANT_BIGQUERY_ORDERS_TABLE" default:"order_events"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"RESTAURANT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"RESTAURANT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"RESTAURANT_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"RESTAURANT_OUTBOX_RETENTION" default:"720h"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"RESTAURANT_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type CronConfig struct {
	Tick                   time.Duration `envconfig:"RESTAURANT_CRON_TICK" default:"1m"`
	AbandonedOrderTTL      time.Duration `envconfig:"RESTAURANT_CRON_ABANDONED_ORDER_TTL" default:"72h"`
	AbandonedOrderEvery    time.Duration `envconfig:"RESTAURANT_CRON_ABANDONED_ORDER_EVERY" default:"30m"`
	StuckChargeGracePeriod time.Duration `envconfig:"RESTAURANT_CRON_STUCK_CHARGE_GRACE" default:"10m"`
	StuckChargeEvery       time.Duration `envconfig:"RESTAURANT_CRON_STUCK_CHARGE_EVERY" default:"5m"`
	OutboxRetentionEvery   time.Duration `envconfig:"RESTAURANT_CRON_OUTBOX_RETENTION_EVERY" default:"24h"`
}

// RateLimitConfig sets fixed-window limits for the routes that touch the
// payment provider or create users. Zero limits disable a scope.
type RateLimitConfig struct {
	CheckoutWindow      time.Duration `envconfig:"RESTAURANT_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutIPLimit     int           `envconfig:"RESTAURANT_RATE_LIMIT_CHECKOUT_IP" default:"30"`
	CheckoutCallerLimit int           `envconfig:"RESTAURANT_RATE_LIMIT_CHECKOUT_CALLER" default:"10"`
	RegisterWindow      time.Duration `envconfig:"RESTAURANT_RATE_LIMIT_REGISTER_WINDOW" default:"10m"`
	RegisterIPLimit     int           `envconfig:"RESTAURANT_RATE_LIMIT_REGISTER_IP" default:"20"`
	RegisterCallerLimit int           `envconfig:"RESTAURANT_RATE_LIMIT_REGISTER_CALLER" default:"5"`
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
