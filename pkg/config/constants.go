package config

// EnvPrefix is passed to envconfig; every field carries its full variable name.
const EnvPrefix = "RESTAURANT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	PaymentProviderSquare = "square"
	PaymentProviderStripe = "stripe"
)

const (
	EnvAppEnv             = "RESTAURANT_APP_ENV"
	EnvPort               = "RESTAURANT_APP_PORT"
	EnvLogLevel           = "RESTAURANT_LOG_LEVEL"
	EnvLogFormat          = "RESTAURANT_LOG_FORMAT"
	EnvDBDSN              = "RESTAURANT_DB_DSN"
	EnvDBHost             = "RESTAURANT_DB_HOST"
	EnvDBPort             = "RESTAURANT_DB_PORT"
	EnvDBUser             = "RESTAURANT_DB_USER"
	EnvDBPassword         = "RESTAURANT_DB_PASSWORD"
	EnvDBName             = "RESTAURANT_DB_NAME"
	EnvDBSSLMode          = "RESTAURANT_DB_SSLMODE"
	EnvRedisURL           = "RESTAURANT_REDIS_URL"
	EnvIdentityProjectID  = "RESTAURANT_IDENTITY_PROJECT_ID"
	EnvPaymentsProvider   = "RESTAURANT_PAYMENTS_PROVIDER"
	EnvSquareAccessToken  = "RESTAURANT_SQUARE_ACCESS_TOKEN"
	EnvSquareLocationID   = "RESTAURANT_SQUARE_LOCATION_ID"
	EnvStripeAPIKey       = "RESTAURANT_STRIPE_API_KEY"
	EnvPricingTaxRate     = "RESTAURANT_PRICING_TAX_RATE"
	EnvCheckoutLockTTL    = "RESTAURANT_CHECKOUT_LOCK_TTL"
	EnvGCPProjectID       = "RESTAURANT_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic  = "RESTAURANT_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub    = "RESTAURANT_PUBSUB_ORDERS_SUBSCRIPTION"
	EnvBigQueryDataset    = "RESTAURANT_BIGQUERY_DATASET"
	EnvCronTick           = "RESTAURANT_CRON_TICK"
	EnvOutboxMaxAttempts  = "RESTAURANT_OUTBOX_MAX_ATTEMPTS"
	EnvFeatureAutoMigrate = "RESTAURANT_AUTO_MIGRATE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
