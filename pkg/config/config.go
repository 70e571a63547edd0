package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App       AppConfig
	Service   ServiceConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Pricing   PricingConfig
	Cart      CartConfig
	Orders    OrdersConfig
	RateLimit RateLimitConfig
	Features  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env             string        `envconfig:"DOVL_APP_ENV" required:"true"`
	Port            string        `envconfig:"DOVL_APP_PORT" required:"true"`
	LogLevel        string        `envconfig:"DOVL_LOG_LEVEL" default:"info"`
	LogWarnStack    bool          `envconfig:"DOVL_LOG_WARN_STACK" default:"false"`
	ShutdownTimeout time.Duration `envconfig:"DOVL_SHUTDOWN_TIMEOUT" default:"15s"`

	// CORSOrigins is a comma-separated list of storefront origins.
	CORSOrigins []string `envconfig:"DOVL_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"DOVL_SERVICE_KIND" default:"api"`
}

type MongoConfig struct {
	URI             string        `envconfig:"DOVL_MONGO_URI" required:"true"`
	Database        string        `envconfig:"DOVL_MONGO_DATABASE" default:"dovl"`
	MaxPoolSize     uint64        `envconfig:"DOVL_MONGO_MAX_POOL_SIZE" default:"50"`
	MinPoolSize     uint64        `envconfig:"DOVL_MONGO_MIN_POOL_SIZE" default:"5"`
	ConnectTimeout  time.Duration `envconfig:"DOVL_MONGO_CONNECT_TIMEOUT" default:"10s"`
	ServerSelection time.Duration `envconfig:"DOVL_MONGO_SERVER_SELECTION_TIMEOUT" default:"5s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DOVL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DOVL_REDIS_ADDR"`
	Password     string        `envconfig:"DOVL_REDIS_PASSWORD"`
	DB           int           `envconfig:"DOVL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DOVL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DOVL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DOVL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DOVL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DOVL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"DOVL_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DOVL_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"DOVL_JWT_EXPIRATION_MINUTES" default:"60"`
}

// PricingConfig holds the flat-rate inputs of the cart pricing engine.
// TaxPercent is a percentage (18 means 18%).
type PricingConfig struct {
	TaxPercent            decimal.Decimal `envconfig:"DOVL_TAX" default:"18"`
	FreeShippingThreshold decimal.Decimal `envconfig:"DOVL_FREE_SHIPPING_THRESHOLD" default:"300"`
	ShippingCost          decimal.Decimal `envconfig:"DOVL_SHIPPING_COST" default:"29.90"`
}

func (p PricingConfig) validate() error {
	if p.TaxPercent.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvTax)
	}
	if p.FreeShippingThreshold.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvFreeShippingThreshold)
	}
	if p.ShippingCost.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvShippingCost)
	}
	return nil
}

type CartConfig struct {
	SessionCookieName string        `envconfig:"DOVL_CART_SESSION_COOKIE" default:"cartSessionId"`
	SessionTTL        time.Duration `envconfig:"DOVL_CART_SESSION_TTL" default:"720h"`
	SecureCookie      bool          `envconfig:"DOVL_CART_SECURE_COOKIE" default:"false"`
}

type OrdersConfig struct {
	NumberPrefix   string        `envconfig:"DOVL_ORDER_NUMBER_PREFIX" default:"DOVL"`
	IdempotencyTTL time.Duration `envconfig:"DOVL_ORDER_IDEMPOTENCY_TTL" default:"24h"`
}

type RateLimitConfig struct {
	CampaignWindow time.Duration `envconfig:"DOVL_RATE_LIMIT_CAMPAIGN_WINDOW" default:"1m"`
	CampaignLimit  int           `envconfig:"DOVL_RATE_LIMIT_CAMPAIGN_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoIndex bool `envconfig:"DOVL_AUTO_INDEX" default:"false"`
}
