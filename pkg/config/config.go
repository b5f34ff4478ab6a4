package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv              = "STOREFRONT_APP_ENV"
	EnvPort                = "STOREFRONT_APP_PORT"
	EnvUpstreamBaseURL     = "STOREFRONT_UPSTREAM_BASE_URL"
	EnvUpstreamTimeout     = "STOREFRONT_UPSTREAM_TIMEOUT"
	EnvRedisURL            = "STOREFRONT_REDIS_URL"
	EnvRedisAddr           = "STOREFRONT_REDIS_ADDR"
	EnvCourierCost         = "STOREFRONT_PRICING_COURIER_COST"
	EnvFreeShippingFrom    = "STOREFRONT_PRICING_FREE_SHIPPING_THRESHOLD"
	EnvOrderPollInterval   = "STOREFRONT_ORDERS_POLL_INTERVAL"
	EnvCartRefetchAttempts = "STOREFRONT_CART_REFETCH_ATTEMPTS"
)

type Config struct {
	App       AppConfig
	Upstream  UpstreamConfig
	Breaker   BreakerConfig
	Redis     RedisConfig
	Pricing   PricingConfig
	Cart      CartConfig
	Orders    OrdersConfig
	RateLimit RateLimitConfig
	Sessions  SessionsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" default:"dev"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	// CORSOrigins is a comma separated allow list of browser origins.
	CORSOrigins []string `envconfig:"STOREFRONT_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// UpstreamConfig points the BFF at the storefront REST API.
type UpstreamConfig struct {
	BaseURL          string        `envconfig:"STOREFRONT_UPSTREAM_BASE_URL" required:"true"`
	Timeout          time.Duration `envconfig:"STOREFRONT_UPSTREAM_TIMEOUT" default:"30s"`
	RefreshPath      string        `envconfig:"STOREFRONT_UPSTREAM_REFRESH_PATH" default:"/auth/refresh"`
	TokenRefreshSkew time.Duration `envconfig:"STOREFRONT_UPSTREAM_TOKEN_REFRESH_SKEW" default:"30s"`
}

type BreakerConfig struct {
	Enabled          bool          `envconfig:"STOREFRONT_BREAKER_ENABLED" default:"true"`
	MaxFailures      uint32        `envconfig:"STOREFRONT_BREAKER_MAX_FAILURES" default:"5"`
	OpenTimeout      time.Duration `envconfig:"STOREFRONT_BREAKER_OPEN_TIMEOUT" default:"30s"`
	HalfOpenRequests uint32        `envconfig:"STOREFRONT_BREAKER_HALF_OPEN_REQUESTS" default:"1"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
	SessionTTL   time.Duration `envconfig:"STOREFRONT_REDIS_SESSION_TTL" default:"168h"`
	KeyPrefix    string        `envconfig:"STOREFRONT_REDIS_KEY_PREFIX" default:"sf"`
}

// Enabled reports whether a redis endpoint was configured. Without one the
// session state lives in process memory.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// PricingConfig holds amounts in the unit product prices are quoted in;
// CurrencyExponent is the number of minor-unit digits totals are rounded to.
type PricingConfig struct {
	CourierCost           int64 `envconfig:"STOREFRONT_PRICING_COURIER_COST" default:"500"`
	MailCost              int64 `envconfig:"STOREFRONT_PRICING_MAIL_COST" default:"2000"`
	FreeShippingThreshold int64 `envconfig:"STOREFRONT_PRICING_FREE_SHIPPING_THRESHOLD" default:"0"`
	CurrencyExponent      int32 `envconfig:"STOREFRONT_PRICING_CURRENCY_EXPONENT" default:"2"`
}

type CartConfig struct {
	RefetchAttempts uint64        `envconfig:"STOREFRONT_CART_REFETCH_ATTEMPTS" default:"3"`
	RefetchBackoff  time.Duration `envconfig:"STOREFRONT_CART_REFETCH_BACKOFF" default:"200ms"`
}

type OrdersConfig struct {
	PollInterval time.Duration `envconfig:"STOREFRONT_ORDERS_POLL_INTERVAL" default:"10s"`
}

type RateLimitConfig struct {
	RPS   float64 `envconfig:"STOREFRONT_RATE_LIMIT_RPS" default:"20"`
	Burst int     `envconfig:"STOREFRONT_RATE_LIMIT_BURST" default:"40"`
}

// SessionsConfig controls how long an unused session keeps its in-process
// state (cart projection, checkout flow, order polls).
type SessionsConfig struct {
	IdleTTL       time.Duration `envconfig:"STOREFRONT_SESSIONS_IDLE_TTL" default:"30m"`
	SweepInterval time.Duration `envconfig:"STOREFRONT_SESSIONS_SWEEP_INTERVAL" default:"5m"`
}

func (c *Config) validate() error {
	u, err := url.Parse(strings.TrimSpace(c.Upstream.BaseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute url", EnvUpstreamBaseURL)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvUpstreamTimeout)
	}
	if c.Orders.PollInterval <= 0 {
		return fmt.Errorf("%s must be positive", EnvOrderPollInterval)
	}
	if c.Pricing.CourierCost < 0 || c.Pricing.MailCost < 0 || c.Pricing.FreeShippingThreshold < 0 {
		return fmt.Errorf("pricing amounts must not be negative")
	}
	if c.Cart.RefetchAttempts == 0 {
		return fmt.Errorf("%s must be at least 1", EnvCartRefetchAttempts)
	}
	return nil
}
