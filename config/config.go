// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"

	StockAtomic = "atomic"
	StockLegacy = "legacy"
)

// DevOrigins are always allowed by CORS in addition to FRONTEND_URL.
var DevOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
	"http://localhost:5174",
}

type Config struct {
	Port string `env:"PORT,default=4000"`

	MongoURI      string `env:"MONGODB_URI,default=mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGODB_DATABASE,default=blackline"`
	StoreDriver   string `env:"STORE_DRIVER,default=mongo"`

	// RedisURL is optional; without it locks and caches stay in process.
	RedisURL string `env:"REDIS_URL"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL,default=168h"`

	FrontendURL string `env:"FRONTEND_URL"`

	// TrustedProxies lists peers (IPs or CIDRs) whose X-Forwarded-For is used
	// for rate limiting.
	TrustedProxies string `env:"TRUSTED_PROXIES"`

	UploadDir      string `env:"UPLOAD_DIR,default=uploads"`
	UploadMaxBytes int64  `env:"UPLOAD_MAX_BYTES,default=5242880"`

	CartStrictStock bool   `env:"CART_STRICT_STOCK,default=true"`
	OrderStockMode  string `env:"ORDER_STOCK_MODE,default=atomic"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`
}

// Load reads an optional .env file and decodes the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return nil, fmt.Errorf("decode env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.StoreDriver {
	case DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverMongo, DriverMemory, c.StoreDriver)
	}
	switch c.OrderStockMode {
	case StockAtomic, StockLegacy:
	default:
		return fmt.Errorf("ORDER_STOCK_MODE must be %q or %q, got %q", StockAtomic, StockLegacy, c.OrderStockMode)
	}
	if c.UploadMaxBytes <= 0 {
		return errors.New("UPLOAD_MAX_BYTES must be positive")
	}
	return nil
}

// Addr is the listen address derived from PORT.
func (c *Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// AllowedOrigins merges FRONTEND_URL entries with the dev origins.
func (c *Config) AllowedOrigins() []string {
	out := append([]string(nil), DevOrigins...)
	for _, o := range strings.Split(c.FrontendURL, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c *Config) TrustedProxyList() []string {
	var out []string
	for _, p := range strings.Split(c.TrustedProxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Logger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) Logger() *logrus.Logger {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(lvl)
	} else {
		log.WithField("level", c.LogLevel).Warn("unknown log level, using info")
	}
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
