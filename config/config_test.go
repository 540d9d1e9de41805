package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.Addr())
	assert.Equal(t, "blackline", cfg.MongoDatabase)
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, 168*time.Hour, cfg.JWTTTL)
	assert.Equal(t, int64(5<<20), cfg.UploadMaxBytes)
	assert.True(t, cfg.CartStrictStock)
	assert.Equal(t, StockAtomic, cfg.OrderStockMode)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadRejectsUnknownStockMode(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ORDER_STOCK_MODE", "optimistic")

	_, err := Load()
	assert.ErrorContains(t, err, "ORDER_STOCK_MODE")
}

func TestAllowedOrigins(t *testing.T) {
	cfg := &Config{FrontendURL: "https://shop.example.com/, https://admin.example.com"}

	origins := cfg.AllowedOrigins()
	assert.Contains(t, origins, "http://localhost:5173")
	assert.Contains(t, origins, "https://shop.example.com")
	assert.Contains(t, origins, "https://admin.example.com")
	assert.Len(t, origins, len(DevOrigins)+2)
}

func TestTrustedProxyList(t *testing.T) {
	assert.Empty(t, (&Config{}).TrustedProxyList())

	cfg := &Config{TrustedProxies: "10.0.0.0/8, ,192.0.2.1"}
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, cfg.TrustedProxyList())
}

func TestLoggerLevel(t *testing.T) {
	cfg := &Config{LogLevel: "debug", LogFormat: "json"}
	log := cfg.Logger()

	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}
