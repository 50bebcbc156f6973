package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.True(t, cfg.App.IsDevelopment())
	assert.Equal(t, "MXN", cfg.Billing.HomeCurrency)
	assert.True(t, decimal.RequireFromString("1.00").Equal(cfg.Billing.AllocationTolerance))
	assert.Equal(t, 300*time.Millisecond, cfg.Catalog.SearchDelay)
	assert.Equal(t, 30*time.Second, cfg.PAC.Timeout)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, 25, cfg.DB.MaxConns)
	assert.Equal(t, 15*time.Second, cfg.DB.StatementTimeout)
	assert.False(t, cfg.DB.ForceIPv4)
	assert.Equal(t, cfg.App.Name, cfg.DB.AppName)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("BILLING_ALLOCATION_TOLERANCE", "0.50")
	t.Setenv("BILLING_HOME_CURRENCY", "usd")
	t.Setenv("CATALOG_SEARCH_DELAY_MS", "150")
	t.Setenv("PAC_BASE_URL", "https://pac.example.com")
	t.Setenv("PAC_TIMEOUT_SECONDS", "5")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("DB_MAX_CONNS", "10")
	t.Setenv("DB_FORCE_IPV4", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("0.5").Equal(cfg.Billing.AllocationTolerance))
	assert.Equal(t, "USD", cfg.Billing.HomeCurrency)
	assert.Equal(t, 150*time.Millisecond, cfg.Catalog.SearchDelay)
	assert.Equal(t, "https://pac.example.com", cfg.PAC.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.PAC.Timeout)
	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, 10, cfg.DB.MaxConns)
	assert.True(t, cfg.DB.ForceIPv4)
}

func TestLoad_PoolInvalido(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "2")
	t.Setenv("DB_MIN_CONNS", "5")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ToleranciaInvalida(t *testing.T) {
	t.Setenv("BILLING_ALLOCATION_TOLERANCE", "-1")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("BILLING_ALLOCATION_TOLERANCE", "abc")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_ProductionExigePAC(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	_, err := Load()
	assert.Error(t, err)
}

func TestDSN_EscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "facturacion", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/facturacion?sslmode=disable", c.DSN())
	assert.Equal(t, c.DSN(), c.ConnectionString())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
