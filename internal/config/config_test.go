package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoadCommissionConfigDefaults(t *testing.T) {
	t.Setenv("COMMISSION_DISPATCH", "bogus")
	t.Setenv("OUTBOX_BATCH", "0")
	cfg := LoadCommissionConfig()

	assert.True(t, decimal.NewFromInt(70).Equal(cfg.PoolPct))
	assert.True(t, decimal.NewFromInt(10).Equal(cfg.BuyerPct))
	assert.True(t, cfg.SponsorPct.IsZero())
	assert.Equal(t, DispatchQueue, cfg.Dispatch)
	assert.Equal(t, 1, cfg.BatchSize)
	assert.Equal(t, 5*time.Second, cfg.Interval)
}

func TestLoadCommissionConfigOverrides(t *testing.T) {
	t.Setenv("COMMISSION_SPONSOR_PCT", "5")
	t.Setenv("COMMISSION_DISPATCH", "inline")
	t.Setenv("RABBITMQ_URL", "amqp://u:p@mq:5672/")
	cfg := LoadCommissionConfig()

	assert.True(t, decimal.NewFromInt(5).Equal(cfg.SponsorPct))
	assert.Equal(t, DispatchInline, cfg.Dispatch)
	assert.Equal(t, "amqp://u:p@mq:5672/", cfg.AMQPURL)
}

func TestEnvDecimalFallsBack(t *testing.T) {
	t.Setenv("DEFAULT_CASHBACK_PCT", "five")
	assert.True(t, decimal.NewFromInt(5).Equal(envDecimal("DEFAULT_CASHBACK_PCT", decimal.NewFromInt(5))))
}

func TestRateLimitDefaults(t *testing.T) {
	cfg := LoadRateLimitConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 10, cfg.Burst)
	assert.Equal(t, 6*time.Second, cfg.RefillEvery)
	assert.Equal(t, RateKeyIPRoute, cfg.KeyStrategy)
	assert.Equal(t, "rl:auth", cfg.Prefix)
}

func TestRateLimitFloors(t *testing.T) {
	t.Setenv("AUTH_RATE_LIMIT_BURST", "0")
	t.Setenv("AUTH_RATE_LIMIT_REFILL_EVERY", "-1s")
	t.Setenv("AUTH_RATE_LIMIT_TTL", "1ms")
	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Burst)
	assert.Equal(t, time.Second, cfg.RefillEvery)
	assert.Equal(t, time.Second, cfg.TTL)
}

func TestRateLimitKeyStrategy(t *testing.T) {
	t.Setenv("AUTH_RATE_LIMIT_KEY", "IP")
	assert.Equal(t, RateKeyIP, LoadRateLimitConfig().KeyStrategy)

	t.Setenv("AUTH_RATE_LIMIT_KEY", "actor")
	assert.Equal(t, RateKeyIPRoute, LoadRateLimitConfig().KeyStrategy)
}

func TestEnvBool(t *testing.T) {
	for v, want := range map[string]bool{"on": true, "YES": true, "1": true, "off": false, "False": false} {
		t.Setenv("X_FLAG", v)
		assert.Equal(t, want, envBool("X_FLAG", !want), v)
	}
	t.Setenv("X_FLAG", "maybe")
	assert.True(t, envBool("X_FLAG", true))
}

func TestAllowedOrigins(t *testing.T) {
	c := Config{CORSOrigins: " https://a.com, ,http://localhost:3000 "}
	assert.Equal(t, []string{"https://a.com", "http://localhost:3000"}, c.AllowedOrigins())
}

func TestIsDev(t *testing.T) {
	assert.True(t, Config{Env: "dev"}.IsDev())
	assert.False(t, Config{Env: "prod"}.IsDev())
}
