package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CRYPTO_API_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.CryptoAPITimeout)
	assert.Equal(t, float64(100), cfg.CryptoCreditsPerUnit)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ADMIN_EMAILS", "a@x.io, B@x.io")
	t.Setenv("CRYPTO_PAYOUT_ADDRESSES", "BTC=bc1abc, ltc=ltc1xyz,broken")
	t.Setenv("PUBLIC_BASE_URL", "https://overlay.example/")
	t.Setenv("SUBSCRIPTION_SWEEP_INTERVAL", "1m")
	t.Setenv("OTEL_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "a@x.io, B@x.io", cfg.AdminEmails)
	assert.Equal(t, map[string]string{"btc": "bc1abc", "ltc": "ltc1xyz"}, cfg.CryptoPayoutAddress)
	assert.Equal(t, "https://overlay.example", cfg.PublicBaseURL)
	assert.Equal(t, time.Minute, cfg.SubscriptionSweepInterval)
	assert.True(t, cfg.OTelEnabled)
}

func TestGetDuration_Invalid(t *testing.T) {
	t.Setenv("SOME_DURATION", "soon")
	assert.Equal(t, time.Hour, getDuration("SOME_DURATION", time.Hour))
}
