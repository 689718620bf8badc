package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("PROFILE_WEBHOOK_URL", "https://hook.example/profile")
	t.Setenv("ORDER_WEBHOOK_URL", "https://hook.example/order")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/spravzhnya_tg_orders/", cfg.Server.BasePath)
	assert.Equal(t, "uk-UA", cfg.Order.Locale)
	assert.Equal(t, 15*time.Second, cfg.Webhooks.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Telegram.InitDataTTL)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
}

func TestParseRequiresWebhooks(t *testing.T) {
	t.Setenv("PROFILE_WEBHOOK_URL", "")
	t.Setenv("ORDER_WEBHOOK_URL", "")

	_, err := Parse()
	assert.Error(t, err)
}

func TestParseRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("PROFILE_WEBHOOK_URL", "https://hook.example/profile")
	t.Setenv("ORDER_WEBHOOK_URL", "https://hook.example/order")
	t.Setenv("ORDER_TIMEZONE", "Mars/Olympus")

	_, err := Parse()
	assert.ErrorContains(t, err, "ORDER_TIMEZONE")
}
