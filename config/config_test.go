package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"API_URL", "HTTP_TIMEOUT", "STORE_DRIVER", "STORE_PATH", "STORE_KEY",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_PREFIX",
		"LOG_MODE", "LOG_FILE", "TELEGRAM_BOT_TOKEN", "TELEGRAM_NOTIFY_CHAT_ID",
		"SERVER_ADDR", "SERVER_RESOURCE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000/productos", cfg.APIURL)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, StoreSQLite, cfg.StoreDriver)
	assert.Equal(t, "productos", cfg.StoreKey)
	assert.Equal(t, ":3000", cfg.ServerAddr)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_URL", "http://example.test/items")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("TELEGRAM_NOTIFY_CHAT_ID", "-100123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://example.test/items", cfg.APIURL)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, StoreRedis, cfg.StoreDriver)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, int64(-100123), cfg.TelegramNotifyChatID)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"timeout", "HTTP_TIMEOUT", "soon"},
		{"redis db", "REDIS_DB", "two"},
		{"chat id", "TELEGRAM_NOTIFY_CHAT_ID", "abc"},
		{"driver", "STORE_DRIVER", "postgres"},
		{"relative url", "API_URL", "/productos"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestValidate_NegativeTimeout(t *testing.T) {
	cfg := Default()
	cfg.HTTPTimeout = -time.Second

	assert.Error(t, cfg.Validate())
}
