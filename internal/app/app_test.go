package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/productsync/config"
	"github.com/yourusername/productsync/internal/domain/entity"
	"go.uber.org/zap/zaptest"
)

func TestNewKeyValueStore_Backends(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name   string
		mutate func(cfg *config.Config)
	}{
		{"memory", func(cfg *config.Config) { cfg.StoreDriver = config.StoreMemory }},
		{"sqlite", func(cfg *config.Config) {
			cfg.StoreDriver = config.StoreSQLite
			cfg.StorePath = filepath.Join(t.TempDir(), "products.db")
		}},
		{"bolt", func(cfg *config.Config) {
			cfg.StoreDriver = config.StoreBolt
			cfg.StorePath = filepath.Join(t.TempDir(), "products.bolt")
		}},
		{"redis", func(cfg *config.Config) {
			cfg.StoreDriver = config.StoreRedis
			cfg.RedisAddr = mr.Addr()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)

			kv, err := NewKeyValueStore(context.Background(), cfg)
			require.NoError(t, err)
			defer kv.Close()

			require.NoError(t, kv.Set(context.Background(), "k", "v"))
			got, err := kv.Get(context.Background(), "k")
			require.NoError(t, err)
			assert.Equal(t, "v", got)
		})
	}
}

func TestNewKeyValueStore_RedisUnreachable(t *testing.T) {
	cfg := config.Default()
	cfg.StoreDriver = config.StoreRedis
	cfg.RedisAddr = "127.0.0.1:1"

	_, err := NewKeyValueStore(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNew_LoadsPersistedCollection(t *testing.T) {
	cfg := config.Default()
	cfg.StoreDriver = config.StoreSQLite
	cfg.StorePath = filepath.Join(t.TempDir(), "products.db")

	first, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	_, err = first.Products.Add(context.Background(), entity.ProductInput{Name: "Mouse", Price: 25000})
	require.NoError(t, err)
	first.Release()

	second, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer second.Release()

	list := second.Products.List(context.Background())
	require.Len(t, list, 1)
	assert.Equal(t, "Mouse", list[0].Name)
}

func TestRunBot_RequiresToken(t *testing.T) {
	cfg := config.Default()
	cfg.StoreDriver = config.StoreMemory

	a, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer a.Release()

	assert.EqualError(t, a.RunBot(context.Background()), "TELEGRAM_BOT_TOKEN is not set")
}

func TestNewLogger_WritesRotatedFile(t *testing.T) {
	cfg := config.Default()
	cfg.LogMode = "production"
	cfg.LogFile = filepath.Join(t.TempDir(), "productsync.log")

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	logger.Info("hello from test")
	_ = logger.Sync()

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
}
