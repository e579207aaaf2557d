// Package app wires configuration, storage, the remote client and the use
// case together.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/yourusername/productsync/config"
	"github.com/yourusername/productsync/internal/delivery/telegram"
	"github.com/yourusername/productsync/internal/domain/repository"
	"github.com/yourusername/productsync/internal/infrastructure/parser"
	"github.com/yourusername/productsync/internal/infrastructure/restapi"
	"github.com/yourusername/productsync/internal/infrastructure/storage"
	"github.com/yourusername/productsync/internal/usecase"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Application holds every long-lived dependency
type Application struct {
	Config   *config.Config
	Logger   *zap.Logger
	KV       repository.KeyValueStore
	Remote   repository.ProductRemote
	Parser   repository.ExcelParser
	Products usecase.ProductUseCase
}

// NewLogger builds a zap logger for the configured mode. When LOG_FILE is set
// a JSON copy of every entry goes to a rotated file.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.LogMode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stderr"}

	if cfg.LogFile == "" {
		return zapConfig.Build(zap.AddCaller())
	}

	lumberJackLogger := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    64,
		MaxBackups: 7,
		MaxAge:     7,
		Compress:   false,
	}

	core := zapcore.NewTee(
		zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(lumberJackLogger),
			zapConfig.Level,
		),
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(os.Stderr),
			zapConfig.Level,
		),
	)
	return zap.New(core, zap.AddCaller()), nil
}

// NewKeyValueStore opens the backend named by STORE_DRIVER
func NewKeyValueStore(ctx context.Context, cfg *config.Config) (repository.KeyValueStore, error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		return storage.NewSQLiteKeyValueStore(cfg.StorePath)
	case config.StoreBolt:
		return storage.NewBoltKeyValueStore(cfg.StorePath)
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return storage.NewRedisKeyValueStore(client, cfg.RedisPrefix), nil
	case config.StoreMemory:
		return storage.NewMemoryKeyValueStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// New builds the application and loads the local collection. A collection
// that cannot be parsed is logged and replaced by an empty one.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Application, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	kv, err := NewKeyValueStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	remote, err := restapi.NewClient(cfg.APIURL, &http.Client{Timeout: cfg.HTTPTimeout}, logger)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	store := storage.NewProductStore(kv, cfg.StoreKey, logger)
	products := usecase.NewProductUseCase(store, usecase.NewReconciler(remote, logger), logger)
	if err := products.Load(ctx); err != nil {
		logger.Warn("starting with an empty collection", zap.Error(err))
	}

	logger.Info("application ready",
		zap.String("store", cfg.StoreDriver),
		zap.String("remote", cfg.APIURL))

	return &Application{
		Config:   cfg,
		Logger:   logger,
		KV:       kv,
		Remote:   remote,
		Parser:   parser.NewExcelParser(logger),
		Products: products,
	}, nil
}

// RunBot serves the Telegram bot until ctx is cancelled
func (a *Application) RunBot(ctx context.Context) error {
	if a.Config.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is not set")
	}

	bot, err := telegram.NewBotHandler(a.Config.TelegramToken, a.Config.TelegramNotifyChatID, a.Products, a.Parser, a.Logger)
	if err != nil {
		return err
	}

	err = bot.Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Release closes the store and flushes the logger
func (a *Application) Release() {
	if a.KV != nil {
		if err := a.KV.Close(); err != nil {
			a.Logger.Warn("failed to close store", zap.Error(err))
		}
	}
	_ = a.Logger.Sync()
}
