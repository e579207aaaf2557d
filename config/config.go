package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Store drivers understood by the application wiring.
const (
	StoreSQLite = "sqlite"
	StoreBolt   = "bolt"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config application configuration
type Config struct {
	APIURL      string
	HTTPTimeout time.Duration

	StoreDriver string
	StorePath   string
	StoreKey    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	LogMode string
	LogFile string

	TelegramToken        string
	TelegramNotifyChatID int64

	ServerAddr     string
	ServerResource string
}

// Default returns the configuration used when no environment is set.
func Default() *Config {
	return &Config{
		APIURL:         "http://localhost:3000/productos",
		HTTPTimeout:    10 * time.Second,
		StoreDriver:    StoreSQLite,
		StorePath:      "data/products.db",
		StoreKey:       "productos",
		RedisAddr:      "localhost:6379",
		RedisPrefix:    "productsync:",
		LogMode:        "development",
		ServerAddr:     ":3000",
		ServerResource: "productos",
	}
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := Default()

	setString(&config.APIURL, "API_URL")
	setString(&config.StoreDriver, "STORE_DRIVER")
	setString(&config.StorePath, "STORE_PATH")
	setString(&config.StoreKey, "STORE_KEY")
	setString(&config.RedisAddr, "REDIS_ADDR")
	setString(&config.RedisPassword, "REDIS_PASSWORD")
	setString(&config.RedisPrefix, "REDIS_PREFIX")
	setString(&config.LogMode, "LOG_MODE")
	setString(&config.LogFile, "LOG_FILE")
	setString(&config.TelegramToken, "TELEGRAM_BOT_TOKEN")
	setString(&config.ServerAddr, "SERVER_ADDR")
	setString(&config.ServerResource, "SERVER_RESOURCE")

	if raw := os.Getenv("HTTP_TIMEOUT"); raw != "" {
		timeout, err := cast.ToDurationE(raw)
		if err != nil {
			return nil, fmt.Errorf("HTTP_TIMEOUT has invalid format: %w", err)
		}
		config.HTTPTimeout = timeout
	}

	if raw := os.Getenv("REDIS_DB"); raw != "" {
		db, err := cast.ToIntE(raw)
		if err != nil {
			return nil, fmt.Errorf("REDIS_DB has invalid format: %w", err)
		}
		config.RedisDB = db
	}

	if raw := os.Getenv("TELEGRAM_NOTIFY_CHAT_ID"); raw != "" {
		chatID, err := cast.ToInt64E(raw)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_NOTIFY_CHAT_ID has invalid format: %w", err)
		}
		config.TelegramNotifyChatID = chatID
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks values that would otherwise fail late at wiring time.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_URL must be an absolute URL, got %q", c.APIURL)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}

	switch c.StoreDriver {
	case StoreSQLite, StoreBolt:
		if c.StorePath == "" {
			return fmt.Errorf("STORE_PATH is empty")
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is empty")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be one of %s, %s, %s, %s, got %q",
			StoreSQLite, StoreBolt, StoreRedis, StoreMemory, c.StoreDriver)
	}

	if strings.TrimSpace(c.StoreKey) == "" {
		return fmt.Errorf("STORE_KEY is empty")
	}
	if strings.Trim(c.ServerResource, "/") == "" {
		return fmt.Errorf("SERVER_RESOURCE is empty")
	}

	return nil
}

func setString(dst *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*dst = value
	}
}
