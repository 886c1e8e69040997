package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	DBURL            string
	LogLevel         string
	LogFormat        string
	DBMaxConns       int
	RedisURL         string
	NotifyChannel    string
	JWTSecret        string
	PlatformFeeBps   int64
	PlatformWalletID uuid.UUID
	TxMaxRetries     int
	MigrateOnStart   bool
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load("config.env")

	cfg := &Config{
		Port:           getenv("APP_PORT", "8080"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		LogFormat:      getenv("LOG_FORMAT", "text"),
		DBMaxConns:     getenvInt("DB_MAX_CONNS", 8),
		RedisURL:       os.Getenv("REDIS_URL"),
		NotifyChannel:  getenv("NOTIFY_CHANNEL", "ledger.events"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		PlatformFeeBps: int64(getenvInt("PLATFORM_FEE_BPS", 1000)),
		TxMaxRetries:   getenvInt("TX_MAX_RETRIES", 3),
		MigrateOnStart: getenv("MIGRATE_ON_START", "true") == "true",
	}

	cfg.DBURL = os.Getenv("DATABASE_URL")
	if cfg.DBURL == "" {
		cfg.DBURL = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s",
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_HOST"),
			os.Getenv("DB_PORT"),
			os.Getenv("DB_NAME"),
		)
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.PlatformFeeBps < 0 || cfg.PlatformFeeBps > 10000 {
		return nil, fmt.Errorf("PLATFORM_FEE_BPS must be within [0, 10000], got %d", cfg.PlatformFeeBps)
	}
	if cfg.TxMaxRetries < 1 {
		cfg.TxMaxRetries = 1
	}

	rawWallet := os.Getenv("PLATFORM_WALLET_ID")
	if rawWallet == "" {
		return nil, errors.New("PLATFORM_WALLET_ID is required")
	}
	id, err := uuid.Parse(rawWallet)
	if err != nil {
		return nil, fmt.Errorf("PLATFORM_WALLET_ID: %w", err)
	}
	cfg.PlatformWalletID = id

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
