package config

import (
	"os"
	"strconv"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config holds the device configuration, read from the environment.
type Config struct {
	DBPath          string
	CloudAPIURL     string
	LinkTokenSecret string
	SyncInterval    time.Duration
	SyncTimeout     time.Duration
	Port            string
}

func Load() *Config {
	return &Config{
		DBPath:          getEnv("POS_DB_PATH", "pos.db"),
		CloudAPIURL:     getEnv("CLOUD_API_URL", "https://api.ubox-pos.com"),
		LinkTokenSecret: getEnv("LINK_TOKEN_SECRET", "DevLinkSecret2024"),
		SyncInterval:    time.Duration(getEnvInt("SYNC_INTERVAL_SECONDS", 30)) * time.Second,
		SyncTimeout:     time.Duration(getEnvInt("SYNC_TIMEOUT_SECONDS", 15)) * time.Second,
		Port:            getEnv("PORT", "8080"),
	}
}

// InitDB opens the embedded device database.
func InitDB(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
