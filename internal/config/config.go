package config

import (
	"os"
	"strconv"
)

type Config struct {
	DBHost            string
	DBPort            string
	DBUser            string
	DBPassword        string
	DBName            string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	JWTSecret         string
	TokenTTLMinutes   int
	ServerPort        string
	AdminUser         string
	AdminPass         string
	SweepIntervalSecs int
}

func Load() *Config {
	return &Config{
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "asambleas"),
		DBMaxOpenConns:    getEnvInt("DATABASE_MAX_CONNECTIONS", 8),
		DBMaxIdleConns:    getEnvInt("DATABASE_POOL_SIZE", 2),
		JWTSecret:         getEnv("SECRET_KEY", "dev_secret_change_in_prod"),
		TokenTTLMinutes:   getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 120),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		AdminUser:         getEnv("ADMIN_USER", ""),
		AdminPass:         getEnv("ADMIN_PASS", ""),
		SweepIntervalSecs: getEnvInt("EXPIRY_SWEEP_SECONDS", 15),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}
