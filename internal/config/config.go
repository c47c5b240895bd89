package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPass     string
	DBName     string
	ServerPort string
	RedisURL   string
	RedisTTL   time.Duration
	Env        string

	// FrontendURL is a comma-separated list of allowed CORS origins.
	FrontendURL string

	JWTSecret string
	JWTTTL    time.Duration

	AdminName     string
	AdminEmail    string
	AdminPassword string

	// MessageStore selects the chat message backend: "postgres" or "memory".
	MessageStore          string
	ChatCacheTTL          time.Duration
	PresenceTouchInterval time.Duration
	MaxTextLength         int
	MaxImageBytes         int
}

func LoadConfig() Config {
	return Config{
		DBHost:     getEnv("DB_HOST", "postgres"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPass:     getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "db_storefront"),
		ServerPort: getEnv("SERVER_PORT", "5000"),
		RedisURL:   getEnv("REDIS_URL", "redis:6379"),
		RedisTTL:   getEnvAsDuration("REDIS_TTL", 5*time.Minute),
		Env:        getEnv("ENV", "dev"),

		FrontendURL: getEnv("FRONTEND_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", "secretkey"),
		JWTTTL:    getEnvAsDuration("JWT_TTL", 100*time.Hour),

		AdminName:     getEnv("ADMIN_NAME", "Administrator"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@store.com"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin"),

		MessageStore:          getEnv("MESSAGE_STORE", "postgres"),
		ChatCacheTTL:          getEnvAsDuration("CHAT_CACHE_TTL", time.Minute),
		PresenceTouchInterval: getEnvAsDuration("PRESENCE_TOUCH_INTERVAL", 30*time.Second),
		MaxTextLength:         getEnvAsInt("MAX_TEXT_LENGTH", 5000),
		MaxImageBytes:         getEnvAsInt("MAX_IMAGE_BYTES", 8*1024*1024), // 8MB data-URI
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPass, c.DBName, c.DBPort,
	)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := time.ParseDuration(value); err == nil {
			return v
		}
	}
	return fallback
}
