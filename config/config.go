package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DatabaseDriver string // "postgres" | "sqlite"
	DatabaseURL    string
	RedisURL       string // empty disables the presence mirror
	RedisPassword  string
	RedisDB        int
	JWTSecret      string
	LogLevel       string

	// NotificationListLimit caps solicitar_notificacoes replies
	NotificationListLimit int
	// SessionPolicy is "single" (last connection wins) or "multi"
	SessionPolicy         string
	MaxConnectionsPerUser int
	PresenceTTLSeconds    int
}

func Load() *Config {
	// .env is optional
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	return &Config{
		Port:                  getEnv("PORT", "8080"),
		DatabaseDriver:        getEnv("DATABASE_DRIVER", "postgres"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisURL:              os.Getenv("REDIS_URL"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		JWTSecret:             os.Getenv("JWT_SECRET"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		NotificationListLimit: getEnvInt("NOTIFICATION_LIST_LIMIT", 50),
		SessionPolicy:         getEnv("SESSION_POLICY", "single"),
		MaxConnectionsPerUser: getEnvInt("MAX_CONNECTIONS_PER_USER", 5),
		PresenceTTLSeconds:    getEnvInt("PRESENCE_TTL_SECONDS", 30),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
