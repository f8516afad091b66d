package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database (empty disables the run journal)
	DatabaseURL    string
	MigrateOnStart bool

	// Redis (empty disables snapshot publishing and remote commands)
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Table
	TableID       string
	TickRate      int
	SnapshotEvery int
	PhysicsConfig string
	RandomSeed    int64

	// Security
	JWTSecret         string
	OperatorTokenHash string
	TokenTTLMinutes   int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", false),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Table
		TableID:       getEnv("TABLE_ID", "main"),
		TickRate:      getEnvInt("TICK_RATE", 120),
		SnapshotEvery: getEnvInt("SNAPSHOT_EVERY", 4),
		PhysicsConfig: getEnv("PHYSICS_CONFIG", "physics.yaml"),
		RandomSeed:    getEnvInt64("RANDOM_SEED", 0),

		// Security
		JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
		OperatorTokenHash: getEnv("OPERATOR_TOKEN_HASH", ""),
		TokenTTLMinutes:   getEnvInt("TOKEN_TTL_MINUTES", 60),
	}
}

// IsProduction reports whether the server runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
