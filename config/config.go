package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/eidetica/eidetica/internal/logger"
	"github.com/joho/godotenv"
)

var (
	customLog = logger.NewLogger()
)

// Config holds application configuration values
type Config struct {
	ServerPort     string
	JWTSecret      string
	JWTExpiration  time.Duration
	MetadataDbDir  string
	MetadataDbFile string

	// PostgresURL is the administrative connection string for the cluster
	// databases are provisioned on. It may be empty when only metadata
	// operations are performed; provisioning operations fail fast without it.
	PostgresURL string
}

// LoadConfig loads configuration from environment variables.
// It uses a .env file for local development if present (ignores it for production).
func LoadConfig() (*Config, error) {
	// Attempt to load .env file if in development environment (skip in production)
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			customLog.Warnf("Warning: Error loading .env file: %v", err)
		}
	}

	// Read values from environment variables, providing defaults where appropriate
	port := getEnv("SERVER_PORT", "8080")
	jwtSecret := os.Getenv("JWT_SECRET") // required for serve mode only, validated there
	jwtExpHoursStr := getEnv("JWT_EXPIRATION_HOURS", "24")
	dbDir := getEnv("DATABASE_DIRECTORY", "data")
	dbFile := getEnv("DATABASE_DIRECTORY_FILE", "metadata.db")
	postgresURL := os.Getenv("POSTGRES_URL")

	// Parse JWT Expiration (hours)
	jwtExpHours, err := strconv.Atoi(jwtExpHoursStr)
	if err != nil || jwtExpHours <= 0 {
		customLog.Warnf("Invalid JWT_EXPIRATION_HOURS '%s'. Using default 24h. Error: %v", jwtExpHoursStr, err)
		jwtExpHours = 24
	}
	jwtExpiration := time.Hour * time.Duration(jwtExpHours)

	cfg := &Config{
		ServerPort:     port,
		JWTSecret:      jwtSecret,
		JWTExpiration:  jwtExpiration,
		MetadataDbDir:  dbDir,
		MetadataDbFile: dbFile,
		PostgresURL:    postgresURL,
	}

	return cfg, nil
}

// ClusterHost returns the host component of the administrative Postgres URL,
// used when building connection strings handed back to operators.
// Defaults to localhost when the URL is absent or unparsable.
func (c *Config) ClusterHost() string {
	if c.PostgresURL == "" {
		return "localhost"
	}
	u, err := url.Parse(c.PostgresURL)
	if err != nil || u.Host == "" {
		return "localhost"
	}
	return u.Host
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
