// Package config loads runtime settings from the environment, with an
// optional .env file for development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Addr          string
	DatabasePath  string
	SessionSecret string
	AdminUsername string
	AdminPassword string
	SeedDemo      bool
	TokenTTLHours int
	DocumentDir   string
}

// Load reads the .env file when present and resolves every setting.
// SESSION_SECRET has no default on purpose: tokens signed with a known
// key are worthless.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file, using environment as-is")
	}

	cfg := &Config{
		Addr:          getEnv("HR_ADDR", ":8080"),
		DatabasePath:  getEnv("DATABASE_PATH", "hr.db"),
		SessionSecret: getEnv("SESSION_SECRET", ""),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		SeedDemo:      getEnvAsBool("SEED_DEMO", false),
		TokenTTLHours: getEnvAsInt("TOKEN_TTL_HOURS", 8),
		DocumentDir:   getEnv("DOCUMENT_DIR", "documents"),
	}

	if cfg.SessionSecret == "" {
		logrus.Fatal("SESSION_SECRET is required")
	}
	if cfg.AdminPassword == "" {
		logrus.Fatal("ADMIN_PASSWORD is required")
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	if val, err := strconv.ParseBool(getEnv(name, "")); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsInt(name string, defaultVal int) int {
	if val, err := strconv.Atoi(getEnv(name, "")); err == nil {
		return val
	}
	return defaultVal
}
