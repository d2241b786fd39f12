package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// loadEnvFile loads environment variables from .env/.env.local files.
// It stops at the first file that loads; existing process variables are not overwritten.
func loadEnvFile() error {
	envPaths := []string{".env", ".env.local"}
	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("load %s: %w", envPath, err)
		}
		fmt.Fprintf(os.Stderr, "Loaded environment variables from %s\n", envPath)
		return nil
	}
	return errors.New("no .env file found")
}
