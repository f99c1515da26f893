package main

import "os"

const perPage = 30

// Config holds application settings, read from the environment.
type Config struct {
	Port      string
	Database  string
	SecretKey string
	LogLevel  string
}

func newConfig() *Config {
	return &Config{
		Port:      getEnv("PORT", "5000"),
		Database:  getEnv("DATABASE", "/tmp/minitwit.db"),
		SecretKey: getEnv("SECRET_KEY", "development key"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
