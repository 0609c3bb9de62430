package config

import (
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	Port       string
	DBPath     string
	JWTSecret  string
	DevAuth    bool // accept the X-User-ID header instead of a token
	MapsAPIKey string
	GeocodeRPM int // geocoding requests allowed per minute per client
}

// Load reads configuration from the environment, applying defaults
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./data/warmap.db"
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "your-secret-key-change-in-production"
	}

	devAuth := false
	if v := os.Getenv("DEV_AUTH"); v == "1" || v == "true" {
		devAuth = true
	}

	geocodeRPM := 30
	if v := os.Getenv("GEOCODE_RPM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			geocodeRPM = n
		}
	}

	return &Config{
		Port:       port,
		DBPath:     dbPath,
		JWTSecret:  jwtSecret,
		DevAuth:    devAuth,
		MapsAPIKey: os.Getenv("MAPS_API_KEY"),
		GeocodeRPM: geocodeRPM,
	}
}
