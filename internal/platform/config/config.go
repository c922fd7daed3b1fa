// Package config loads the process-wide settings shared by every service.
// Service specific knobs (ranking priors, cache TTLs) live next to the
// service in its own internal/config package.
package config

import (
	"errors"
	"os"
	"strings"
)

type HTTPConfig struct {
	Addr string
}

type AppConfig struct {
	ServiceName string
	Env         string
	LogLevel    string
	HTTP        HTTPConfig
}

// IsProduction reports whether APP_ENV=production. Stores use this to
// fail fast instead of falling back to in-memory backends.
func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func Load() (AppConfig, error) {
	cfg := AppConfig{
		ServiceName: Getenv("SERVICE_NAME"),
		Env:         Getenv("APP_ENV"),
		LogLevel:    Getenv("LOG_LEVEL"),
		HTTP: HTTPConfig{
			Addr: Getenv("HTTP_ADDR"),
		},
	}
	if cfg.ServiceName == "" {
		return AppConfig{}, errors.New("SERVICE_NAME is required")
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

// Getenv returns the trimmed value of an environment variable.
func Getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
