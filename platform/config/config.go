// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"velkro/platform/validator"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
)

// =============================================================================
// Component-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// HTTPConfig provides settings for the HTTP server and request pipeline.
type HTTPConfig interface {
	GetEnv() string
	GetPort() string
	GetHTTPAddr() string
	ShouldStartHTTPServer() bool
	GetBodyLimit() int64
	GetRateLimit() (rps float64, burst int)
}

// RoutesConfig provides settings for route module discovery.
type RoutesConfig interface {
	GetModulesDir() string
	GetRoutesFilename() string
	GetRoutesBase() string
}

// CORSConfig provides settings for the CORS middleware.
type CORSConfig interface {
	IsCORSEnabled() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// JWTConfig provides the state-token signing secret.
// An empty secret disables token emission and bearer parsing.
type JWTConfig interface {
	GetJWTSecret() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Routes holds route module discovery settings.
type Routes struct {
	Filename string `default:"routes.yaml" validate:"required,excludes=/"`
	Base     string
}

// CORS holds cross-origin settings.
type CORS struct {
	Enabled          bool `default:"true"`
	Origins          []string
	AllowCredentials bool
}

// JWT holds state-token settings.
type JWT struct {
	Secret string
}

// RateLimit configures the named rate-limit middleware. Zero RPS disables it.
type RateLimit struct {
	RPS   float64 `validate:"gte=0"`
	Burst int     `default:"5" validate:"gte=0"`
}

// Config holds all application configuration values.
type Config struct {
	Env             string `default:"development"`
	Port            string `default:"8080" validate:"required,numeric"`
	ModulesDir      string `default:"modules" validate:"required"`
	StartHTTPServer bool   `default:"true"`
	BodyLimit       int64  `default:"104857600" validate:"gt=0"`
	Routes          Routes
	CORS            CORS
	JWT             JWT
	RateLimit       RateLimit
}

// =============================================================================
// Interface Implementations
// =============================================================================

// HTTPConfig implementation
func (c *Config) GetEnv() string              { return c.Env }
func (c *Config) GetPort() string             { return c.Port }
func (c *Config) GetHTTPAddr() string         { return ":" + c.Port }
func (c *Config) ShouldStartHTTPServer() bool { return c.StartHTTPServer }
func (c *Config) GetBodyLimit() int64         { return c.BodyLimit }
func (c *Config) GetRateLimit() (float64, int) {
	return c.RateLimit.RPS, c.RateLimit.Burst
}

// RoutesConfig implementation
func (c *Config) GetModulesDir() string     { return c.ModulesDir }
func (c *Config) GetRoutesFilename() string { return c.Routes.Filename }
func (c *Config) GetRoutesBase() string     { return c.Routes.Base }

// CORSConfig implementation
func (c *Config) IsCORSEnabled() bool      { return c.CORS.Enabled }
func (c *Config) GetCORSOrigins() []string { return c.CORS.Origins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORS.AllowCredentials }

// JWTConfig implementation
func (c *Config) GetJWTSecret() string { return c.JWT.Secret }

// Default returns a config with every field at its default value.
func Default() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		panic("config defaults: " + err.Error())
	}
	return cfg
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if containsWildcard(c.CORS.Origins) && c.CORS.AllowCredentials {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ORIGINS contains *")
	}
	return nil
}

// Load reads configuration from environment variables (and .env if present).
// Unset variables keep their defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	cfg.Env = getEnv("APP_ENV", cfg.Env)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.ModulesDir = getEnv("MODULES_DIR", cfg.ModulesDir)
	cfg.Routes.Filename = getEnv("ROUTES_FILENAME", cfg.Routes.Filename)
	cfg.Routes.Base = getEnv("ROUTES_BASE", cfg.Routes.Base)
	cfg.JWT.Secret = getEnv("JWT_SECRET", cfg.JWT.Secret)
	cfg.CORS.Origins = splitCSV(getEnv("CORS_ORIGINS", strings.Join(cfg.CORS.Origins, ",")))

	var err error
	if cfg.StartHTTPServer, err = getBool("START_HTTP_SERVER", cfg.StartHTTPServer); err != nil {
		return nil, err
	}
	if cfg.CORS.Enabled, err = getBool("CORS_ENABLED", cfg.CORS.Enabled); err != nil {
		return nil, err
	}
	if cfg.CORS.AllowCredentials, err = getBool("CORS_ALLOW_CREDENTIALS", cfg.CORS.AllowCredentials); err != nil {
		return nil, err
	}
	if cfg.BodyLimit, err = getInt64("BODY_LIMIT", cfg.BodyLimit); err != nil {
		return nil, err
	}
	if cfg.RateLimit.RPS, err = getFloat("RATE_LIMIT_RPS", cfg.RateLimit.RPS); err != nil {
		return nil, err
	}
	burst, err := getInt64("RATE_LIMIT_BURST", int64(cfg.RateLimit.Burst))
	if err != nil {
		return nil, err
	}
	cfg.RateLimit.Burst = int(burst)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getInt64(key string, fallback int64) (int64, error) {
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
