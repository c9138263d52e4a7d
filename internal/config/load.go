package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for every environment variable read by Load.
const EnvPrefix = "MONTAGE"

// defaults lists every key with its default value. Registering each key is
// also what lets viper's AutomaticEnv populate it during Unmarshal.
var defaults = map[string]any{
	"server.port":                      8080,
	"server.log_level":                 "info",
	"database.url":                     "",
	"auth.jwt_secret":                  "",
	"auth.token_lifetime_minutes":      60,
	"provider.name":                    "runway",
	"provider.api_key":                 "",
	"provider.base_url":                "https://api.dev.runwayml.com",
	"provider.model":                   "gen3a_turbo",
	"provider.api_version":             "2024-11-06",
	"provider.ratio":                   "1280:768",
	"provider.request_timeout_seconds": 30,
	"webhook.secret":                   "",
	"webhook.signature_header":         "X-Webhook-Signature",
	"telemetry.enabled":                false,
	"telemetry.endpoint":               "http://127.0.0.1:4318",
	"telemetry.service_name":           "montage-api",
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	// Missing .env files are normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
