package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"      validate:"required"`
	Provider  ProviderConfig  `mapstructure:"provider"  validate:"required"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains database settings. An empty URL selects the
// in-memory task store.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// AuthConfig contains the settings for validating identity tokens.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// ProviderConfig selects and configures the video generation provider.
type ProviderConfig struct {
	Name                  string `mapstructure:"name"                    validate:"required,oneof=runway veo"`
	APIKey                string `mapstructure:"api_key"                 validate:"required"`
	BaseURL               string `mapstructure:"base_url"                validate:"omitempty,url"`
	Model                 string `mapstructure:"model"                   validate:"required"`
	APIVersion            string `mapstructure:"api_version"`
	Ratio                 string `mapstructure:"ratio"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" validate:"gt=0"`
}

// WebhookConfig controls verification of inbound provider notifications.
// With an empty Secret only the presence of the signature header is checked.
type WebhookConfig struct {
	Secret          string `mapstructure:"secret"`
	SignatureHeader string `mapstructure:"signature_header" validate:"required"`
}

// TelemetryConfig controls OpenTelemetry trace export.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name" validate:"required_if=Enabled true"`
}
