package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the messaging service.
type Config struct {
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	PostgresDSN string `mapstructure:"POSTGRES_DSN"`
	AutoMigrate bool   `mapstructure:"AUTO_MIGRATE"`
	NATSUrl     string `mapstructure:"NATS_URL"`  // empty disables events and auto-responses
	RedisURL    string `mapstructure:"REDIS_URL"` // empty disables the inbound replay guard

	ServerPort  int `mapstructure:"SERVER_PORT"`
	MetricsPort int `mapstructure:"METRICS_PORT"`

	// PublicBaseURL is the externally reachable base URL the carrier calls back into.
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL"`

	// Carrier defaults, used when an outbound number carries no credentials of its own.
	CarrierProvider     string        `mapstructure:"CARRIER_PROVIDER"` // "twilio" or "mock"
	CarrierAPIBaseURL   string        `mapstructure:"CARRIER_API_BASE_URL"`
	CarrierAccountSID   string        `mapstructure:"CARRIER_ACCOUNT_SID"`
	CarrierAuthToken    string        `mapstructure:"CARRIER_AUTH_TOKEN"`
	CarrierTimeout      time.Duration `mapstructure:"CARRIER_TIMEOUT"`
	ValidateWebhookSigs bool          `mapstructure:"WEBHOOK_VALIDATE_SIGNATURE"`
	ReplayGuardTTL      time.Duration `mapstructure:"REPLAY_GUARD_TTL"`
	AutoResponseQueue   string        `mapstructure:"AUTO_RESPONSE_QUEUE_GROUP"`
	ShutdownGracePeriod time.Duration `mapstructure:"SHUTDOWN_GRACE_PERIOD"`
}

// ErrMissingSetting is returned by Validate when a required key is empty.
var ErrMissingSetting = errors.New("missing required configuration")

// Load reads config.defaults.yaml (if present) and APP_ prefixed environment variables.
func Load(serviceName string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config.defaults")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.SetEnvPrefix("APP") // APP_LOG_LEVEL, APP_POSTGRES_DSN etc.

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Printf("%s: config.defaults.yaml not found; using defaults and environment variables.", serviceName)
		} else {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("POSTGRES_DSN", "")
	v.SetDefault("AUTO_MIGRATE", true)
	v.SetDefault("NATS_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("METRICS_PORT", 9090)
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("CARRIER_PROVIDER", "twilio")
	v.SetDefault("CARRIER_API_BASE_URL", "https://api.twilio.com")
	v.SetDefault("CARRIER_ACCOUNT_SID", "")
	v.SetDefault("CARRIER_AUTH_TOKEN", "")
	v.SetDefault("CARRIER_TIMEOUT", 15*time.Second)
	v.SetDefault("WEBHOOK_VALIDATE_SIGNATURE", false)
	v.SetDefault("REPLAY_GUARD_TTL", 24*time.Hour)
	v.SetDefault("AUTO_RESPONSE_QUEUE_GROUP", "messaging_autoresponder")
	v.SetDefault("SHUTDOWN_GRACE_PERIOD", 15*time.Second)
}

// Validate reports settings the service cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.PostgresDSN) == "" {
		missing = append(missing, "POSTGRES_DSN")
	}
	if c.ValidateWebhookSigs && c.CarrierAuthToken == "" {
		missing = append(missing, "CARRIER_AUTH_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSetting, strings.Join(missing, ", "))
	}
	return nil
}

// StatusCallbackURL is the default delivery status webhook address.
func (c *Config) StatusCallbackURL() string {
	return strings.TrimRight(c.PublicBaseURL, "/") + "/webhooks/sms/status"
}
