package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Platform  PlatformConfig  `mapstructure:"platform"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	Metafield MetafieldConfig `mapstructure:"metafield"`
	Upload    UploadConfig    `mapstructure:"upload"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type PlatformConfig struct {
	StoreDomain string        `mapstructure:"store_domain"`
	AccessToken string        `mapstructure:"access_token"`
	APIVersion  string        `mapstructure:"api_version"`
	Timeout     time.Duration `mapstructure:"timeout"`
	// Endpoint overrides the URL derived from StoreDomain and APIVersion.
	// Used in tests against a local stand-in server.
	Endpoint string `mapstructure:"endpoint"`

	ResolveMaxAttempts    int           `mapstructure:"resolve_max_attempts"`
	ResolveInitialBackoff time.Duration `mapstructure:"resolve_initial_backoff"`
	ResolveMaxBackoff     time.Duration `mapstructure:"resolve_max_backoff"`
}

type WebhookConfig struct {
	Secret      string `mapstructure:"secret"`
	MaxBodySize int64  `mapstructure:"max_body_size"`
}

type MetafieldConfig struct {
	Namespace string `mapstructure:"namespace"`
	Key       string `mapstructure:"key"`
	// AttributeName is the order note attribute carrying a document URL on
	// inbound orders/create notifications.
	AttributeName string `mapstructure:"attribute_name"`
}

type UploadConfig struct {
	// Mode selects the transport used to hand bytes to the platform:
	// "base64" submits them inline, "staged" uses a staged multipart upload.
	Mode        string `mapstructure:"mode"`
	SpoolDir    string `mapstructure:"spool_dir"`
	MaxFileSize int64  `mapstructure:"max_file_size"`
}

type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	RedisURL string        `mapstructure:"redis_url"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GraphQLEndpoint returns the platform's admin API URL for this store.
func (p PlatformConfig) GraphQLEndpoint() string {
	if p.Endpoint != "" {
		return p.Endpoint
	}
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", p.StoreDomain, p.APIVersion)
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	// Credentials default to empty so env overrides bind even without a
	// config file; Validate rejects them if still unset at startup.
	v.SetDefault("platform.store_domain", "")
	v.SetDefault("platform.access_token", "")
	v.SetDefault("platform.endpoint", "")
	v.SetDefault("webhook.secret", "")
	v.SetDefault("platform.api_version", "2024-07")
	v.SetDefault("platform.timeout", "30s")
	v.SetDefault("platform.resolve_max_attempts", 5)
	v.SetDefault("platform.resolve_initial_backoff", "500ms")
	v.SetDefault("platform.resolve_max_backoff", "8s")
	v.SetDefault("webhook.max_body_size", 1048576)
	v.SetDefault("metafield.namespace", "custom")
	v.SetDefault("metafield.key", "lpo_file")
	v.SetDefault("metafield.attribute_name", "lpo_file")
	v.SetDefault("upload.mode", "base64")
	v.SetDefault("upload.spool_dir", "uploads")
	v.SetDefault("upload.max_file_size", 10485760)
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.redis_url", "redis://localhost:6379")
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/orderdocs")
	}

	// Environment variables override
	v.SetEnvPrefix("ORDERDOCS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the settings the service cannot run without. A missing
// credential is a startup error, never a per-request one.
func (c *Config) Validate() error {
	if c.Platform.StoreDomain == "" && c.Platform.Endpoint == "" {
		return fmt.Errorf("platform.store_domain is required")
	}
	if c.Platform.AccessToken == "" {
		return fmt.Errorf("platform.access_token is required")
	}
	if c.Webhook.Secret == "" {
		return fmt.Errorf("webhook.secret is required")
	}
	if c.Upload.Mode != "base64" && c.Upload.Mode != "staged" {
		return fmt.Errorf("upload.mode must be \"base64\" or \"staged\", got %q", c.Upload.Mode)
	}
	return nil
}
