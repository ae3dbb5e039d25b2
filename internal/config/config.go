package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Otel     OtelConfig     `mapstructure:"otel"`
	CORS     CORSConfig     `mapstructure:"cors"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
}

// GatewayConfig holds the Cashfree-compatible payment gateway credentials.
// ClientID and ClientSecret go out as the x-client-id / x-client-secret
// header pair on every call.
type GatewayConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	ReturnURL    string `mapstructure:"return_url"`
}

type OtelConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// Load reads an optional YAML file and layers CANTEEN_* environment
// variables on top (CANTEEN_SERVER_PORT, CANTEEN_POSTGRES_URL, ...).
// An empty path skips the file entirely.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("canteen")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults double as key registrations: AutomaticEnv only surfaces
	// keys viper already knows about when unmarshalling.
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("postgres.url", "")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("gateway.base_url", "https://api.cashfree.com/pg")
	v.SetDefault("gateway.client_id", "")
	v.SetDefault("gateway.client_secret", "")
	v.SetDefault("gateway.return_url", "")
	v.SetDefault("otel.endpoint", "localhost:4317")
	v.SetDefault("cors.allow_origins", []string{"*"})

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Postgres.URL == "" {
		return nil, fmt.Errorf("postgres url is required (CANTEEN_POSTGRES_URL)")
	}

	return &cfg, nil
}
