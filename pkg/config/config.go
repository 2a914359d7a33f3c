package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	NATS     NATSConfig     `yaml:"nats"`
	Webhooks WebhooksConfig `yaml:"webhooks"`
	Sweeper  SweeperConfig  `yaml:"sweeper"`
	Escrow   EscrowConfig   `yaml:"escrow"`
	JWT      JWTConfig      `yaml:"jwt"`
	Security SecurityConfig `yaml:"security"`
	Logger   LoggerConfig   `yaml:"logger"`
}

type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
}

type DatabaseConfig struct {
	Host            string `yaml:"host"`
	Port            string `yaml:"port"`
	User            string `yaml:"user"`
	DBName          string `yaml:"name"`
	Password        string `yaml:"password"`
	SSLMode         string `yaml:"ssl_mode"`
	MaxConns        int32  `yaml:"max_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

// WebhooksConfig holds the static callback tokens shared with each payment
// provider. An empty token disables the corresponding webhook endpoint.
type WebhooksConfig struct {
	MomoToken    string        `yaml:"momo_token"`
	OrangeToken  string        `yaml:"orange_token"`
	LogRetention time.Duration `yaml:"log_retention"`
}

type SweeperConfig struct {
	Interval time.Duration `yaml:"interval"`
	HoldTTL  time.Duration `yaml:"hold_ttl"`
	PageSize int           `yaml:"page_size"`
}

type EscrowConfig struct {
	DefaultCurrency  string        `yaml:"default_currency"`
	ProposalTTL      time.Duration `yaml:"proposal_ttl"`
	MaxSandboxCredit int64         `yaml:"max_sandbox_credit"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

type SecurityConfig struct {
	APIKey string `yaml:"api_key"`
}

type LoggerConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

func Load() (*Config, error) {
	// .env is optional outside local development.
	_ = godotenv.Load()

	path := os.Getenv("PHARMAPP_CONFIG")
	if path == "" {
		path = "./config.yaml"
	}

	configData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(configData, &config); err != nil {
		return nil, err
	}

	config.applyEnvOverrides()
	config.applyDefaults()

	return &config, nil
}

// applyEnvOverrides lets secrets come from the environment instead of config.yaml.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PHARMAPP_DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("PHARMAPP_JWT_SECRET"); v != "" {
		c.JWT.Secret = v
	}
	if v := os.Getenv("PHARMAPP_API_KEY"); v != "" {
		c.Security.APIKey = v
	}
	if v := os.Getenv("PHARMAPP_MOMO_TOKEN"); v != "" {
		c.Webhooks.MomoToken = v
	}
	if v := os.Getenv("PHARMAPP_ORANGE_TOKEN"); v != "" {
		c.Webhooks.OrangeToken = v
	}
}

func (c *Config) applyDefaults() {
	if c.Escrow.DefaultCurrency == "" {
		c.Escrow.DefaultCurrency = "XAF"
	}
	if c.Escrow.ProposalTTL == 0 {
		c.Escrow.ProposalTTL = 48 * time.Hour
	}
	if c.Escrow.MaxSandboxCredit == 0 {
		c.Escrow.MaxSandboxCredit = 100_000
	}
	if c.Sweeper.Interval == 0 {
		c.Sweeper.Interval = 30 * time.Minute
	}
	if c.Sweeper.HoldTTL == 0 {
		c.Sweeper.HoldTTL = 6 * time.Hour
	}
	if c.Sweeper.PageSize == 0 {
		c.Sweeper.PageSize = 200
	}
	if c.Webhooks.LogRetention == 0 {
		c.Webhooks.LogRetention = 30 * 24 * time.Hour
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 30 * time.Second
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "pharmapp"
	}
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
