package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
)

// Config holds the server configuration.
type Config struct {
	Port      string        `yaml:"port"`
	Store     string        `yaml:"store"`
	LogLevel  string        `yaml:"log_level"`
	Mongo     MongoConfig   `yaml:"mongo"`
	Auth      AuthConfig    `yaml:"auth"`
	MQTT      MQTTConfig    `yaml:"mqtt"`
	RateLimit RateLimit     `yaml:"rate_limit"`
	Timeout   time.Duration `yaml:"request_timeout"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	JWTExpiry time.Duration `yaml:"jwt_expiry"`
}

// MQTTConfig configures stock alert publishing. An empty broker disables it.
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

type RateLimit struct {
	Requests      int  `yaml:"requests"`
	WindowSeconds int  `yaml:"window_seconds"`
	TrustProxy    bool `yaml:"trust_proxy"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:     "8080",
		Store:    StoreMemory,
		LogLevel: "info",
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "logistics",
		},
		Auth: AuthConfig{
			JWTSecret: "default-secret-key-change-in-production",
			JWTExpiry: 24 * time.Hour,
		},
		MQTT: MQTTConfig{
			ClientID:    "logistics-dashboard",
			TopicPrefix: "logistics",
		},
		RateLimit: RateLimit{Requests: 100, WindowSeconds: 60},
		Timeout:   15 * time.Second,
	}
}

// Load builds the configuration from defaults, an optional .env file, an optional
// YAML file and the environment, in increasing precedence. path may be empty, in
// which case CONFIG_FILE is consulted.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) {
	setString(&cfg.Port, "PORT")
	setString(&cfg.Store, "STORE")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.Mongo.URI, "MONGO_URI")
	setString(&cfg.Mongo.Database, "MONGO_DB")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.MQTT.Broker, "MQTT_BROKER")
	setString(&cfg.MQTT.ClientID, "MQTT_CLIENT_ID")
	setString(&cfg.MQTT.TopicPrefix, "MQTT_TOPIC_PREFIX")

	if v := os.Getenv("TRUST_PROXY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.RateLimit.TrustProxy = b
		}
	}
	if v := os.Getenv("JWT_EXPIRY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auth.JWTExpiry = d
		}
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate checks the values Load cannot default.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StoreMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return fmt.Errorf("mongo store needs a uri and a database")
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.Auth.JWTExpiry <= 0 {
		return fmt.Errorf("jwt expiry must be positive")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	return nil
}
