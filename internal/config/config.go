package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers understood by db.Open.
const (
	StorageFirestore = "firestore"
	StorageMemory    = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	Port      string `mapstructure:"PORT"`
	GinMode   string `mapstructure:"GIN_MODE"`
	ClientURL string `mapstructure:"CLIENT_URL"`

	StorageDriver                    string `mapstructure:"STORAGE_DRIVER"`
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`

	JWTSecret           string        `mapstructure:"JWT_SECRET"`
	JWTIssuer           string        `mapstructure:"JWT_ISSUER"`
	JWTTTL              time.Duration `mapstructure:"JWT_TTL"`
	AuthFirebaseEnabled bool          `mapstructure:"AUTH_FIREBASE_ENABLED"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	AMQPURL   string `mapstructure:"AMQP_URL"`
	AMQPQueue string `mapstructure:"AMQP_QUEUE"`

	MetricsEnabled bool `mapstructure:"METRICS_ENABLED"`

	ConsumerDefaultPassword string `mapstructure:"CONSUMER_DEFAULT_PASSWORD"`
	ConsumerDefaultAddress  string `mapstructure:"CONSUMER_DEFAULT_ADDRESS"`

	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`
}

var keys = []string{
	"PORT", "GIN_MODE", "CLIENT_URL",
	"STORAGE_DRIVER", "FIREBASE_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS", "FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"JWT_SECRET", "JWT_ISSUER", "JWT_TTL", "AUTH_FIREBASE_ENABLED",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"AMQP_URL", "AMQP_QUEUE",
	"METRICS_ENABLED",
	"CONSUMER_DEFAULT_PASSWORD", "CONSUMER_DEFAULT_ADDRESS",
	"ADMIN_EMAIL", "ADMIN_PASSWORD",
}

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("CLIENT_URL", "http://localhost:8081")
	v.SetDefault("STORAGE_DRIVER", StorageFirestore)
	v.SetDefault("JWT_ISSUER", "dairy-backend")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("AUTH_FIREBASE_ENABLED", false)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("AMQP_QUEUE", "dairy.events")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("CONSUMER_DEFAULT_PASSWORD", "default123")
	v.SetDefault("CONSUMER_DEFAULT_ADDRESS", "Default Address")
	v.SetDefault("ADMIN_EMAIL", "admin@example.com")
	v.SetDefault("ADMIN_PASSWORD", "adminpassword")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and combinations.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be a positive duration")
	}
	switch c.StorageDriver {
	case StorageFirestore, StorageMemory:
	default:
		return errors.New("STORAGE_DRIVER must be one of: firestore, memory")
	}
	if c.NeedsFirebase() && c.FirebaseProjectID == "" {
		return errors.New("FIREBASE_PROJECT_ID is required when using Firestore storage or Firebase auth")
	}
	return nil
}

// NeedsFirebase reports whether the Firebase Admin SDK has to be initialized.
func (c *Config) NeedsFirebase() bool {
	return c.StorageDriver == StorageFirestore || c.AuthFirebaseEnabled
}

// IsRelease reports whether gin should run in release mode.
func (c *Config) IsRelease() bool {
	return strings.EqualFold(c.GinMode, "release")
}
