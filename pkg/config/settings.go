package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Publish mode selects how the publisher sequences broker dispatch against
// the outbox write. "direct" dispatches first and records after; "staged"
// records a pending row and leaves dispatch to the relay.
const (
	PublishModeDirect = "direct"
	PublishModeStaged = "staged"
)

type Settings struct {
	Database      DbSettings     `mapstructure:"database"`
	Broker        BrokerSettings `mapstructure:"broker"`
	PublishMode   string         `mapstructure:"publish_mode" validate:"omitempty,oneof=direct staged"`
	PollInterval  time.Duration  `mapstructure:"poll_interval"`
	BatchSize     int            `mapstructure:"batch_size"`
	Observability Observability  `mapstructure:"observability"`
}

// Mode returns the configured publish mode, defaulting to direct.
func (c *Settings) Mode() string {
	if c.PublishMode == "" {
		return PublishModeDirect
	}
	return c.PublishMode
}

// DispatchTimeout returns the per-dispatch deadline, defaulting to 10s.
func (c *Settings) DispatchTimeout() time.Duration {
	if c.Broker.Timeout <= 0 {
		return 10 * time.Second
	}
	return c.Broker.Timeout
}

func (c *Settings) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

func LoadFromFile(filePath string) (*Settings, error) {

	env := getEnvWithDefaultLookup("ENVIRONMENT", "development")

	cfg := &Settings{}
	viper.SetConfigType("yaml")
	viper.SetConfigName("dispatch")
	viper.AddConfigPath(filePath) // path to config
	viper.AddConfigPath(".")      // current directory

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("No config file found or read error: %v (will rely on env)", err)
	}

	err := mergeConfig(filePath, "dispatch."+env)
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("Error merging %s config: %s\n", env, err)
			os.Exit(1)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Settings) LoadFromEnv() error {
	viper.AutomaticEnv()
	viper.SetEnvPrefix("DISPATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // env vars like DISPATCH_DATABASE_TYPE

	// Bind environment variables explicitly to ensure they map correctly
	viper.BindEnv("database.type")
	viper.BindEnv("database.dsn")
	viper.BindEnv("database.uri")
	viper.BindEnv("database.dbname")
	viper.BindEnv("broker.type")
	viper.BindEnv("broker.url")
	viper.BindEnv("broker.exchange")
	viper.BindEnv("broker.project_id")
	viper.BindEnv("broker.stream")
	viper.BindEnv("broker.timeout")
	viper.BindEnv("publish_mode")
	viper.BindEnv("poll_interval")
	viper.BindEnv("batch_size")
	viper.BindEnv("observability.enabled")
	viper.BindEnv("observability.service_name")
	viper.BindEnv("observability.tracing_url")

	if err := viper.Unmarshal(&c); err != nil {
		return err
	}
	return nil
}

func mergeConfig(path string, name string) error {
	viper.SetConfigName(name)
	viper.AddConfigPath(path)
	err := viper.MergeInConfig()
	if err != nil {
		return err
	}
	return nil
}

func getEnvWithDefaultLookup(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}
