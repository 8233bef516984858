// Package config provides Viper-based hierarchical application configuration
// and .env loading. The classification rules live in their own file and are
// handled by the rules package; this package only covers runtime settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Rules struct {
		File string `mapstructure:"file" yaml:"file"`
		Dir  string `mapstructure:"dir" yaml:"dir"`
	} `mapstructure:"rules" yaml:"rules"`

	Output struct {
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"output" yaml:"output"`

	Bot struct {
		Token        string `mapstructure:"token" yaml:"-"` // Never serialize the token
		AllowedUsers string `mapstructure:"allowed_users" yaml:"allowed_users"`
		TempDir      string `mapstructure:"temp_dir" yaml:"temp_dir"`
	} `mapstructure:"bot" yaml:"bot"`
}

var envOnce sync.Once

// LoadEnv loads environment variables from a .env file if one exists in the
// working directory or its parent.
func LoadEnv() {
	envOnce.Do(func() {
		envFile := ".env"
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			envFile = filepath.Join("..", ".env")
			if _, err := os.Stat(envFile); os.IsNotExist(err) {
				return
			}
		}
		_ = godotenv.Load(envFile)
	})
}

// InitializeConfig initializes Viper configuration with hierarchical loading:
// defaults, then an optional config file, then TBANK_-prefixed environment
// variables.
func InitializeConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.tbank-xlsx")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TBANK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Continue with defaults and env vars; a broken config file
			// should not hide the error entirely.
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// The bot token always comes from the environment, unprefixed, matching
	// the deployment convention.
	if err := v.BindEnv("bot.token", "BOT_TOKEN"); err != nil {
		fmt.Printf("Warning: failed to bind BOT_TOKEN environment variable: %v\n", err)
	}
	if err := v.BindEnv("bot.allowed_users", "ALLOWED_USERS"); err != nil {
		fmt.Printf("Warning: failed to bind ALLOWED_USERS environment variable: %v\n", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("rules.file", "rules.yaml")
	v.SetDefault("rules.dir", "rules")

	v.SetDefault("output.format", "xlsx")

	v.SetDefault("bot.allowed_users", "")
	v.SetDefault("bot.temp_dir", "")
}

func validateConfig(config *Config) error {
	switch config.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}
	switch config.Output.Format {
	case "xlsx", "csv":
	default:
		return fmt.Errorf("invalid output format: %s", config.Output.Format)
	}
	return nil
}

// AllowedUserIDs parses the comma-separated allow-list into user IDs. An
// empty list means the bot is open to everyone.
func (c *Config) AllowedUserIDs() []int64 {
	var ids []int64
	for _, part := range strings.Split(c.Bot.AllowedUsers, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
