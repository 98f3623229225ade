// Package config provides Viper-based hierarchical configuration management.
// The configuration is built once at process start and passed by reference to
// every component that needs it; there is no process-wide mutable state.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Import struct {
		MaxFileSizeMB int `mapstructure:"max_file_size_mb" yaml:"max_file_size_mb"`
	} `mapstructure:"import" yaml:"import"`

	AI struct {
		Enabled          bool   `mapstructure:"enabled" yaml:"enabled"`
		Model            string `mapstructure:"model" yaml:"model"`
		TimeoutSeconds   int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		FallbackCategory string `mapstructure:"fallback_category" yaml:"fallback_category"`
		APIKey           string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"ai" yaml:"ai"`

	Push struct {
		Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
		Endpoint       string `mapstructure:"endpoint" yaml:"endpoint"`
		AccessToken    string `mapstructure:"access_token" yaml:"-"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	} `mapstructure:"push" yaml:"push"`

	Worker struct {
		BufferSize     int `mapstructure:"buffer_size" yaml:"buffer_size"`
		Workers        int `mapstructure:"workers" yaml:"workers"`
		MaxAttempts    int `mapstructure:"max_attempts" yaml:"max_attempts"`
		BackoffSeconds int `mapstructure:"backoff_seconds" yaml:"backoff_seconds"`
	} `mapstructure:"worker" yaml:"worker"`

	Categorization struct {
		CategoriesFile string `mapstructure:"categories_file" yaml:"categories_file"`
	} `mapstructure:"categorization" yaml:"categorization"`
}

// MaxFileSizeBytes returns the import size cap in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.Import.MaxFileSizeMB) * 1024 * 1024
}

// LoadEnv loads environment variables from a .env file if one exists.
// Missing files are not an error.
func LoadEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}

// InitializeConfig initializes Viper configuration with hierarchical loading:
// defaults, then an optional config file, then BUDGETFLOW_* environment
// variables.
func InitializeConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.budgetflow")
	v.AddConfigPath(".budgetflow")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BUDGETFLOW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Log the error but don't fail - continue with defaults and env vars
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// API keys always come from unprefixed env vars
	if err := v.BindEnv("ai.api_key", "GEMINI_API_KEY"); err != nil {
		fmt.Printf("Warning: failed to bind GEMINI_API_KEY environment variable: %v\n", err)
	}
	if err := v.BindEnv("push.access_token", "EXPO_ACCESS_TOKEN"); err != nil {
		fmt.Printf("Warning: failed to bind EXPO_ACCESS_TOKEN environment variable: %v\n", err)
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

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("import.max_file_size_mb", 5)

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout_seconds", 30)
	v.SetDefault("ai.fallback_category", "")

	v.SetDefault("push.enabled", true)
	v.SetDefault("push.endpoint", "https://exp.host/--/api/v2/push/send")
	v.SetDefault("push.timeout_seconds", 10)

	v.SetDefault("worker.buffer_size", 64)
	v.SetDefault("worker.workers", 4)
	v.SetDefault("worker.max_attempts", 3)
	v.SetDefault("worker.backoff_seconds", 30)

	v.SetDefault("categorization.categories_file", "categories.yaml")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.Import.MaxFileSizeMB < 1 || config.Import.MaxFileSizeMB > 100 {
		return fmt.Errorf("import.max_file_size_mb must be between 1 and 100, got: %d", config.Import.MaxFileSizeMB)
	}

	if config.AI.Enabled {
		if config.AI.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY required when AI is enabled")
		}
		if config.AI.TimeoutSeconds < 1 || config.AI.TimeoutSeconds > 300 {
			return fmt.Errorf("ai.timeout_seconds must be between 1 and 300, got: %d", config.AI.TimeoutSeconds)
		}
	}

	if config.Push.Enabled && config.Push.Endpoint == "" {
		return fmt.Errorf("push.endpoint required when push is enabled")
	}

	if config.Worker.MaxAttempts < 1 || config.Worker.MaxAttempts > 10 {
		return fmt.Errorf("worker.max_attempts must be between 1 and 10, got: %d", config.Worker.MaxAttempts)
	}
	if config.Worker.Workers < 1 {
		return fmt.Errorf("worker.workers must be at least 1, got: %d", config.Worker.Workers)
	}

	return nil
}

// ConfigureLoggingFromConfig configures a logrus logger based on the Config.
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
