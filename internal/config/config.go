package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rewired-gh/usercube/internal/models"
)

// Config represents the complete application configuration
type Config struct {
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Source   SourceConfig   `mapstructure:"source"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DatasetConfig describes the input and how it is laid out on the cube axes
type DatasetConfig struct {
	Name              string            `mapstructure:"name"`
	Source            string            `mapstructure:"source"`
	Categories        []string          `mapstructure:"categories"`
	CategoryLabels    map[string]string `mapstructure:"category_labels"`
	PageSize          int               `mapstructure:"page_size"`
	PreferredCategory string            `mapstructure:"preferred_category"`
	EntityField       string            `mapstructure:"entity_field"`
	TimeField         string            `mapstructure:"time_field"`
	CategoryField     string            `mapstructure:"category_field"`
	DurationField     string            `mapstructure:"duration_field"`
}

// SourceConfig holds remote fetch configuration
type SourceConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds storage and persistence configuration
type StorageConfig struct {
	DBPath      string `mapstructure:"db_path"`
	MaxDatasets int    `mapstructure:"max_datasets"`
}

// ServerConfig holds HTTP API configuration
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// WatchConfig controls reloading a file-backed dataset on change
type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
// An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("USERCUBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Dataset defaults
	v.SetDefault("dataset.name", "sessions")
	v.SetDefault("dataset.source", "sample")
	v.SetDefault("dataset.categories", []string{"music", "news", "search", "podcast", "video"})
	v.SetDefault("dataset.category_labels", map[string]string{
		"music":   "Music",
		"news":    "News",
		"search":  "Search",
		"podcast": "Podcast",
		"video":   "Video",
	})
	v.SetDefault("dataset.page_size", 8)
	v.SetDefault("dataset.preferred_category", "video")
	v.SetDefault("dataset.entity_field", "user_id")
	v.SetDefault("dataset.time_field", "hour")
	v.SetDefault("dataset.category_field", "content_type")
	v.SetDefault("dataset.duration_field", "session_minutes")

	// Source defaults
	v.SetDefault("source.timeout", "30s")
	v.SetDefault("source.max_retries", 3)
	v.SetDefault("source.retry_delay_base", "1s")

	// Storage defaults
	v.SetDefault("storage.db_path", "./data/usercube.db")
	v.SetDefault("storage.max_datasets", 20)

	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")

	// Watch defaults
	v.SetDefault("watch.enabled", false)
	v.SetDefault("watch.debounce", "500ms")

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Dataset config
	if c.Dataset.Name == "" {
		return fmt.Errorf("dataset.name is required")
	}
	if len(c.Dataset.Categories) == 0 {
		return fmt.Errorf("dataset.categories must contain at least one category")
	}
	seen := make(map[string]bool, len(c.Dataset.Categories))
	for _, category := range c.Dataset.Categories {
		if category == "" {
			return fmt.Errorf("dataset.categories must not contain empty names")
		}
		if strings.Contains(category, models.CellIDSeparator) {
			return fmt.Errorf("dataset.categories must not contain %q: %q", models.CellIDSeparator, category)
		}
		if seen[category] {
			return fmt.Errorf("dataset.categories contains duplicate %q", category)
		}
		seen[category] = true
	}
	if c.Dataset.PageSize < 1 {
		return fmt.Errorf("dataset.page_size must be at least 1")
	}
	if c.Dataset.EntityField == "" || c.Dataset.CategoryField == "" || c.Dataset.DurationField == "" {
		return fmt.Errorf("dataset entity, category and duration fields are required")
	}
	if c.Dataset.EntityField == c.Dataset.CategoryField {
		return fmt.Errorf("dataset.entity_field and dataset.category_field must differ")
	}

	// Validate Source config
	if c.Source.Timeout < time.Second {
		return fmt.Errorf("source.timeout must be at least 1 second")
	}
	if c.Source.MaxRetries < 1 {
		return fmt.Errorf("source.max_retries must be at least 1")
	}

	// Validate Storage config
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}
	if c.Storage.MaxDatasets < 1 {
		return fmt.Errorf("storage.max_datasets must be at least 1")
	}

	// Validate Server config
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	// Validate Watch config
	if c.Watch.Enabled && c.Watch.Debounce <= 0 {
		return fmt.Errorf("watch.debounce must be positive when watch is enabled")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// GetDatasetConfig returns the Dataset configuration
func (c *Config) GetDatasetConfig() DatasetConfig {
	return c.Dataset
}

// GetSourceConfig returns the Source configuration
func (c *Config) GetSourceConfig() SourceConfig {
	return c.Source
}

// GetStorageConfig returns the Storage configuration
func (c *Config) GetStorageConfig() StorageConfig {
	return c.Storage
}

// GetServerConfig returns the Server configuration
func (c *Config) GetServerConfig() ServerConfig {
	return c.Server
}

// GetTelegramConfig returns the Telegram configuration
func (c *Config) GetTelegramConfig() TelegramConfig {
	return c.Telegram
}

// GetLoggingConfig returns the Logging configuration
func (c *Config) GetLoggingConfig() LoggingConfig {
	return c.Logging
}
