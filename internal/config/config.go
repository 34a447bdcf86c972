package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the qbtctl configuration.
type Config struct {
	Connection ConnectionConfig  `mapstructure:"connection"`
	Logging    LoggingConfig     `mapstructure:"logging"`
	Presets    map[string]string `mapstructure:"presets"`
}

// ConnectionConfig describes how to reach the qBittorrent Web UI.
type ConnectionConfig struct {
	Host        string        `mapstructure:"host"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	Timeout     time.Duration `mapstructure:"timeout"`
	VerifyCert  bool          `mapstructure:"verify_cert"`
	ForceScheme bool          `mapstructure:"force_scheme"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// Load loads the configuration from file. An absent config file is not an
// error: connection settings can come entirely from flags or environment
// variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".qbtctl"))
		}
		v.AddConfigPath("/etc/qbtctl/")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
		if configPath != "" {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("connection.host", "http://localhost:8080")
	v.SetDefault("connection.timeout", 15*time.Second)
	v.SetDefault("connection.verify_cert", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
