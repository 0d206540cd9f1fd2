// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TALLY_LOG_LEVEL.
const EnvPrefix = "TALLY"

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	// Home roots the cache and conf directories. Empty means per-user OS dirs.
	Home string `mapstructure:"home" yaml:"home"`

	Ingest struct {
		IsolateFailures bool     `mapstructure:"isolate_failures" yaml:"isolate_failures"`
		RuleExtensions  []string `mapstructure:"rule_extensions" yaml:"rule_extensions"`
	} `mapstructure:"ingest" yaml:"ingest"`

	Export struct {
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	} `mapstructure:"export" yaml:"export"`

	Cache struct {
		File string `mapstructure:"file" yaml:"file"`
	} `mapstructure:"cache" yaml:"cache"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading:
// defaults, then config.yaml from the search paths, then TALLY_* variables.
// With no search paths it looks in $TALLY_HOME, $HOME/.tally and the working
// directory.
func InitializeConfig(searchPaths ...string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(searchPaths) == 0 {
		searchPaths = []string{"$TALLY_HOME", "$HOME/.tally", "."}
	}
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}

	// 3. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration with only defaults applied.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	// defaults always decode
	_ = v.Unmarshal(&config)
	return &config
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("home", "")

	// Ingest defaults
	v.SetDefault("ingest.isolate_failures", false)
	v.SetDefault("ingest.rule_extensions", []string{".yaml", ".yml"})

	v.SetDefault("export.delimiter", ",")

	v.SetDefault("cache.file", "frame.gob")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	// Validate log level
	if _, err := logrus.ParseLevel(strings.ToLower(config.Log.Level)); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	// Validate log format
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	// Validate export delimiter
	if len([]rune(config.Export.Delimiter)) != 1 {
		return fmt.Errorf("export delimiter must be a single character, got: %q", config.Export.Delimiter)
	}

	if len(config.Ingest.RuleExtensions) == 0 {
		return fmt.Errorf("ingest.rule_extensions must not be empty")
	}
	for i, ext := range config.Ingest.RuleExtensions {
		if !strings.HasPrefix(ext, ".") {
			config.Ingest.RuleExtensions[i] = "." + ext
		}
	}

	if config.Cache.File == "" || strings.ContainsAny(config.Cache.File, `/\`) {
		return fmt.Errorf("cache.file must be a plain file name, got: %q", config.Cache.File)
	}

	return nil
}
