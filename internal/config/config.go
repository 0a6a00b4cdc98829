package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DefaultConfigName is the base name of the config file looked up by LoadConfig.
const DefaultConfigName = "config"

// EnvPrefix prefixes environment overrides, e.g. FUNCCOV_CONFIG_LOG_LEVEL.
const EnvPrefix = "FUNCCOV"

// ServeConfig holds settings for the HTTP report viewer.
type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

// Config holds the tool settings found under the top-level "config" key.
// Every field may be overridden by a command line flag.
type Config struct {
	LogLevel       string      `mapstructure:"log_level"`
	HTMLOutput     string      `mapstructure:"html_output"`
	XUnitOutput    string      `mapstructure:"xunit_output"`
	MarkdownOutput string      `mapstructure:"markdown_output"`
	SummaryOutput  string      `mapstructure:"summary_output"`
	Serve          ServeConfig `mapstructure:"serve"`
}

type configFile struct {
	Config Config `mapstructure:"config"`
}

func newViper(configName string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath("configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs")
	return v
}

// LoadConfig loads configs/<configName>.yaml. A missing file is not an error:
// defaults and FUNCCOV_* environment variables still apply.
func LoadConfig(configName string) (*Config, error) {
	if configName == "" {
		configName = DefaultConfigName
	}

	v := newViper(configName)
	v.SetDefault("config.log_level", "info")
	v.SetDefault("config.html_output", "")
	v.SetDefault("config.xunit_output", "")
	v.SetDefault("config.markdown_output", "")
	v.SetDefault("config.summary_output", "")
	v.SetDefault("config.serve.addr", "127.0.0.1:8080")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var file configFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
	}

	return &file.Config, nil
}
