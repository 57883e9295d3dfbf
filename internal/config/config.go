// Package config loads FragMind settings from defaults, an optional
// fragmind.yaml file and FRAGMIND_* environment variables.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	apperrors "github.com/kimhsiao/fragmind/internal/errors"
	"github.com/kimhsiao/fragmind/internal/models"
)

const (
	// EnvPrefix prefixes every environment override, e.g. FRAGMIND_LOG_LEVEL.
	EnvPrefix = "FRAGMIND"
	// FileName is the config file name without extension.
	FileName = "fragmind"
	// DefaultDataDir holds the database and exports unless overridden.
	DefaultDataDir = "~/.fragmind"
)

// Config is the resolved application configuration.
type Config struct {
	DataDir   string        `mapstructure:"data_dir" validate:"required"`
	MachineID string        `mapstructure:"machine_id"`
	Log       LogConfig     `mapstructure:"log"`
	AI        AIConfig      `mapstructure:"ai"`
	Summary   SummaryConfig `mapstructure:"summary"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
	File   string `mapstructure:"file"`
}

// AIConfig holds settings for the external text service. Values stored in
// the database take precedence over these.
type AIConfig struct {
	Provider    string        `mapstructure:"provider" validate:"omitempty,oneof=deepseek openai claude ollama"`
	APIEndpoint string        `mapstructure:"api_endpoint" validate:"omitempty,url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens" validate:"gte=0,lte=32000"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// SummaryConfig holds summary preferences.
type SummaryConfig struct {
	StylePrompt string `mapstructure:"style_prompt"`
}

// LoadOptions adjusts where configuration is read from.
type LoadOptions struct {
	// ConfigFile is an explicit file path; it must exist when set.
	ConfigFile string
	// Overrides are applied last, e.g. from command-line flags.
	Overrides map[string]interface{}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", DefaultDataDir)
	v.SetDefault("machine_id", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("ai.provider", "deepseek")
	v.SetDefault("ai.api_endpoint", "")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.max_tokens", 0)
	v.SetDefault("ai.timeout", "30s")
	v.SetDefault("summary.style_prompt", "")
}

// Load resolves the configuration.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The provider's conventional variable works as well.
	if err := v.BindEnv("ai.api_key", EnvPrefix+"_AI_API_KEY", "DEEPSEEK_API_KEY"); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, "bind environment", err)
	}

	if opts.ConfigFile != "" {
		path, err := homedir.Expand(opts.ConfigFile)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrValidation, "expand config path", err)
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		if override := os.Getenv(EnvPrefix + "_CONFIG_PATH"); override != "" {
			v.AddConfigPath(override)
		}
		v.AddConfigPath(".")
		if dir, err := homedir.Expand(v.GetString("data_dir")); err == nil {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, apperrors.Wrap(apperrors.ErrValidation, "read config file", err)
		}
	}

	for key, val := range opts.Overrides {
		v.Set(key, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrValidation, "decode config", err)
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) expandPaths() error {
	var err error
	if c.DataDir, err = homedir.Expand(c.DataDir); err != nil {
		return apperrors.Wrap(apperrors.ErrValidation, "expand data_dir", err)
	}
	if c.Log.File, err = homedir.Expand(c.Log.File); err != nil {
		return apperrors.Wrap(apperrors.ErrValidation, "expand log.file", err)
	}
	return nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := models.Validate(c); err != nil {
		return apperrors.Wrap(apperrors.ErrValidation, "invalid configuration", err)
	}
	return nil
}
