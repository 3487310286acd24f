package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	lqerrors "github.com/iishyfishyy/learnq/internal/errors"
)

const (
	ConfigDirName  = ".learnq"
	ConfigFileName = "config.yaml"
	EnvPrefix      = "LEARNQ"
)

// Provider selects the LLM backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderClaude Provider = "claude-code"
)

// Config represents the application configuration.
type Config struct {
	LMS     LMSConfig     `mapstructure:"lms" yaml:"lms"`
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	History HistoryConfig `mapstructure:"history" yaml:"history"`
	Report  ReportConfig  `mapstructure:"report" yaml:"report"`
}

// LMSConfig points at the learning management system API.
type LMSConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	APIKey  string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// LLMConfig configures the chat completion backend.
type LLMConfig struct {
	Provider          Provider      `mapstructure:"provider" yaml:"provider"`
	Endpoint          string        `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey            string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Model             string        `mapstructure:"model" yaml:"model"`
	Temperature       float64       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens         int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	BreakerFailures   int           `mapstructure:"breaker_failures" yaml:"breaker_failures"`
	BreakerCooldown   time.Duration `mapstructure:"breaker_cooldown" yaml:"breaker_cooldown"`
}

// LogConfig configures the log file.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	Dir   string `mapstructure:"dir" yaml:"dir"`
}

// HistoryConfig configures the query history database.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// ReportConfig tunes report output.
type ReportConfig struct {
	DailyDays int `mapstructure:"daily_days" yaml:"daily_days"`
}

// GetConfigDir returns the path to the config directory.
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ConfigDirName), nil
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, ConfigFileName), nil
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("lms.base_url", "https://api.innform.io/v1/")
	v.SetDefault("lms.timeout", 30*time.Second)

	v.SetDefault("llm.provider", string(ProviderOpenAI))
	v.SetDefault("llm.endpoint", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 300)
	v.SetDefault("llm.timeout", 30*time.Second)
	v.SetDefault("llm.requests_per_minute", 60)
	v.SetDefault("llm.breaker_failures", 3)
	v.SetDefault("llm.breaker_cooldown", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", filepath.Join(dir, "logs"))

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", filepath.Join(dir, "history.db"))

	v.SetDefault("report.daily_days", 7)
}

// Load reads configuration from the config file, a .env file in the working
// directory, and the environment. An empty path means ~/.learnq/config.yaml;
// a missing default file is not an error.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	dir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, dir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Variable names used by earlier versions of the tool
	_ = v.BindEnv("lms.api_key", EnvPrefix+"_LMS_API_KEY", "INNFORM_API_KEY")
	_ = v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "OPENAI_API_KEY")

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(dir)
		v.SetConfigName(strings.TrimSuffix(ConfigFileName, filepath.Ext(ConfigFileName)))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, lqerrors.NewConfigInvalidError("failed to read config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, lqerrors.NewConfigInvalidError("failed to parse config", err)
	}

	return &cfg, nil
}

// Validate checks that the values needed to talk to the LMS and the model are set.
func (c *Config) Validate() error {
	if err := c.ValidateLMS(); err != nil {
		return err
	}
	return c.ValidateLLM()
}

// ValidateLMS checks only the LMS settings, for commands that never call the model.
func (c *Config) ValidateLMS() error {
	if c.LMS.BaseURL == "" {
		return lqerrors.NewConfigMissingError("lms.base_url", EnvPrefix+"_LMS_BASE_URL")
	}
	if c.LMS.APIKey == "" {
		return lqerrors.NewConfigMissingError("lms.api_key", "INNFORM_API_KEY")
	}
	if c.LMS.Timeout <= 0 {
		return lqerrors.NewConfigInvalidError("lms.timeout must be > 0", nil)
	}
	return nil
}

// ValidateLLM checks the model settings.
func (c *Config) ValidateLLM() error {
	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.LLM.APIKey == "" {
			return lqerrors.NewConfigMissingError("llm.api_key", "OPENAI_API_KEY")
		}
		if c.LLM.Endpoint == "" {
			return lqerrors.NewConfigMissingError("llm.endpoint", EnvPrefix+"_LLM_ENDPOINT")
		}
	case ProviderClaude:
	default:
		return lqerrors.NewConfigInvalidError(fmt.Sprintf("unknown llm.provider %q", c.LLM.Provider), nil)
	}
	if c.LLM.Timeout <= 0 {
		return lqerrors.NewConfigInvalidError("llm.timeout must be > 0", nil)
	}
	return nil
}

// Save writes the configuration to path, or to ~/.learnq/config.yaml when
// path is empty.
func Save(cfg *Config, path string) error {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// May hold API keys
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Exists checks if a configuration file exists.
func Exists() (bool, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return false, err
	}

	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}
