package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"
)

const appName = "course-llm"

// Environment variables holding the provider credentials.
const (
	OpenAIKeyEnv    = "OPENAI_API_KEY"
	AnthropicKeyEnv = "ANTHROPIC_API_KEY"
)

type Config struct {
	Listen         string         `mapstructure:"listen" yaml:"listen"`
	LogLevel       string         `mapstructure:"log_level" yaml:"log_level"`
	KnowledgeFile  string         `mapstructure:"knowledge_file" yaml:"knowledge_file,omitempty"`
	SecretsFile    string         `mapstructure:"secrets_file" yaml:"secrets_file,omitempty"`
	EnvFile        string         `mapstructure:"env_file" yaml:"env_file,omitempty"`
	RequestTimeout time.Duration  `mapstructure:"request_timeout" yaml:"request_timeout"`
	OpenAI         ProviderConfig `mapstructure:"openai" yaml:"openai"`
	Anthropic      ProviderConfig `mapstructure:"anthropic" yaml:"anthropic"`
}

// ProviderConfig holds the static generation settings of one provider.
// APIKey is filled from the environment or the secret store during Load.
type ProviderConfig struct {
	APIKey      string  `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Model       string  `mapstructure:"model" yaml:"model"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url,omitempty"`
}

// Provider returns the settings for the named provider ("openai" or "anthropic").
func (c *Config) Provider(name string) (ProviderConfig, bool) {
	switch name {
	case "openai":
		return c.OpenAI, true
	case "anthropic":
		return c.Anthropic, true
	default:
		return ProviderConfig{}, false
	}
}

// LoadOptions tweaks where Load looks for its inputs. The zero value uses
// the working directory and the user config directory.
type LoadOptions struct {
	// ConfigFile, if set, is read instead of searching for config.yaml.
	ConfigFile string
	// SearchPaths overrides the directories searched for config.yaml.
	SearchPaths []string
	Logger      *slog.Logger
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("COURSE_LLM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		paths := opts.SearchPaths
		if paths == nil {
			paths = defaultSearchPaths()
		}
		for _, p := range paths {
			v.AddConfigPath(p)
		}
	}

	// Read config file (optional - won't error if missing)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || opts.ConfigFile != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		logger.Debug("loaded config", "path", v.ConfigFileUsed())
	}

	// The env file may carry COURSE_LLM_* overrides, so load it before
	// unmarshalling.
	loadEnvFile(v.GetString("env_file"), logger)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	secrets := openSecrets(cfg.SecretsFile, logger)
	cfg.OpenAI.APIKey = lookupCredential(OpenAIKeyEnv, cfg.OpenAI.APIKey, secrets, logger)
	cfg.Anthropic.APIKey = lookupCredential(AnthropicKeyEnv, cfg.Anthropic.APIKey, secrets, logger)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "127.0.0.1:8501")
	v.SetDefault("log_level", "info")
	v.SetDefault("knowledge_file", "")
	v.SetDefault("secrets_file", "")
	v.SetDefault("env_file", ".env")
	v.SetDefault("request_timeout", time.Duration(0))

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model", "gpt-3.5-turbo")
	v.SetDefault("openai.max_tokens", 500)
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.base_url", "")

	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-3-haiku-20240307")
	v.SetDefault("anthropic.max_tokens", 500)
	v.SetDefault("anthropic.temperature", 0.7)
	v.SetDefault("anthropic.base_url", "")
}

// Defaults returns a Config populated only with default values.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func defaultSearchPaths() []string {
	paths := []string{"."}
	if dir, err := configDir(); err == nil {
		paths = append(paths, dir)
	}
	return paths
}

// loadEnvFile reads a dotenv file if present. Variables already set in the
// process environment win.
func loadEnvFile(path string, logger *slog.Logger) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := gotenv.Load(path); err != nil {
		logger.Warn("failed to load env file", "path", path, "error", err)
		return
	}
	logger.Debug("loaded env file", "path", path)
}

// lookupCredential resolves an API key: process environment first, then
// the config file value, then the secret store.
func lookupCredential(envName, configured string, secrets *SecretStore, logger *slog.Logger) string {
	if v := strings.TrimSpace(os.Getenv(envName)); v != "" {
		return v
	}
	if configured != "" {
		resolved, err := ResolveValue(configured)
		if err != nil {
			logger.Warn("failed to resolve configured credential", "name", envName, "error", err)
		} else if resolved != "" {
			return resolved
		}
	}
	if secrets != nil {
		v, err := secrets.Lookup(envName)
		if err != nil {
			logger.Debug("secret store lookup failed", "name", envName, "error", err)
			return ""
		}
		return v
	}
	return ""
}

func configDir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		dir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("failed to get config dir: %w", err)
		}
	}
	return filepath.Join(dir, appName), nil
}

// GetConfigPath returns the path where the config file should be located
func GetConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Redacted returns a copy of cfg safe to print: API keys are masked.
func (c *Config) Redacted() *Config {
	out := *c
	out.OpenAI.APIKey = maskKey(c.OpenAI.APIKey)
	out.Anthropic.APIKey = maskKey(c.Anthropic.APIKey)
	return &out
}

func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// Marshal renders the config as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// Save writes the config to path, creating parent directories. API keys are
// never written; they belong in the environment or the secret store.
func Save(cfg *Config, path string) error {
	out := *cfg
	out.OpenAI.APIKey = ""
	out.Anthropic.APIKey = ""

	data, err := Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	header := "# course-llm configuration\n# API keys are read from OPENAI_API_KEY / ANTHROPIC_API_KEY or the secrets file.\n"
	return os.WriteFile(path, append([]byte(header), data...), 0600)
}
