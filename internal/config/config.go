package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

const defaultExternalHTTPTimeout = 30 * time.Second
const defaultExternalHTTPTimeoutSeconds = int(defaultExternalHTTPTimeout / time.Second)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderNone      = "none"
)

type Config struct {
	LLMProvider      string `yaml:"llm_provider"`
	LLMModel         string `yaml:"llm_model"`
	LLMMaxTokens     int    `yaml:"llm_max_tokens"`
	AnthropicAPIKey  string `yaml:"anthropic_api_key"`
	AnthropicBaseURL string `yaml:"anthropic_base_url"`
	OpenAIAPIKey     string `yaml:"openai_api_key"`
	OpenAIBaseURL    string `yaml:"openai_base_url"`

	ExternalHTTPTimeoutSeconds int `yaml:"external_http_timeout_seconds"`

	KeywordsPath string `yaml:"triage_keywords_path"`

	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`

	// Path is the config file that was read, empty when none existed.
	Path string `yaml:"-"`
}

// LoadConfig reads the file named by CONFIG_PATH (default config.yaml).
func LoadConfig() (Config, error) {
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	return LoadConfigFrom(configPath)
}

// LoadConfigFrom reads an optional YAML file, applies env overrides and
// defaults, and validates the result. A missing file is not an error.
func LoadConfigFrom(configPath string) (Config, error) {
	var cfg Config

	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "parse %s", configPath)
		}
		cfg.Path = configPath
	} else if !os.IsNotExist(err) {
		return Config{}, errors.Wrapf(err, "read %s", configPath)
	}

	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.AnthropicBaseURL, "ANTHROPIC_BASE_URL")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.OpenAIBaseURL, "OPENAI_BASE_URL")
	envOverride(&cfg.KeywordsPath, "TRIAGE_KEYWORDS_PATH")
	envOverride(&cfg.LogLevel, "LOG_LEVEL")
	envOverrideBool(&cfg.LogJSON, "LOG_JSON")
	if err := envOverrideInt(&cfg.LLMMaxTokens, "LLM_MAX_TOKENS"); err != nil {
		return Config{}, err
	}
	if err := envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS"); err != nil {
		return Config{}, err
	}

	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = ProviderAnthropic
	}
	if cfg.LLMMaxTokens == 0 {
		cfg.LLMMaxTokens = 1024
	}
	if cfg.OpenAIBaseURL == "" {
		cfg.OpenAIBaseURL = "https://api.openai.com/v1"
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = defaultExternalHTTPTimeoutSeconds
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.LLMProvider {
	case ProviderAnthropic, ProviderOpenAI, ProviderNone:
	default:
		return errors.Newf("llm_provider must be 'anthropic', 'openai' or 'none', got '%s'", c.LLMProvider)
	}
	if c.LLMMaxTokens < 1 {
		return errors.Newf("invalid llm_max_tokens '%d': must be >= 1", c.LLMMaxTokens)
	}
	if c.ExternalHTTPTimeoutSeconds < 5 {
		return errors.Newf("invalid external_http_timeout_seconds '%d': must be >= 5", c.ExternalHTTPTimeoutSeconds)
	}
	if c.KeywordsPath != "" {
		if err := validateKeywordsPath(c.KeywordsPath); err != nil {
			return errors.Wrapf(err, "invalid triage_keywords_path '%s'", c.KeywordsPath)
		}
	}
	return nil
}

// APIKey returns the credential for the selected provider.
func (c Config) APIKey() string {
	switch c.LLMProvider {
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	}
	return ""
}

// GenerativeBackendConfigured reports whether a generative call will be
// attempted at all. Without it every ticket goes to the heuristic.
func (c Config) GenerativeBackendConfigured() bool {
	return c.LLMProvider != ProviderNone && c.APIKey() != ""
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return errors.Wrapf(err, "invalid %s '%s'", envKey, val)
		}
		*field = parsed
	}
	return nil
}

func envOverrideBool(field *bool, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = strings.EqualFold(val, "true") || val == "1"
	}
}

func validateKeywordsPath(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read keywords")
	}
	var k struct {
		UrgencyPhrases   []string `yaml:"urgency_phrases"`
		CriticalKeywords []string `yaml:"critical_keywords"`
		HighKeywords     []string `yaml:"high_keywords"`
	}
	if err := yaml.Unmarshal(data, &k); err != nil {
		return errors.Wrap(err, "parse keywords yaml")
	}
	return nil
}
