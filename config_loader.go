package tripagent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tripagent/llm"
	"tripagent/tools"
)

// Config is the top-level structure of config.yaml.
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`

	Agent struct {
		Provider string `yaml:"provider"` // key into the llm section
		MaxHops  int    `yaml:"max_hops"`
	} `yaml:"agent"`

	Checkpoint struct {
		Backend string `yaml:"backend"` // "memory" or "sqlite"
		Path    string `yaml:"path"`
	} `yaml:"checkpoint"`

	LLM map[string]*providerSpec `yaml:"llm"`

	Tools struct {
		WeatherKeyEnv  string `yaml:"weather_api_key_env"`
		SerpAPIKeyEnv  string `yaml:"serpapi_api_key_env"`
		TavilyKeyEnv   string `yaml:"tavily_api_key_env"`
		ExchangeKeyEnv string `yaml:"exchange_api_key_env"`
	} `yaml:"tools"`
}

// providerSpec is one model backend entry. Secrets come through env-var
// indirection so config.yaml stays checkable into version control.
type providerSpec struct {
	llm.ProviderConfig `yaml:",inline"`
	APIKeyEnv          string `yaml:"api_key_env"`
}

// LoadConfig reads and validates config.yaml, resolving secrets from the
// environment.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Message: fmt.Sprintf("read %s: %v", path, err)}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{Message: fmt.Sprintf("parse %s: %v", path, err)}
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Checkpoint.Backend == "" {
		cfg.Checkpoint.Backend = "memory"
	}

	for _, spec := range cfg.LLM {
		if spec.APIKeyEnv != "" {
			spec.APIKey = os.Getenv(spec.APIKeyEnv)
		}
	}

	if cfg.Agent.Provider == "" {
		return nil, &ConfigError{Message: "agent.provider is not set"}
	}
	spec, ok := cfg.LLM[cfg.Agent.Provider]
	if !ok {
		return nil, &ConfigError{Message: fmt.Sprintf("provider %q not found in llm section", cfg.Agent.Provider)}
	}
	if spec.Provider != "ollama" && spec.APIKey == "" {
		return nil, &ConfigError{Message: fmt.Sprintf("provider %q: API key env %s is empty", cfg.Agent.Provider, spec.APIKeyEnv)}
	}

	return &cfg, nil
}

// ProviderConfig returns the resolved configuration for the active model
// provider.
func (c *Config) ProviderConfig() llm.ProviderConfig {
	return c.LLM[c.Agent.Provider].ProviderConfig
}

// ToolKeys returns the process-wide default API keys for the tool suite.
func (c *Config) ToolKeys() tools.Keys {
	return tools.Keys{
		Weather:  os.Getenv(c.Tools.WeatherKeyEnv),
		SerpAPI:  os.Getenv(c.Tools.SerpAPIKeyEnv),
		Tavily:   os.Getenv(c.Tools.TavilyKeyEnv),
		Exchange: os.Getenv(c.Tools.ExchangeKeyEnv),
	}
}
