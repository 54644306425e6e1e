package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// ProviderConfig names the DNS provider and carries its connection settings.
type ProviderConfig struct {
	Provider string            `yaml:"provider"`
	Settings map[string]string `yaml:"settings"`
}

// LoadProviderConfig returns the provider configuration for c: the provider
// named by DYNDNS_PROVIDER with empty settings, or the YAML file at
// ProviderConfigPath.
func (c *Config) LoadProviderConfig() (*ProviderConfig, error) {
	if c.Provider != "" {
		return &ProviderConfig{Provider: c.Provider, Settings: map[string]string{}}, nil
	}
	return LoadProviderConfigFromPath(c.ProviderConfigPath)
}

// LoadProviderConfigFromPath reads the DNS provider configuration from the
// given file path.
func LoadProviderConfigFromPath(path string) (*ProviderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading provider config file: %w", err)
	}

	var cfg ProviderConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing provider config file: %w", err)
	}

	if cfg.Provider == "" {
		return nil, fmt.Errorf("provider config: missing required field 'provider'")
	}

	if cfg.Settings == nil {
		cfg.Settings = map[string]string{}
	}
	// Expand ${ENV_VAR} references in setting values.
	for k, v := range cfg.Settings {
		cfg.Settings[k] = os.ExpandEnv(v)
	}

	return &cfg, nil
}
