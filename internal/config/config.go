package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "dyndns"

// Policy source kinds.
const (
	PolicySourceFile = "file"
	PolicySourceS3   = "s3"
)

// LambdaProvider is the DNS provider LoadLambda selects when none is set.
const LambdaProvider = "route53"

// Config is the process configuration, read from DYNDNS_* environment
// variables. Every variable can also be given without the prefix, so the
// S3_REGION, S3_BUCKET and S3_KEY names of existing deployments keep working.
type Config struct {
	Listen            string `envconfig:"LISTEN" default:":8080"`
	TrustForwardedFor bool   `envconfig:"TRUST_FORWARDED_FOR" default:"false"`

	// PolicySource is "file" or "s3". When empty it is "s3" if S3Bucket is
	// set and "file" otherwise.
	PolicySource   string        `envconfig:"POLICY_SOURCE"`
	PolicyPath     string        `envconfig:"POLICY_PATH" default:"configs/dyndns.json"`
	S3Region       string        `envconfig:"S3_REGION" default:"us-west-1"`
	S3Bucket       string        `envconfig:"S3_BUCKET"`
	S3Key          string        `envconfig:"S3_KEY" default:"dyndns/dyndns.json"`
	PolicyCacheTTL time.Duration `envconfig:"POLICY_CACHE_TTL" default:"0s"`

	// Provider, when set, selects a DNS provider by name with no file
	// settings. Otherwise ProviderConfigPath is loaded.
	Provider           string `envconfig:"PROVIDER"`
	ProviderConfigPath string `envconfig:"PROVIDER_CONFIG" default:"configs/dns-provider.yaml"`

	RetryAttempts  int           `envconfig:"RETRY_ATTEMPTS" default:"1"`
	RetryBaseDelay time.Duration `envconfig:"RETRY_BASE_DELAY" default:"200ms"`
}

// Load reads Config from the environment and validates it.
func Load() (*Config, error) {
	return load(func(*Config) {})
}

// LoadLambda reads Config for the API Gateway deployment. The policy comes
// from S3 unless POLICY_SOURCE says otherwise, and the provider defaults to
// route53, so a missing S3_BUCKET is a configuration error.
func LoadLambda() (*Config, error) {
	return load(func(c *Config) {
		if c.PolicySource == "" {
			c.PolicySource = PolicySourceS3
		}
		if c.Provider == "" {
			c.Provider = LambdaProvider
		}
	})
}

func load(defaults func(*Config)) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	defaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fills derived defaults and rejects inconsistent settings.
func (c *Config) Validate() error {
	if c.PolicySource == "" {
		c.PolicySource = PolicySourceFile
		if c.S3Bucket != "" {
			c.PolicySource = PolicySourceS3
		}
	}
	switch c.PolicySource {
	case PolicySourceFile:
		if c.PolicyPath == "" {
			return fmt.Errorf("config: policy source 'file' needs POLICY_PATH")
		}
	case PolicySourceS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("config: policy source 's3' needs S3_BUCKET")
		}
		if c.S3Key == "" {
			return fmt.Errorf("config: policy source 's3' needs S3_KEY")
		}
	default:
		return fmt.Errorf("config: unknown policy source %q", c.PolicySource)
	}
	if c.PolicyCacheTTL < 0 {
		return fmt.Errorf("config: negative POLICY_CACHE_TTL %s", c.PolicyCacheTTL)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("config: RETRY_ATTEMPTS must be at least 1, got %d", c.RetryAttempts)
	}
	return nil
}
