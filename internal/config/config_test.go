package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Listen != ":8080" {
		t.Errorf("expected listen ':8080', got %q", cfg.Listen)
	}
	if cfg.PolicySource != PolicySourceFile {
		t.Errorf("expected policy source 'file', got %q", cfg.PolicySource)
	}
	if cfg.S3Region != "us-west-1" {
		t.Errorf("expected region 'us-west-1', got %q", cfg.S3Region)
	}
	if cfg.S3Key != "dyndns/dyndns.json" {
		t.Errorf("expected key 'dyndns/dyndns.json', got %q", cfg.S3Key)
	}
	if cfg.RetryAttempts != 1 {
		t.Errorf("expected 1 retry attempt, got %d", cfg.RetryAttempts)
	}
}

func TestLoad_UnprefixedS3Variables(t *testing.T) {
	t.Setenv("S3_BUCKET", "my-bucket")
	t.Setenv("S3_REGION", "eu-central-1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.S3Bucket != "my-bucket" {
		t.Errorf("expected bucket 'my-bucket', got %q", cfg.S3Bucket)
	}
	if cfg.S3Region != "eu-central-1" {
		t.Errorf("expected region 'eu-central-1', got %q", cfg.S3Region)
	}
	if cfg.PolicySource != PolicySourceS3 {
		t.Errorf("expected policy source 's3' when a bucket is set, got %q", cfg.PolicySource)
	}
}

func TestLoad_PrefixedVariables(t *testing.T) {
	t.Setenv("DYNDNS_LISTEN", "127.0.0.1:9000")
	t.Setenv("DYNDNS_POLICY_CACHE_TTL", "30s")
	t.Setenv("DYNDNS_RETRY_ATTEMPTS", "3")
	t.Setenv("DYNDNS_PROVIDER", "route53")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Listen != "127.0.0.1:9000" {
		t.Errorf("expected listen '127.0.0.1:9000', got %q", cfg.Listen)
	}
	if cfg.PolicyCacheTTL != 30*time.Second {
		t.Errorf("expected cache ttl 30s, got %s", cfg.PolicyCacheTTL)
	}
	if cfg.RetryAttempts != 3 {
		t.Errorf("expected 3 retry attempts, got %d", cfg.RetryAttempts)
	}
	if cfg.Provider != "route53" {
		t.Errorf("expected provider 'route53', got %q", cfg.Provider)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{PolicyPath: "configs/dyndns.json", S3Key: "dyndns/dyndns.json", RetryAttempts: 1}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"s3 without bucket", func(c *Config) { c.PolicySource = PolicySourceS3 }, true},
		{"s3 without key", func(c *Config) { c.PolicySource = PolicySourceS3; c.S3Bucket = "b"; c.S3Key = "" }, true},
		{"file without path", func(c *Config) { c.PolicySource = PolicySourceFile; c.PolicyPath = "" }, true},
		{"unknown source", func(c *Config) { c.PolicySource = "consul" }, true},
		{"negative ttl", func(c *Config) { c.PolicyCacheTTL = -time.Second }, true},
		{"zero attempts", func(c *Config) { c.RetryAttempts = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadLambda_MissingBucket(t *testing.T) {
	t.Setenv("S3_REGION", "eu-central-1")

	if _, err := LoadLambda(); err == nil {
		t.Fatal("expected error when S3_BUCKET is unset, got nil")
	}
}

func TestLoadLambda_S3Environment(t *testing.T) {
	t.Setenv("S3_BUCKET", "my-bucket")
	t.Setenv("S3_KEY", "dyndns/dyndns.json")
	t.Setenv("S3_REGION", "eu-central-1")

	cfg, err := LoadLambda()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PolicySource != PolicySourceS3 {
		t.Errorf("expected policy source 's3', got %q", cfg.PolicySource)
	}
	if cfg.Provider != LambdaProvider {
		t.Errorf("expected provider %q, got %q", LambdaProvider, cfg.Provider)
	}

	providerCfg, err := cfg.LoadProviderConfig()
	if err != nil {
		t.Fatalf("LoadProviderConfig: %v", err)
	}
	if providerCfg.Provider != "route53" {
		t.Errorf("expected provider config 'route53', got %q", providerCfg.Provider)
	}
}

func TestLoadLambda_ExplicitProvider(t *testing.T) {
	t.Setenv("S3_BUCKET", "my-bucket")
	t.Setenv("DYNDNS_PROVIDER", "rfc2136")

	cfg, err := LoadLambda()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != "rfc2136" {
		t.Errorf("expected provider 'rfc2136', got %q", cfg.Provider)
	}
}
