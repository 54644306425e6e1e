// Package app builds the update service from process configuration. Client
// handles are created once here and shared by every request.
package app

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-logr/logr"

	"github.com/yuriy-kovalchuk/yk-dyndns/internal/config"
	"github.com/yuriy-kovalchuk/yk-dyndns/internal/dns"
	_ "github.com/yuriy-kovalchuk/yk-dyndns/internal/dns/providers"
	"github.com/yuriy-kovalchuk/yk-dyndns/internal/policy"
	"github.com/yuriy-kovalchuk/yk-dyndns/internal/reconcile"
	"github.com/yuriy-kovalchuk/yk-dyndns/internal/update"
)

// NewService wires policy source, provider and reconciler. ctx bounds the
// lifetime of background cache cleanup.
func NewService(ctx context.Context, cfg *config.Config, log logr.Logger) (*update.Service, error) {
	src, err := NewPolicySource(ctx, cfg, log.WithName("policy"))
	if err != nil {
		return nil, fmt.Errorf("unable to create policy source: %w", err)
	}

	providerCfg, err := cfg.LoadProviderConfig()
	if err != nil {
		return nil, fmt.Errorf("unable to load provider config: %w", err)
	}
	if providerCfg.Provider == "route53" && providerCfg.Settings["region"] == "" {
		providerCfg.Settings["region"] = cfg.S3Region
	}
	log.Info("loaded provider config", "provider", providerCfg.Provider)

	provider, err := dns.NewProvider(providerCfg.Provider, log.WithName("dns-"+providerCfg.Provider), providerCfg.Settings)
	if err != nil {
		return nil, fmt.Errorf("unable to create DNS provider: %w", err)
	}

	return &update.Service{
		Policy: src,
		Reconciler: &reconcile.Reconciler{
			DNS:     provider,
			Log:     log.WithName("reconciler"),
			Backoff: reconcile.NewBackoff(cfg.RetryAttempts, cfg.RetryBaseDelay),
		},
		Log: log.WithName("update"),
	}, nil
}

// NewPolicySource returns the configured source, wrapped in a cache when
// PolicyCacheTTL is set.
func NewPolicySource(ctx context.Context, cfg *config.Config, log logr.Logger) (policy.Source, error) {
	var src policy.Source
	switch cfg.PolicySource {
	case config.PolicySourceFile:
		log.Info("reading policy from file", "path", cfg.PolicyPath)
		src = &policy.FileSource{Path: cfg.PolicyPath}
	case config.PolicySourceS3:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		s3src, err := policy.NewS3Source(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Key, log)
		if err != nil {
			return nil, err
		}
		log.Info("reading policy from S3", "bucket", cfg.S3Bucket, "key", cfg.S3Key, "region", cfg.S3Region)
		src = s3src
	default:
		return nil, fmt.Errorf("unknown policy source %q", cfg.PolicySource)
	}

	if cfg.PolicyCacheTTL > 0 {
		log.Info("caching policy document", "ttl", cfg.PolicyCacheTTL)
		return policy.NewCachedSource(ctx, src, cfg.PolicyCacheTTL, log), nil
	}
	return src, nil
}
