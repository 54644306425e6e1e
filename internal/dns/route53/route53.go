// Package route53 writes records to AWS Route 53 hosted zones.
package route53

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	r53 "github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/aws/smithy-go"
	"github.com/go-logr/logr"

	"github.com/yuriy-kovalchuk/yk-dyndns/internal/dns"
)

func init() {
	dns.Register("route53", func(log logr.Logger, settings map[string]string) (dns.Provider, error) {
		return New(context.Background(), log, settings)
	})
}

const defaultTTL = 300

// ChangeAPI is the subset of the Route 53 client used by Provider.
type ChangeAPI interface {
	ChangeResourceRecordSets(ctx context.Context, params *r53.ChangeResourceRecordSetsInput, optFns ...func(*r53.Options)) (*r53.ChangeResourceRecordSetsOutput, error)
}

// Provider implements dns.Provider for Route 53. The zone identifier is the
// hosted zone ID.
type Provider struct {
	client     ChangeAPI
	defaultTTL int64
	comment    string
	log        logr.Logger
}

// New creates a Route 53 provider using the default AWS credential chain.
// Optional settings: region, default_ttl (default 300), comment,
// max_attempts (SDK-level retries for throttling and transport errors).
func New(ctx context.Context, log logr.Logger, settings map[string]string) (*Provider, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region := settings["region"]; region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if v := settings["max_attempts"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("route53: invalid max_attempts %q", v)
		}
		opts = append(opts, awsconfig.WithRetryMaxAttempts(n))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("route53: load AWS config: %w", err)
	}
	return NewWithClient(r53.NewFromConfig(cfg), log, settings)
}

// NewWithClient creates a provider around an existing client.
func NewWithClient(client ChangeAPI, log logr.Logger, settings map[string]string) (*Provider, error) {
	ttl := int64(defaultTTL)
	if v := settings["default_ttl"]; v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("route53: invalid default_ttl %q", v)
		}
		ttl = parsed
	}
	comment := settings["comment"]
	if comment == "" {
		comment = "yk-dyndns update"
	}
	return &Provider{client: client, defaultTTL: ttl, comment: comment, log: log}, nil
}

// Upsert submits a single UPSERT change for the record. Route 53 applies
// the change atomically; resubmitting an identical UPSERT is a no-op.
func (p *Provider) Upsert(ctx context.Context, zoneID string, record dns.Record) error {
	ttl := int64(record.TTL)
	if ttl == 0 {
		ttl = p.defaultTTL
	}

	p.log.Info("upserting record", "zone", zoneID, "name", record.Name, "type", record.Type, "value", record.Value, "ttl", ttl)
	out, err := p.client.ChangeResourceRecordSets(ctx, &r53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(zoneID),
		ChangeBatch: &r53types.ChangeBatch{
			Comment: aws.String(p.comment),
			Changes: []r53types.Change{{
				Action: r53types.ChangeActionUpsert,
				ResourceRecordSet: &r53types.ResourceRecordSet{
					Name:            aws.String(record.Name),
					Type:            r53types.RRType(record.Type),
					TTL:             aws.Int64(ttl),
					ResourceRecords: []r53types.ResourceRecord{{Value: aws.String(record.Value)}},
				},
			}},
		},
	})
	if err != nil {
		return classify(fmt.Errorf("route53: change record sets in zone %s: %w", zoneID, err))
	}

	if out != nil && out.ChangeInfo != nil {
		p.log.V(1).Info("change submitted", "id", aws.ToString(out.ChangeInfo.Id), "status", out.ChangeInfo.Status)
	}
	return nil
}

// classify marks errors that retrying cannot fix as permanent.
func classify(err error) error {
	var noZone *r53types.NoSuchHostedZone
	if errors.As(err, &noZone) {
		return dns.Permanent(err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "InvalidChangeBatch", "InvalidInput", "InvalidDomainName",
			"AccessDenied", "AccessDeniedException", "InvalidClientTokenId",
			"UnrecognizedClientException", "SignatureDoesNotMatch":
			return dns.Permanent(err)
		}
	}
	return err
}
