// Package rfc2136 applies record upserts as RFC 2136 DNS UPDATE messages,
// optionally signed with TSIG.
package rfc2136

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-logr/logr"
	miekgdns "github.com/miekg/dns"

	"github.com/yuriy-kovalchuk/yk-dyndns/internal/dns"
)

func init() {
	dns.Register("rfc2136", func(log logr.Logger, settings map[string]string) (dns.Provider, error) {
		return New(log, settings)
	})
}

const (
	defaultTTL       = 300
	defaultAlgorithm = miekgdns.HmacSHA256
	tsigFudge        = 300
)

// Provider implements dns.Provider against a primary name server accepting
// dynamic updates. The zone identifier is the zone apex, e.g. "example.com".
type Provider struct {
	server     string
	keyName    string
	algorithm  string
	client     *miekgdns.Client
	defaultTTL int
	log        logr.Logger
}

// New creates an RFC 2136 provider.
// Required settings: server (host:port).
// Optional settings: tsig_key_name, tsig_secret (base64), tsig_algorithm
// (default hmac-sha256.), net (udp or tcp, default udp), timeout (Go
// duration, default 5s), default_ttl (default 300).
func New(log logr.Logger, settings map[string]string) (*Provider, error) {
	server := settings["server"]
	if server == "" {
		return nil, fmt.Errorf("rfc2136: missing required setting 'server'")
	}

	timeout := 5 * time.Second
	if v := settings["timeout"]; v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("rfc2136: invalid timeout %q: %w", v, err)
		}
		timeout = parsed
	}

	ttl := defaultTTL
	if v := settings["default_ttl"]; v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("rfc2136: invalid default_ttl %q", v)
		}
		ttl = parsed
	}

	network := settings["net"]
	switch network {
	case "":
		network = "udp"
	case "udp", "tcp":
	default:
		return nil, fmt.Errorf("rfc2136: unsupported net %q", network)
	}

	client := &miekgdns.Client{Net: network, Timeout: timeout}
	p := &Provider{
		server:     server,
		client:     client,
		defaultTTL: ttl,
		log:        log,
	}

	if keyName := settings["tsig_key_name"]; keyName != "" {
		secret := settings["tsig_secret"]
		if secret == "" {
			return nil, fmt.Errorf("rfc2136: tsig_key_name set without tsig_secret")
		}
		p.keyName = miekgdns.Fqdn(keyName)
		p.algorithm = miekgdns.Fqdn(settings["tsig_algorithm"])
		if settings["tsig_algorithm"] == "" {
			p.algorithm = defaultAlgorithm
		}
		client.TsigSecret = map[string]string{p.keyName: secret}
	}

	return p, nil
}

// buildUpdate returns an UPDATE for zone that deletes the record's RRset and
// inserts the single new record in the same message.
func (p *Provider) buildUpdate(zoneID string, record dns.Record) (*miekgdns.Msg, error) {
	zone := miekgdns.Fqdn(zoneID)
	name := miekgdns.Fqdn(record.Name)
	if !miekgdns.IsSubDomain(zone, name) {
		return nil, fmt.Errorf("rfc2136: record %s is not inside zone %s", name, zone)
	}

	ttl := record.TTL
	if ttl == 0 {
		ttl = p.defaultTTL
	}
	rr, err := miekgdns.NewRR(fmt.Sprintf("%s %d IN %s %s", name, ttl, record.Type, record.Value))
	if err != nil {
		return nil, fmt.Errorf("rfc2136: build %s record: %w", record.Type, err)
	}

	m := new(miekgdns.Msg)
	m.SetUpdate(zone)
	m.RemoveRRset([]miekgdns.RR{rr})
	m.Insert([]miekgdns.RR{rr})
	if p.keyName != "" {
		m.SetTsig(p.keyName, p.algorithm, tsigFudge, time.Now().Unix())
	}
	return m, nil
}

// Upsert replaces the record's RRset with the single new value.
func (p *Provider) Upsert(ctx context.Context, zoneID string, record dns.Record) error {
	m, err := p.buildUpdate(zoneID, record)
	if err != nil {
		return dns.Permanent(err)
	}

	p.log.Info("sending dynamic update", "server", p.server, "zone", zoneID, "name", record.Name, "type", record.Type, "value", record.Value)
	reply, _, err := p.client.ExchangeContext(ctx, m, p.server)
	if err != nil {
		if errors.Is(err, miekgdns.ErrSig) || errors.Is(err, miekgdns.ErrSecret) || errors.Is(err, miekgdns.ErrKeyAlg) {
			return dns.Permanent(fmt.Errorf("rfc2136: update %s: %w", record.Name, err))
		}
		return fmt.Errorf("rfc2136: update %s: %w", record.Name, err)
	}
	return checkRcode(reply)
}

// checkRcode maps the server's response code to an error. SERVFAIL is
// treated as transient; every other failure is permanent.
func checkRcode(reply *miekgdns.Msg) error {
	if reply == nil {
		return fmt.Errorf("rfc2136: empty reply")
	}
	switch reply.Rcode {
	case miekgdns.RcodeSuccess:
		return nil
	case miekgdns.RcodeServerFailure:
		return fmt.Errorf("rfc2136: server returned %s", miekgdns.RcodeToString[reply.Rcode])
	default:
		return dns.Permanent(fmt.Errorf("rfc2136: server returned %s", miekgdns.RcodeToString[reply.Rcode]))
	}
}
