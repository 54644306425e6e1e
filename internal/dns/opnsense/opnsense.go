package opnsense

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/yuriy-kovalchuk/yk-dyndns/internal/dns"
)

func init() {
	dns.Register("opnsense", func(log logr.Logger, settings map[string]string) (dns.Provider, error) {
		return New(log, settings)
	})
}

const defaultDescription = "managed by yk-dyndns"

// Provider implements dns.Provider for OPNsense Unbound host overrides.
// The zone identifier is the Unbound domain the override lives under.
type Provider struct {
	baseURL     string
	apiKey      string
	apiSecret   string
	description string
	client      *http.Client
	log         logr.Logger
}

// New creates an OPNsense DNS provider from the given settings map.
// Required settings: base_url, api_key, api_secret.
// Optional settings: description, timeout (Go duration, default 10s),
// skip_tls_verify (default false).
func New(log logr.Logger, settings map[string]string) (*Provider, error) {
	baseURL := settings["base_url"]
	if baseURL == "" {
		return nil, fmt.Errorf("opnsense: missing required setting 'base_url'")
	}
	apiKey := settings["api_key"]
	if apiKey == "" {
		return nil, fmt.Errorf("opnsense: missing required setting 'api_key'")
	}
	apiSecret := settings["api_secret"]
	if apiSecret == "" {
		return nil, fmt.Errorf("opnsense: missing required setting 'api_secret'")
	}

	timeout := 10 * time.Second
	if v := settings["timeout"]; v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("opnsense: invalid timeout %q: %w", v, err)
		}
		timeout = parsed
	}

	description := settings["description"]
	if description == "" {
		description = defaultDescription
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if settings["skip_tls_verify"] == "true" {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Provider{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		apiSecret:   apiSecret,
		description: description,
		client:      &http.Client{Transport: transport, Timeout: timeout},
		log:         log,
	}, nil
}

// call sends a request to the OPNsense API and decodes a 200 response into
// out. Client errors other than 408 and 429 are permanent.
func (p *Provider) call(ctx context.Context, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return dns.Permanent(fmt.Errorf("opnsense: marshal request body: %w", err))
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+"/"+strings.TrimLeft(path, "/"), bodyReader)
	if err != nil {
		return dns.Permanent(fmt.Errorf("opnsense: build request: %w", err))
	}
	req.SetBasicAuth(p.apiKey, p.apiSecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("opnsense: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("opnsense: %s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(respBody)))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 &&
			resp.StatusCode != http.StatusRequestTimeout && resp.StatusCode != http.StatusTooManyRequests {
			return dns.Permanent(err)
		}
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("opnsense: decode %s response: %w", path, err)
	}
	return nil
}

// hostRow is a single host override as returned by searchHostOverride.
type hostRow struct {
	UUID     string `json:"uuid"`
	Enabled  string `json:"enabled"`
	Hostname string `json:"hostname"`
	Domain   string `json:"domain"`
	RR       string `json:"rr"`
	Server   string `json:"server"`
}

// findOverride returns the override matching host, domain and record type,
// or nil if there is none.
func (p *Provider) findOverride(ctx context.Context, host, domain, recordType string) (*hostRow, error) {
	var sr struct {
		Rows []hostRow `json:"rows"`
	}
	if err := p.call(ctx, http.MethodGet, "unbound/settings/searchHostOverride", nil, &sr); err != nil {
		return nil, err
	}
	for i, row := range sr.Rows {
		if strings.EqualFold(row.Hostname, host) &&
			strings.EqualFold(row.Domain, domain) &&
			strings.EqualFold(row.RR, recordType) {
			return &sr.Rows[i], nil
		}
	}
	return nil, nil
}

func (p *Provider) hostBody(host, domain string, record dns.Record) map[string]any {
	return map[string]any{
		"host": map[string]string{
			"enabled":     "1",
			"hostname":    host,
			"domain":      domain,
			"rr":          record.Type,
			"server":      record.Value,
			"description": p.description,
			"mxprio":      "",
			"mx":          "",
		},
	}
}

// Upsert adds the host override if missing, rewrites it if its address
// differs, and leaves it alone otherwise. Unbound is reconfigured only
// after a write.
func (p *Provider) Upsert(ctx context.Context, zoneID string, record dns.Record) error {
	host, domain := dns.SplitInZone(record.Name, zoneID)
	log := p.log.WithValues("hostname", host, "domain", domain, "type", record.Type)

	existing, err := p.findOverride(ctx, host, domain, record.Type)
	if err != nil {
		return fmt.Errorf("opnsense: upsert check: %w", err)
	}

	var result struct {
		Result string `json:"result"`
		UUID   string `json:"uuid"`
	}
	switch {
	case existing == nil:
		log.Info("creating host override", "value", record.Value)
		if err := p.call(ctx, http.MethodPost, "unbound/settings/addHostOverride", p.hostBody(host, domain, record), &result); err != nil {
			return err
		}
	case existing.Server == record.Value && existing.Enabled == "1":
		log.V(1).Info("host override already up to date", "uuid", existing.UUID, "value", record.Value)
		return nil
	default:
		log.Info("updating host override", "uuid", existing.UUID, "from", existing.Server, "to", record.Value)
		path := "unbound/settings/setHostOverride/" + existing.UUID
		if err := p.call(ctx, http.MethodPost, path, p.hostBody(host, domain, record), &result); err != nil {
			return err
		}
		result.UUID = existing.UUID
	}
	if result.Result != "saved" {
		return fmt.Errorf("opnsense: unexpected result %q saving host override", result.Result)
	}

	log.Info("host override saved", "uuid", result.UUID)
	return p.reconfigure(ctx)
}

// reconfigure tells OPNsense to apply DNS changes.
func (p *Provider) reconfigure(ctx context.Context) error {
	var result struct {
		Status string `json:"status"`
	}
	if err := p.call(ctx, http.MethodPost, "unbound/service/reconfigure", struct{}{}, &result); err != nil {
		return fmt.Errorf("opnsense: reconfigure: %w", err)
	}
	p.log.V(1).Info("reconfigure completed", "status", result.Status)
	return nil
}
