package dns

import (
	"context"
	"fmt"
	"net/netip"
	"strings"
)

// Record is a single-value DNS record to be written. Together with a zone
// identifier it fully determines one provider upsert.
type Record struct {
	Name  string // FQDN, e.g. "home.example.com"
	Type  string // "A" or "AAAA"
	Value string // IP address
	TTL   int    // seconds; 0 = provider default
}

// Validate checks that the value is an address literal of the record's type.
func (r Record) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("record name must not be empty")
	}
	addr, err := netip.ParseAddr(r.Value)
	if err != nil {
		return fmt.Errorf("record %s: invalid address %q: %w", r.Name, r.Value, err)
	}
	switch strings.ToUpper(r.Type) {
	case "A":
		if !addr.Is4() {
			return fmt.Errorf("record %s: A record needs an IPv4 address, got %q", r.Name, r.Value)
		}
	case "AAAA":
		if !addr.Is6() || addr.Is4In6() {
			return fmt.Errorf("record %s: AAAA record needs an IPv6 address, got %q", r.Name, r.Value)
		}
	default:
		return fmt.Errorf("record %s: unsupported type %q", r.Name, r.Type)
	}
	if r.TTL < 0 {
		return fmt.Errorf("record %s: negative ttl %d", r.Name, r.TTL)
	}
	return nil
}

// Provider is the interface that DNS providers must implement.
//
// Upsert creates the record if it is absent and overwrites its value if it is
// present. Applying the same record twice must leave the provider in the
// same state as applying it once. Errors that retrying cannot fix are
// marked with Permanent.
type Provider interface {
	Upsert(ctx context.Context, zoneID string, record Record) error
}
