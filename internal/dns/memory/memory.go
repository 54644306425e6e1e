// Package memory is an in-process DNS provider. It backs local runs and
// end-to-end tests where no real DNS API is reachable.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-logr/logr"

	"github.com/yuriy-kovalchuk/yk-dyndns/internal/dns"
)

func init() {
	dns.Register("memory", func(log logr.Logger, settings map[string]string) (dns.Provider, error) {
		p := New(log)
		if zones := settings["zones"]; zones != "" {
			p.zones = make(map[string]bool)
			for _, z := range strings.Split(zones, ",") {
				p.zones[strings.TrimSpace(z)] = true
			}
		}
		return p, nil
	})
}

type key struct {
	zone, name, rrtype string
}

// Provider keeps records in a map. If zones is non-nil only those zone
// identifiers are accepted.
type Provider struct {
	mu      sync.RWMutex
	records map[key]dns.Record
	zones   map[string]bool
	log     logr.Logger
}

// New returns an empty provider that accepts any zone.
func New(log logr.Logger) *Provider {
	return &Provider{records: make(map[key]dns.Record), log: log}
}

// Upsert stores the record, replacing any record with the same zone, name
// and type.
func (p *Provider) Upsert(_ context.Context, zoneID string, record dns.Record) error {
	if p.zones != nil && !p.zones[zoneID] {
		return dns.Permanent(fmt.Errorf("memory: no such zone %q", zoneID))
	}
	k := key{zone: zoneID, name: record.Name, rrtype: strings.ToUpper(record.Type)}

	p.mu.Lock()
	prev, existed := p.records[k]
	p.records[k] = record
	p.mu.Unlock()

	if existed && prev == record {
		p.log.V(1).Info("record unchanged", "zone", zoneID, "name", record.Name, "value", record.Value)
		return nil
	}
	p.log.Info("record stored", "zone", zoneID, "name", record.Name, "type", record.Type, "value", record.Value)
	return nil
}

// Get returns the stored record for zone, name and type.
func (p *Provider) Get(zoneID, name, recordType string) (dns.Record, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec, ok := p.records[key{zone: zoneID, name: name, rrtype: strings.ToUpper(recordType)}]
	return rec, ok
}

// Records returns every stored record ordered by name then type.
func (p *Provider) Records() []dns.Record {
	p.mu.RLock()
	out := make([]dns.Record, 0, len(p.records))
	for _, rec := range p.records {
		out = append(out, rec)
	}
	p.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Type < out[j].Type
	})
	return out
}
