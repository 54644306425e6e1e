package policy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"
)

const (
	DefaultTTL  = 300
	DefaultType = "A"
)

// Record is the authorization policy for a single DNS record.
type Record struct {
	SharedSecret string
	ZoneID       string
	TTL          int
	Type         string
}

// rawRecord is the on-disk shape of a policy entry. route_53_zone_id and
// record_type are accepted as aliases for zone_id and type.
type rawRecord struct {
	SharedSecret  string `json:"shared_secret" yaml:"shared_secret"`
	ZoneID        string `json:"zone_id" yaml:"zone_id"`
	Route53ZoneID string `json:"route_53_zone_id" yaml:"route_53_zone_id"`
	TTL           int    `json:"ttl" yaml:"ttl"`
	Type          string `json:"type" yaml:"type"`
	RecordType    string `json:"record_type" yaml:"record_type"`
}

// Document maps fully-qualified record names to their policy. It is never
// mutated after Parse returns.
type Document struct {
	records map[string]Record
}

// NewDocument builds a Document from already typed entries, applying the
// same defaults and checks as Parse.
func NewDocument(records map[string]Record) (*Document, error) {
	out := make(map[string]Record, len(records))
	for name, rec := range records {
		if err := rec.normalize(name); err != nil {
			return nil, err
		}
		out[name] = rec
	}
	return &Document{records: out}, nil
}

// Parse decodes a policy document. JSON objects are decoded as JSON,
// anything else as YAML. Every entry is validated; one bad entry fails the
// whole document.
func Parse(data []byte) (*Document, error) {
	raw := make(map[string]rawRecord)
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("{")) {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("parsing policy document: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing policy document: %w", err)
	}

	records := make(map[string]Record, len(raw))
	for name, r := range raw {
		zone := r.ZoneID
		if zone == "" {
			zone = r.Route53ZoneID
		}
		typ := r.Type
		if typ == "" {
			typ = r.RecordType
		}
		records[name] = Record{
			SharedSecret: r.SharedSecret,
			ZoneID:       zone,
			TTL:          r.TTL,
			Type:         typ,
		}
	}
	return NewDocument(records)
}

func (r *Record) normalize(name string) error {
	if name == "" {
		return fmt.Errorf("policy: empty record name")
	}
	if r.SharedSecret == "" {
		return fmt.Errorf("policy: record %q: missing required field 'shared_secret'", name)
	}
	if r.ZoneID == "" {
		return fmt.Errorf("policy: record %q: missing required field 'zone_id'", name)
	}
	if r.TTL < 0 {
		return fmt.Errorf("policy: record %q: negative ttl %d", name, r.TTL)
	}
	if r.TTL == 0 {
		r.TTL = DefaultTTL
	}
	r.Type = strings.ToUpper(r.Type)
	switch r.Type {
	case "":
		r.Type = DefaultType
	case "A", "AAAA":
	default:
		return fmt.Errorf("policy: record %q: unsupported type %q", name, r.Type)
	}
	return nil
}

// Lookup returns the policy for name. Matching is exact and case-sensitive.
func (d *Document) Lookup(name string) (Record, bool) {
	if d == nil {
		return Record{}, false
	}
	rec, ok := d.records[name]
	return rec, ok
}

// Len returns the number of records in the document.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Names returns the record names in sorted order.
func (d *Document) Names() []string {
	if d == nil {
		return nil
	}
	names := make([]string, 0, len(d.records))
	for n := range d.records {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
