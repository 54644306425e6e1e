package memory

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/google/go-cmp/cmp"

	"github.com/yuriy-kovalchuk/yk-dyndns/internal/dns"
)

func TestUpsert_CreateThenOverwrite(t *testing.T) {
	p := New(logr.Discard())
	ctx := context.Background()

	if err := p.Upsert(ctx, "Z1", dns.Record{Name: "home.example.com", Type: "A", Value: "203.0.113.5", TTL: 300}); err != nil {
		t.Fatalf("Upsert (create): %v", err)
	}
	if err := p.Upsert(ctx, "Z1", dns.Record{Name: "home.example.com", Type: "A", Value: "203.0.113.9", TTL: 300}); err != nil {
		t.Fatalf("Upsert (overwrite): %v", err)
	}

	want := []dns.Record{{Name: "home.example.com", Type: "A", Value: "203.0.113.9", TTL: 300}}
	if diff := cmp.Diff(want, p.Records()); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestUpsert_Idempotent(t *testing.T) {
	p := New(logr.Discard())
	rec := dns.Record{Name: "home.example.com", Type: "A", Value: "203.0.113.5", TTL: 300}

	for i := 0; i < 2; i++ {
		if err := p.Upsert(context.Background(), "Z1", rec); err != nil {
			t.Fatalf("Upsert %d: %v", i, err)
		}
	}
	if got := len(p.Records()); got != 1 {
		t.Fatalf("expected 1 record after repeated upsert, got %d", got)
	}
	got, ok := p.Get("Z1", "home.example.com", "a")
	if !ok || got != rec {
		t.Errorf("Get: got %+v (ok=%v), want %+v", got, ok, rec)
	}
}

func TestUpsert_SeparatesTypesAndZones(t *testing.T) {
	p := New(logr.Discard())
	ctx := context.Background()

	_ = p.Upsert(ctx, "Z1", dns.Record{Name: "home.example.com", Type: "A", Value: "203.0.113.5"})
	_ = p.Upsert(ctx, "Z1", dns.Record{Name: "home.example.com", Type: "AAAA", Value: "2001:db8::1"})
	_ = p.Upsert(ctx, "Z2", dns.Record{Name: "home.example.com", Type: "A", Value: "198.51.100.1"})

	if got := len(p.Records()); got != 3 {
		t.Fatalf("expected 3 records, got %d", got)
	}
}

func TestRegisteredWithZones(t *testing.T) {
	p, err := dns.NewProvider("memory", logr.Discard(), map[string]string{"zones": "Z1, Z2"})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	if err := p.Upsert(context.Background(), "Z2", dns.Record{Name: "a.example.com", Type: "A", Value: "203.0.113.5"}); err != nil {
		t.Fatalf("Upsert in known zone: %v", err)
	}
	err = p.Upsert(context.Background(), "Z9", dns.Record{Name: "a.example.com", Type: "A", Value: "203.0.113.5"})
	if !dns.IsPermanent(err) {
		t.Fatalf("expected permanent error for unknown zone, got %v", err)
	}
}
