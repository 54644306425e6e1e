// Package reconcile drives a DNS record to the address a client was
// authorized to set.
package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/util/retry"

	"github.com/yuriy-kovalchuk/yk-dyndns/internal/auth"
	"github.com/yuriy-kovalchuk/yk-dyndns/internal/dns"
)

// Reconciler applies authorized updates through a DNS provider.
type Reconciler struct {
	DNS dns.Provider
	Log logr.Logger
	// Backoff bounds retries of transient provider errors. Steps is the
	// total number of attempts; zero value means a single attempt.
	Backoff wait.Backoff
}

// NewBackoff returns a backoff making attempts tries, doubling from base
// with 10% jitter.
func NewBackoff(attempts int, base time.Duration) wait.Backoff {
	if attempts < 1 {
		attempts = 1
	}
	return wait.Backoff{
		Steps:    attempts,
		Duration: base,
		Factor:   2.0,
		Jitter:   0.1,
		Cap:      30 * time.Second,
	}
}

// Instruction builds the provider record for an authorization.
func Instruction(a auth.Authorization) (zoneID string, record dns.Record) {
	return a.ZoneID, dns.Record{
		Name:  a.RecordName,
		Type:  a.Type,
		Value: a.IP,
		TTL:   a.TTL,
	}
}

// Reconcile upserts the authorized record. Permanent provider errors and
// context cancellation end retries immediately; the last error is returned.
func (r *Reconciler) Reconcile(ctx context.Context, a auth.Authorization) error {
	zoneID, record := Instruction(a)
	if err := record.Validate(); err != nil {
		return dns.Permanent(err)
	}

	backoff := r.Backoff
	if backoff.Steps < 1 {
		backoff.Steps = 1
	}

	attempt := 0
	retriable := func(err error) bool {
		if dns.IsPermanent(err) || ctx.Err() != nil ||
			errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		if attempt < backoff.Steps {
			r.Log.Info("retrying after transient provider error", "record", record.Name, "attempt", attempt, "error", err.Error())
		}
		return true
	}

	return retry.OnError(backoff, retriable, func() error {
		attempt++
		return r.DNS.Upsert(ctx, zoneID, record)
	})
}
