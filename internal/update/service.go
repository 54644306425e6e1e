// Package update runs one dynamic-DNS update: it fetches the policy,
// authorizes the request and reconciles the record.
package update

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/yuriy-kovalchuk/yk-dyndns/internal/auth"
	"github.com/yuriy-kovalchuk/yk-dyndns/internal/dns"
	"github.com/yuriy-kovalchuk/yk-dyndns/internal/metrics"
	"github.com/yuriy-kovalchuk/yk-dyndns/internal/policy"
)

// Failure classes. Every error returned by Service.Update wraps exactly one.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrPolicyFetch  = errors.New("policy fetch failed")
	ErrProvider     = errors.New("provider update failed")
)

// Reconciler applies an authorized update.
type Reconciler interface {
	Reconcile(ctx context.Context, a auth.Authorization) error
}

// Service wires the policy source, validator and reconciler. It holds no
// per-request state and is safe for concurrent use.
type Service struct {
	Policy     policy.Source
	Reconciler Reconciler
	Log        logr.Logger
}

// Update processes req. Concurrent updates of the same record are not
// serialized; the provider keeps whichever write lands last.
func (s *Service) Update(ctx context.Context, req Request) error {
	err := s.update(ctx, req)
	metrics.UpdateCount.WithLabelValues(Outcome(err)).Inc()
	return err
}

func (s *Service) update(ctx context.Context, req Request) error {
	log := s.Log.WithValues("client", req.SourceIP, "record", req.RecordName, "ip", req.PublicIP)

	if err := req.Validate(); err != nil {
		log.Info("rejecting malformed request", "error", err.Error())
		return err
	}
	log.Info("client wants to update record")

	doc, err := s.Policy.FetchPolicy(ctx)
	if err != nil {
		metrics.PolicyFetchFailures.Inc()
		log.Error(err, "unable to fetch policy document")
		return fmt.Errorf("%w: %w", ErrPolicyFetch, err)
	}

	authz, err := auth.Validate(doc, req.RecordName, req.PublicIP, req.ValidationHash)
	if err != nil {
		reason := auth.Reason(err)
		metrics.RejectionCount.WithLabelValues(reason).Inc()
		log.Info("request not authorized", "reason", reason)
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	// The record type comes from the policy, so the address family is only
	// checkable after authorization.
	instruction := dns.Record{Name: authz.RecordName, Type: authz.Type, Value: authz.IP, TTL: authz.TTL}
	if err := instruction.Validate(); err != nil {
		log.Info("rejecting address for record type", "type", authz.Type, "error", err.Error())
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}

	start := time.Now()
	err = s.Reconciler.Reconcile(ctx, authz)
	result := "success"
	if err != nil {
		result = "error"
	}
	metrics.UpsertDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	if err != nil {
		log.Error(err, "provider upsert failed", "zone", authz.ZoneID)
		return fmt.Errorf("%w: %w", ErrProvider, err)
	}

	log.Info("record updated", "zone", authz.ZoneID, "type", authz.Type, "ttl", authz.TTL)
	return nil
}

// Outcome returns the failure class label of err, or "success".
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrBadRequest):
		return "bad_request"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrPolicyFetch):
		return "policy_fetch_error"
	case errors.Is(err, ErrProvider):
		return "provider_error"
	default:
		return "error"
	}
}
