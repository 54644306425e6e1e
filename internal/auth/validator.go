// Package auth checks that an update request was produced by a client that
// knows the shared secret of the record it wants to change.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/yuriy-kovalchuk/yk-dyndns/internal/policy"
)

var (
	// ErrUnknownRecord means the record name is not in the policy document.
	ErrUnknownRecord = errors.New("unknown record")
	// ErrHashMismatch means the proof hash does not match the expected one.
	ErrHashMismatch = errors.New("hash mismatch")
)

// Authorization is the result of a successful validation. It carries
// everything needed to build the provider upsert.
type Authorization struct {
	RecordName string
	IP         string
	ZoneID     string
	TTL        int
	Type       string
}

// ExpectedHash returns the lowercase hex SHA-256 of
// recordName + claimedIP + secret. Clients compute the same value, so the
// concatenation order is part of the wire format.
func ExpectedHash(recordName, claimedIP, secret string) string {
	sum := sha256.Sum256([]byte(recordName + claimedIP + secret))
	return hex.EncodeToString(sum[:])
}

// Validate authorizes an update of recordName to claimedIP. The returned
// error wraps ErrUnknownRecord or ErrHashMismatch; callers that talk to
// clients should not tell the two apart.
func Validate(doc *policy.Document, recordName, claimedIP, proofHash string) (Authorization, error) {
	rec, ok := doc.Lookup(recordName)
	if !ok {
		return Authorization{}, fmt.Errorf("%w: %q", ErrUnknownRecord, recordName)
	}

	expected := ExpectedHash(recordName, claimedIP, rec.SharedSecret)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(proofHash)) != 1 {
		return Authorization{}, fmt.Errorf("%w for record %q", ErrHashMismatch, recordName)
	}

	return Authorization{
		RecordName: recordName,
		IP:         claimedIP,
		ZoneID:     rec.ZoneID,
		TTL:        rec.TTL,
		Type:       rec.Type,
	}, nil
}

// Reason returns a short label for a validation error, for logs and metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return "authorized"
	case errors.Is(err, ErrUnknownRecord):
		return "unknown_record"
	case errors.Is(err, ErrHashMismatch):
		return "hash_mismatch"
	default:
		return "error"
	}
}
