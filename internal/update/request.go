package update

import (
	"fmt"
	"net/netip"
)

// Request is one client update call. It is built from untrusted input and
// must pass Validate before use.
type Request struct {
	ValidationHash string `json:"validation_hash"`
	RecordName     string `json:"dns_record"`
	PublicIP       string `json:"public_ip"`
	// SourceIP is the transport-level client address, for logging only.
	SourceIP string `json:"-"`
}

// Validate checks that all fields are present and that PublicIP is an
// address literal. A malformed address can never match a real client's
// proof, so it is rejected before any policy work.
func (r Request) Validate() error {
	if r.ValidationHash == "" || r.RecordName == "" || r.PublicIP == "" {
		return fmt.Errorf("%w: missing required field", ErrBadRequest)
	}
	if _, err := netip.ParseAddr(r.PublicIP); err != nil {
		return fmt.Errorf("%w: invalid public_ip %q", ErrBadRequest, r.PublicIP)
	}
	return nil
}
