package dns

import (
	"strings"
)

// SplitHostname splits an FQDN into subdomain and domain parts.
// e.g. "app.example.com" → ("app", "example.com")
// e.g. "sub.app.example.com" → ("sub", "app.example.com")
func SplitHostname(fqdn string) (hostname, domain string) {
	fqdn = strings.TrimSuffix(fqdn, ".")
	parts := strings.SplitN(fqdn, ".", 2)
	if len(parts) < 2 {
		return fqdn, ""
	}
	return parts[0], parts[1]
}

// SplitInZone splits fqdn into the part below zone and the zone itself.
// If fqdn is not inside zone, or zone is empty, it falls back to
// SplitHostname.
// e.g. ("home.dyn.example.com", "example.com") → ("home.dyn", "example.com")
func SplitInZone(fqdn, zone string) (hostname, domain string) {
	fqdn = strings.TrimSuffix(fqdn, ".")
	zone = strings.TrimSuffix(zone, ".")
	if zone != "" && len(fqdn) > len(zone)+1 && strings.HasSuffix(strings.ToLower(fqdn), "."+strings.ToLower(zone)) {
		return fqdn[:len(fqdn)-len(zone)-1], fqdn[len(fqdn)-len(zone):]
	}
	return SplitHostname(fqdn)
}
