// Package providers imports all DNS provider packages to trigger their init() registration.
package providers

import (
	_ "github.com/yuriy-kovalchuk/yk-dyndns/internal/dns/memory"
	_ "github.com/yuriy-kovalchuk/yk-dyndns/internal/dns/opnsense"
	_ "github.com/yuriy-kovalchuk/yk-dyndns/internal/dns/rfc2136"
	_ "github.com/yuriy-kovalchuk/yk-dyndns/internal/dns/route53"
)
