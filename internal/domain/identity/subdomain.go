package identity

import (
	"net"
	"strings"
)

// reservedSubdomains are labels that never resolve to a tenant. Numeric and
// loopback labels are handled separately in IsReservedSubdomain.
var reservedSubdomains = map[string]struct{}{
	"www":       {},
	"api":       {},
	"admin":     {},
	"localhost": {},
}

// IsReservedSubdomain reports whether the label must not be treated as a
// tenant subdomain
func IsReservedSubdomain(label string) bool {
	label = strings.ToLower(label)
	if _, ok := reservedSubdomains[label]; ok {
		return true
	}
	// Numeric first labels come from bare IP hosts (e.g. 127.0.0.1:8080)
	if label != "" && strings.Trim(label, "0123456789") == "" {
		return true
	}
	return false
}

// ExtractSubdomain returns the tenant subdomain label from a request host,
// or "" when the host carries no usable label.
//
// Examples: "acme.example.com" -> "acme", "acme.localhost:8080" -> "acme",
// "localhost:8080" -> "", "127.0.0.1" -> "".
//
// An apex host like "example.com" yields "example"; the resolver treats a
// label that matches no tenant as no match, so this stays harmless.
func ExtractSubdomain(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(host)

	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return ""
	}

	label := parts[0]
	if IsReservedSubdomain(label) {
		return ""
	}
	return label
}
