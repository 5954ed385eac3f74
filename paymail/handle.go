// Package paymail resolves beneficiary handles of the form alias@domain to
// the hash160 address of the public key the domain publishes for them.
package paymail

import (
	"fmt"
	"strings"
)

// Handle is a parsed alias@domain.
type Handle struct {
	Alias  string
	Domain string
}

// String formats h as alias@domain.
func (h Handle) String() string {
	return h.Alias + "@" + h.Domain
}

// IsHandle reports whether s looks like a handle rather than an address.
func IsHandle(s string) bool {
	return strings.Contains(s, "@")
}

// ParseHandle parses "alias@domain", optionally prefixed with "paymail:" or
// "$". The domain is lowercased; the alias is kept as given.
func ParseHandle(s string) (Handle, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "paymail:")
	s = strings.TrimPrefix(s, "$")

	alias, domain, ok := strings.Cut(s, "@")
	if !ok || alias == "" || domain == "" || strings.Contains(domain, "@") {
		return Handle{}, fmt.Errorf("%w: %q", ErrInvalidHandle, s)
	}
	if strings.ContainsAny(alias, " \t/") {
		return Handle{}, fmt.Errorf("%w: alias %q", ErrInvalidHandle, alias)
	}
	domain = strings.ToLower(strings.TrimSuffix(domain, "."))
	if !strings.Contains(domain, ".") || strings.ContainsAny(domain, " \t/:") {
		return Handle{}, fmt.Errorf("%w: domain %q", ErrInvalidHandle, domain)
	}
	return Handle{Alias: alias, Domain: domain}, nil
}
