package paymail

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
)

// DNSResolver looks up SRV records. It exists so tests and DNSSECResolver
// can stand in for the system resolver.
type DNSResolver interface {
	LookupSRV(ctx context.Context, service, proto, name string) (string, []*net.SRV, error)
}

// SRVService is the SRV service label paymail hosts publish under.
const SRVService = "bsvalias"

// DefaultPort is used when a domain publishes no SRV record.
const DefaultPort = 443

// ResolveHost returns the host:port serving domain's paymail API. Targets
// are ordered by priority, then by descending weight, and the first is
// used. A domain without an SRV record is served from itself on port 443.
func ResolveHost(ctx context.Context, domain string, resolver DNSResolver) (string, error) {
	if domain == "" {
		return "", fmt.Errorf("%w: empty domain", ErrDNSLookupFailed)
	}

	_, addrs, err := resolver.LookupSRV(ctx, SRVService, "tcp", domain)
	var dnsErr *net.DNSError
	switch {
	case errors.As(err, &dnsErr) && dnsErr.IsNotFound:
		return net.JoinHostPort(domain, strconv.Itoa(DefaultPort)), nil
	case err != nil:
		return "", fmt.Errorf("%w: SRV lookup for _%s._tcp.%s: %w", ErrDNSLookupFailed, SRVService, domain, err)
	case len(addrs) == 0:
		return net.JoinHostPort(domain, strconv.Itoa(DefaultPort)), nil
	}

	slices.SortStableFunc(addrs, func(a, b *net.SRV) int {
		if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
			return c
		}
		return cmp.Compare(b.Weight, a.Weight)
	})
	best := addrs[0]
	return net.JoinHostPort(strings.TrimSuffix(best.Target, "."), strconv.Itoa(int(best.Port))), nil
}
