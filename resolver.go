package ixws

import (
	"context"
	"fmt"
	"net"
)

// resolveHost performs a cancellable DNS lookup of host, returning its
// resolved IP addresses. ctx's deadline takes the place of the
// poll-and-check-cancellation-every-50ms loop a blocking getaddrinfo(3)
// call needs in languages without a cancellable resolver; Go's
// net.Resolver already honors ctx natively.
func resolveHost(ctx context.Context, resolver *net.Resolver, host string) ([]net.IPAddr, error) {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	addrs, err := resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", host, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("no addresses found for %q", host)
	}
	return addrs, nil
}
