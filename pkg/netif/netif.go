// Package netif chooses the local interface a discovery sweep derives its
// subnet from, deprioritizing tunnel and virtual adapters.
package netif

import (
	"context"
	"net"
	"strings"

	stringsutil "github.com/projectdiscovery/utils/strings"
)

// Binding is one candidate local interface with its first IPv4 address.
type Binding struct {
	Name    string
	IP      net.IP
	Netmask net.IPMask
}

// Source enumerates candidate interfaces and identifies the default
// route. Implementations wrap the platform surface; fakes stand in for
// them in tests.
type Source interface {
	// Bindings returns the up interfaces that carry an IPv4 address,
	// loopback included, in enumeration order.
	Bindings(ctx context.Context) ([]Binding, error)
	// DefaultRoute names the interface backing the default IPv4 route,
	// or "" when it cannot be determined.
	DefaultRoute(ctx context.Context) (string, error)
}

// vpnKeywords marks tunnel and virtual adapters whose subnets are almost
// never the physical segment worth sweeping.
var vpnKeywords = []string{"vpn", "anyconnect", "tap", "tun", "ppp", "virtual", "vnic", "openvpn"}

// IsVPNLike reports whether an interface name looks like a VPN or virtual
// adapter. Case-insensitive substring match against a fixed keyword set.
func IsVPNLike(name string) bool {
	return stringsutil.ContainsAny(strings.ToLower(name), vpnKeywords...)
}

// Select picks the interface to derive the sweep subnet from:
//  1. the default-gateway interface, unless VPN-named
//  2. the first non-VPN-named, non-loopback IPv4 binding
//  3. the gateway interface even if VPN-named
//  4. none; the caller falls back to a fixed subnet
//
// Enumeration failures never propagate, they collapse into "none".
func Select(ctx context.Context, source Source) (Binding, bool) {
	bindings, err := source.Bindings(ctx)
	if err != nil || len(bindings) == 0 {
		return Binding{}, false
	}

	byName := make(map[string]Binding, len(bindings))
	for _, binding := range bindings {
		if _, exists := byName[binding.Name]; !exists {
			byName[binding.Name] = binding
		}
	}

	gateway, err := source.DefaultRoute(ctx)
	if err != nil {
		gateway = ""
	}

	if gateway != "" && !IsVPNLike(gateway) {
		if binding, ok := byName[gateway]; ok {
			return binding, true
		}
	}

	for _, binding := range bindings {
		if IsVPNLike(binding.Name) || binding.IP.IsLoopback() {
			continue
		}
		return binding, true
	}

	// Tunnel-only hosts: a VPN-backed gateway beats no binding at all.
	if gateway != "" {
		if binding, ok := byName[gateway]; ok {
			return binding, true
		}
	}

	return Binding{}, false
}
