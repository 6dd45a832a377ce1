// Package subnet turns an interface binding or CIDR into the ordered list
// of host addresses a sweep should probe.
package subnet

import (
	"net"

	"github.com/projectdiscovery/mapcidr"
	errorutil "github.com/projectdiscovery/utils/errors"
)

// DefaultSubnet is the range swept when no usable interface is found.
const DefaultSubnet = "192.168.1.0/24"

// clampPrefix bounds enumeration: networks wider than /24 are clamped to
// the /24 block containing the given address. A single sweep therefore
// never targets more than 254 hosts.
const clampPrefix = 24

// Enumerate returns the host addresses of the network containing ip in
// ascending order, excluding the network and broadcast addresses. Masks
// shorter than /24 are clamped to the /24 containing ip (hosts .1-.254).
// Degenerate /31 and /32 networks enumerate to nothing.
func Enumerate(ip net.IP, mask net.IPMask) ([]net.IP, error) {
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, errorutil.New("not an IPv4 address: %s", ip)
	}

	ones, bits := mask.Size()
	if bits != net.IPv4len*8 {
		return nil, errorutil.New("not an IPv4 netmask: %v", mask)
	}
	if ones < clampPrefix {
		mask = net.CIDRMask(clampPrefix, net.IPv4len*8)
	}

	network := &net.IPNet{IP: ip4.Mask(mask), Mask: mask}
	return hosts(network)
}

// EnumerateCIDR applies the same policy to a CIDR literal (the -network
// override and the DefaultSubnet fallback).
func EnumerateCIDR(cidr string) ([]net.IP, error) {
	ip, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("invalid network %s", cidr)
	}
	return Enumerate(ip, network.Mask)
}

// hosts expands the network and drops its network and broadcast addresses.
func hosts(network *net.IPNet) ([]net.IP, error) {
	addresses, err := mapcidr.IPAddresses(network.String())
	if err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("failed to expand CIDR %s", network.String())
	}

	targets := make([]net.IP, 0, len(addresses))
	for _, address := range addresses {
		ip := net.ParseIP(address)
		if ip == nil {
			continue
		}
		if isNetworkOrBroadcast(ip, network) {
			continue
		}
		targets = append(targets, ip.To4())
	}

	return targets, nil
}

// isNetworkOrBroadcast checks if an IP is the network or broadcast address
// of the given IPv4 network.
func isNetworkOrBroadcast(ip net.IP, network *net.IPNet) bool {
	if ip.Equal(network.IP) {
		return true
	}

	broadcast := make(net.IP, len(network.IP))
	copy(broadcast, network.IP)
	for i := range broadcast {
		broadcast[i] |= ^network.Mask[i]
	}
	return ip.Equal(broadcast)
}
