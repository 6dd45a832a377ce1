package netif

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"

	osutils "github.com/projectdiscovery/utils/os"
	sliceutil "github.com/projectdiscovery/utils/slice"
	psnet "github.com/shirou/gopsutil/v3/net"
)

const procNetRoute = "/proc/net/route"

// routeTimeout bounds the route subprocess on macOS and Windows.
const routeTimeout = 5 * time.Second

type systemSource struct{}

// NewSystemSource returns the platform interface source: gopsutil for
// interface bindings, /proc/net/route or the route binary for the
// default-route interface.
func NewSystemSource() Source {
	return &systemSource{}
}

func (s *systemSource) Bindings(ctx context.Context) ([]Binding, error) {
	stats, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate interfaces: %w", err)
	}

	var bindings []Binding
	for _, stat := range stats {
		if !sliceutil.Contains(stat.Flags, "up") {
			continue
		}

		for _, addr := range stat.Addrs {
			ip, network, err := net.ParseCIDR(addr.Addr)
			if err != nil || ip.To4() == nil {
				continue
			}
			bindings = append(bindings, Binding{
				Name:    stat.Name,
				IP:      ip.To4(),
				Netmask: network.Mask,
			})
			// Only the first IPv4 address per interface matters here.
			break
		}
	}

	return bindings, nil
}

func (s *systemSource) DefaultRoute(ctx context.Context) (string, error) {
	switch {
	case osutils.IsLinux():
		data, err := os.ReadFile(procNetRoute)
		if err != nil {
			return "", err
		}
		return parseProcRoute(string(data)), nil

	case osutils.IsOSX():
		ctx, cancel := context.WithTimeout(ctx, routeTimeout)
		defer cancel()
		output, err := exec.CommandContext(ctx, "route", "-n", "get", "default").Output()
		if err != nil {
			return "", fmt.Errorf("failed to execute route -n get default: %w", err)
		}
		return parseRouteGet(string(output)), nil

	case osutils.IsWindows():
		ctx, cancel := context.WithTimeout(ctx, routeTimeout)
		defer cancel()
		output, err := exec.CommandContext(ctx, "route", "print", "-4", "0.0.0.0").Output()
		if err != nil {
			return "", fmt.Errorf("failed to execute route print: %w", err)
		}
		// The route table names the interface by its address, not by name.
		address := parseRoutePrint(string(output))
		if address == "" {
			return "", nil
		}
		bindings, err := s.Bindings(ctx)
		if err != nil {
			return "", err
		}
		for _, binding := range bindings {
			if binding.IP.String() == address {
				return binding.Name, nil
			}
		}
		return "", nil
	}

	return "", nil
}

// parseProcRoute finds the interface of the first default route
// (destination 00000000) in /proc/net/route content.
func parseProcRoute(data string) string {
	lines := strings.Split(data, "\n")
	for i, line := range lines {
		if i == 0 {
			// header row
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if fields[1] == "00000000" {
			return fields[0]
		}
	}
	return ""
}

// parseRouteGet extracts the "interface:" value from `route -n get
// default` output on macOS and BSD.
func parseRouteGet(data string) string {
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if value, found := strings.CutPrefix(line, "interface:"); found {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// parseRoutePrint extracts the interface address column from the 0.0.0.0
// row of `route print -4 0.0.0.0` output on Windows.
func parseRoutePrint(data string) string {
	for _, line := range strings.Split(data, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		if fields[0] == "0.0.0.0" && fields[1] == "0.0.0.0" {
			// columns: destination netmask gateway interface metric
			return fields[3]
		}
	}
	return ""
}
