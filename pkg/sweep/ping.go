package sweep

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"runtime"
	"strconv"
	"time"
)

// DefaultProbeTimeout bounds how long a single probe waits on the network.
const DefaultProbeTimeout = 200 * time.Millisecond

// killGrace is added on top of the network timeout before an overstaying
// ping subprocess is killed.
const killGrace = 1 * time.Second

// PingProber probes targets through the system ping binary, one echo
// request per target. It needs no raw-socket privileges, and the OS
// records the answering peer in its neighbor cache as a side effect of
// the exchange.
type PingProber struct {
	Timeout time.Duration
}

// NewPingProber returns a PingProber with the default network timeout.
func NewPingProber() *PingProber {
	return &PingProber{Timeout: DefaultProbeTimeout}
}

// Probe sends one echo request to ip and waits for the reply or the
// timeout, whichever comes first.
func (p *PingProber) Probe(ctx context.Context, ip net.IP) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout+killGrace)
	defer cancel()

	args := pingArgsFor(runtime.GOOS, ip.String(), timeout)
	if err := exec.CommandContext(ctx, "ping", args...).Run(); err != nil {
		return fmt.Errorf("ping %s: %w", ip, err)
	}
	return nil
}

// pingArgsFor builds single-echo ping arguments for a platform. Every
// ping flavor spells the reply timeout differently: milliseconds on
// Windows and macOS, seconds on Linux.
func pingArgsFor(goos, target string, timeout time.Duration) []string {
	switch goos {
	case "windows":
		return []string{"-n", "1", "-w", strconv.Itoa(int(timeout.Milliseconds())), target}
	case "darwin":
		return []string{"-c", "1", "-W", strconv.Itoa(int(timeout.Milliseconds())), target}
	default:
		// iputils ping accepts fractional seconds
		return []string{"-c", "1", "-W", strconv.FormatFloat(timeout.Seconds(), 'g', -1, 64), target}
	}
}
