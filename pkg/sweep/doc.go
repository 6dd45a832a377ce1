// Package sweep generates probe traffic toward a set of target IPs so the
// operating system populates its neighbor cache with the hosts that
// answered.
//
// Probes are fire-and-forget: a worker pool of at most 60 goroutines pulls
// targets from a shared queue and sends a single probe each. Whether an
// individual probe succeeds is irrelevant, the point of the exchange is the
// cache entry the kernel records for the answering peer.
//
// Two probers are provided:
//   - PingProber: shells out to the system ping binary, one echo per
//     target. Works unprivileged.
//   - ICMPProber: writes raw echo requests over one shared socket.
//     Requires root/admin privileges on most systems.
package sweep
