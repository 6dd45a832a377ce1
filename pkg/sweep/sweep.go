package sweep

import (
	"context"
	"net"
	"sync"
)

// MaxConcurrency caps the prober pool regardless of the requested size.
const MaxConcurrency = 60

// Prober sends a single probe toward a target. Implementations block until
// the probe is answered, fails, or times out; the returned error is
// informational only.
type Prober interface {
	Probe(ctx context.Context, ip net.IP) error
}

// Run probes every target exactly once through a fixed worker pool and
// blocks until the queue is drained. Probe errors are absorbed: the sweep
// exists to generate traffic, the neighbor cache collects the results.
//
// The pool size is min(concurrency, MaxConcurrency, len(targets)); a
// non-positive concurrency means MaxConcurrency. Cancelling ctx stops
// feeding the queue and in-flight workers skip their remaining probes.
func Run(ctx context.Context, targets []net.IP, prober Prober, concurrency int) {
	if len(targets) == 0 {
		return
	}

	if concurrency < 1 || concurrency > MaxConcurrency {
		concurrency = MaxConcurrency
	}
	if concurrency > len(targets) {
		concurrency = len(targets)
	}

	queue := make(chan net.IP)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ip := range queue {
				select {
				case <-ctx.Done():
					// Keep draining so the feeder never blocks.
					continue
				default:
				}
				_ = prober.Probe(ctx, ip)
			}
		}()
	}

feed:
	for _, ip := range targets {
		select {
		case queue <- ip:
		case <-ctx.Done():
			break feed
		}
	}
	close(queue)

	wg.Wait()
}
