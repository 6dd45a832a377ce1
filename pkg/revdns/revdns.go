// Package revdns annotates discovered devices with their PTR names. An
// LRU cache with negative entries sits in front of the system resolver so
// repeated runs on the same network stay cheap.
package revdns

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/projectdiscovery/gcache"
	mapsutil "github.com/projectdiscovery/utils/maps"
	syncutil "github.com/projectdiscovery/utils/sync"
)

const (
	cacheSize       = 512
	cacheExpiration = 10 * time.Minute
	lookupTimeout   = 2 * time.Second
	maxParallel     = 10
)

// Resolver performs reverse DNS lookups with a bounded cache in front of
// the system resolver.
type Resolver struct {
	cache   gcache.Cache[string, string]
	lookup  func(ctx context.Context, addr string) ([]string, error)
	timeout time.Duration
}

// New returns a Resolver backed by the system resolver.
func New() *Resolver {
	return &Resolver{
		cache:   gcache.New[string, string](cacheSize).LRU().Expiration(cacheExpiration).Build(),
		lookup:  net.DefaultResolver.LookupAddr,
		timeout: lookupTimeout,
	}
}

// Lookup returns the first PTR name for ip without the trailing dot, or
// "" when the address does not reverse-resolve. Results are cached,
// misses included.
func (r *Resolver) Lookup(ctx context.Context, ip net.IP) string {
	key := ip.String()
	if name, err := r.cache.Get(key); err == nil {
		return name
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	name := ""
	if names, err := r.lookup(ctx, key); err == nil && len(names) > 0 {
		name = strings.TrimSuffix(names[0], ".")
	}
	_ = r.cache.Set(key, name)
	return name
}

// LookupAll resolves a batch of addresses in parallel, keyed by IP
// string. Addresses without a PTR record are absent from the result.
func (r *Resolver) LookupAll(ctx context.Context, ips []net.IP) map[string]string {
	names := mapsutil.NewSyncLockMap[string, string]()

	awg, err := syncutil.New(syncutil.WithSize(maxParallel))
	if err != nil {
		return map[string]string{}
	}

	for _, ip := range ips {
		select {
		case <-ctx.Done():
			goto done
		default:
		}

		awg.Add()
		go func(target net.IP) {
			defer awg.Done()
			if name := r.Lookup(ctx, target); name != "" {
				_ = names.Set(target.String(), name)
			}
		}(ip)
	}

done:
	awg.Wait()

	result := make(map[string]string)
	_ = names.Iterate(func(key, value string) error {
		result[key] = value
		return nil
	})
	return result
}
