package runner

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/neighspot/pkg/matcher"
	"github.com/projectdiscovery/neighspot/pkg/neighbors"
	"github.com/projectdiscovery/neighspot/pkg/netif"
	"github.com/rs/xid"
)

const noMatchLine = "No matches found for configured MAC prefixes\n"

// fakeCache serves one canned dump per call, sticking to the last one
// once the sequence is exhausted.
type fakeCache struct {
	dumps []string
	err   error
	calls int
}

func (f *fakeCache) Dump(ctx context.Context) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if len(f.dumps) == 0 {
		return "", nil
	}
	i := f.calls - 1
	if i >= len(f.dumps) {
		i = len(f.dumps) - 1
	}
	return f.dumps[i], nil
}

type fakeIfaces struct {
	bindings []netif.Binding
	err      error
	gateway  string
}

func (f *fakeIfaces) Bindings(ctx context.Context) ([]netif.Binding, error) {
	return f.bindings, f.err
}

func (f *fakeIfaces) DefaultRoute(ctx context.Context) (string, error) {
	return f.gateway, nil
}

type fakeProber struct {
	mu     sync.Mutex
	probed map[string]struct{}
}

func newFakeProber() *fakeProber {
	return &fakeProber{probed: make(map[string]struct{})}
}

func (f *fakeProber) Probe(ctx context.Context, ip net.IP) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probed[ip.String()] = struct{}{}
	return nil
}

func (f *fakeProber) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.probed)
}

func (f *fakeProber) has(ip string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.probed[ip]
	return ok
}

func newTestRunner(t *testing.T, options *Options, cache *fakeCache, ifaces *fakeIfaces, prober *fakeProber) (*Runner, *bytes.Buffer) {
	t.Helper()
	deviceMatcher, err := matcher.New(matcher.DefaultRules)
	if err != nil {
		t.Fatalf("matcher.New() error = %v", err)
	}
	out := &bytes.Buffer{}
	return &Runner{
		options: options,
		matcher: deviceMatcher,
		parser:  neighbors.NewParser(),
		cache:   cache,
		ifaces:  ifaces,
		prober:  prober,
		out:     out,
		id:      xid.New().String(),
		settle:  0,
	}, out
}

func TestRunReportsCachedMatchesWithoutProbing(t *testing.T) {
	cache := &fakeCache{dumps: []string{
		`? (192.168.1.1) at aa:bb:cc:dd:ee:ff [ether] on eth0
? (192.168.1.37) at b8:27:eb:12:34:56 [ether] on eth0
? (192.168.1.9) at 11:22:33:44:55:66 [ether] on eth0
? (192.168.1.60) at 94:83:c4:01:02:03 [ether] on eth0
`,
	}}
	prober := newFakeProber()
	r, out := newTestRunner(t, &Options{}, cache, &fakeIfaces{}, prober)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := "1. RaspberryPi 192.168.1.37 b8:27:eb:12:34:56\n" +
		"2. GL Technologies 192.168.1.60 94:83:c4:01:02:03\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if prober.count() != 0 {
		t.Errorf("probed %d targets, want 0 when the cache already matches", prober.count())
	}
	if cache.calls != 1 {
		t.Errorf("cache inspected %d times, want 1", cache.calls)
	}
}

func TestRunSweepsWhenCacheHasNoMatches(t *testing.T) {
	cache := &fakeCache{dumps: []string{
		`? (192.168.1.1) at aa:bb:cc:dd:ee:ff [ether] on eth0
`,
		`? (192.168.1.1) at aa:bb:cc:dd:ee:ff [ether] on eth0
? (192.168.1.37) at dc:a6:32:ab:cd:ef [ether] on eth0
`,
	}}
	ifaces := &fakeIfaces{
		bindings: []netif.Binding{{
			Name:    "en0",
			IP:      net.ParseIP("192.168.1.50").To4(),
			Netmask: net.CIDRMask(24, 32),
		}},
		gateway: "en0",
	}
	prober := newFakeProber()
	r, out := newTestRunner(t, &Options{}, cache, ifaces, prober)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if prober.count() != 254 {
		t.Errorf("probed %d targets, want 254", prober.count())
	}
	for _, ip := range []string{"192.168.1.1", "192.168.1.50", "192.168.1.254"} {
		if !prober.has(ip) {
			t.Errorf("sweep missed %s", ip)
		}
	}
	for _, ip := range []string{"192.168.1.0", "192.168.1.255"} {
		if prober.has(ip) {
			t.Errorf("sweep probed reserved address %s", ip)
		}
	}

	want := "1. RaspberryPi 192.168.1.37 dc:a6:32:ab:cd:ef\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if cache.calls != 2 {
		t.Errorf("cache inspected %d times, want 2", cache.calls)
	}
}

func TestRunFallsBackWhenNoInterfaceUsable(t *testing.T) {
	cache := &fakeCache{}
	ifaces := &fakeIfaces{err: errors.New("netlink down")}
	prober := newFakeProber()
	r, out := newTestRunner(t, &Options{}, cache, ifaces, prober)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if prober.count() != 254 {
		t.Errorf("probed %d targets, want 254 from the fallback subnet", prober.count())
	}
	if !prober.has("192.168.1.1") || !prober.has("192.168.1.254") {
		t.Error("fallback sweep did not cover 192.168.1.0/24")
	}
	if got := out.String(); got != noMatchLine {
		t.Errorf("output = %q, want %q", got, noMatchLine)
	}
}

func TestRunPassiveNeverProbes(t *testing.T) {
	cache := &fakeCache{}
	prober := newFakeProber()
	r, out := newTestRunner(t, &Options{Passive: true}, cache, &fakeIfaces{}, prober)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if prober.count() != 0 {
		t.Errorf("probed %d targets in passive mode, want 0", prober.count())
	}
	if got := out.String(); got != noMatchLine {
		t.Errorf("output = %q, want %q", got, noMatchLine)
	}
	if cache.calls != 1 {
		t.Errorf("cache inspected %d times, want 1", cache.calls)
	}
}

func TestRunHonorsNetworkFlag(t *testing.T) {
	cache := &fakeCache{}
	// A failing interface source proves the flag short-circuits detection.
	ifaces := &fakeIfaces{err: errors.New("netlink down")}
	prober := newFakeProber()
	r, _ := newTestRunner(t, &Options{Network: "10.1.2.0/24"}, cache, ifaces, prober)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if prober.count() != 254 {
		t.Errorf("probed %d targets, want 254", prober.count())
	}
	if !prober.has("10.1.2.1") || !prober.has("10.1.2.254") {
		t.Error("sweep did not cover the requested network")
	}
	if prober.has("192.168.1.1") {
		t.Error("sweep used the fallback subnet instead of the requested network")
	}
}

func TestRunTreatsUnreadableCacheAsEmpty(t *testing.T) {
	cache := &fakeCache{err: errors.New("arp binary missing")}
	prober := newFakeProber()
	r, out := newTestRunner(t, &Options{Passive: true}, cache, &fakeIfaces{}, prober)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := out.String(); got != noMatchLine {
		t.Errorf("output = %q, want %q", got, noMatchLine)
	}
}

func TestBuildRules(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		rules, err := buildRules(&Options{})
		if err != nil {
			t.Fatalf("buildRules() error = %v", err)
		}
		if len(rules) != len(matcher.DefaultRules) {
			t.Errorf("got %d rules, want %d", len(rules), len(matcher.DefaultRules))
		}
	})

	t.Run("flag rules append after defaults", func(t *testing.T) {
		rules, err := buildRules(&Options{Rules: goflags.StringSlice{"00:de:ad=Test Device"}})
		if err != nil {
			t.Fatalf("buildRules() error = %v", err)
		}
		if len(rules) != len(matcher.DefaultRules)+1 {
			t.Fatalf("got %d rules, want %d", len(rules), len(matcher.DefaultRules)+1)
		}
		last := rules[len(rules)-1]
		if last.Prefix != "00:de:ad" || last.Label != "Test Device" {
			t.Errorf("last rule = %+v, want 00:de:ad=Test Device", last)
		}
	})

	t.Run("rules file replaces defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.json")
		content := `{"rules": [{"prefix": "aa:bb:cc", "label": "Custom"}]}`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		rules, err := buildRules(&Options{RulesFile: path})
		if err != nil {
			t.Fatalf("buildRules() error = %v", err)
		}
		if len(rules) != 1 {
			t.Fatalf("got %d rules, want 1", len(rules))
		}
		if rules[0].Prefix != "aa:bb:cc" || rules[0].Label != "Custom" {
			t.Errorf("rule = %+v, want aa:bb:cc=Custom", rules[0])
		}
	})

	t.Run("duplicate rules collapse", func(t *testing.T) {
		rules, err := buildRules(&Options{Rules: goflags.StringSlice{"b8:27:eb=RaspberryPi"}})
		if err != nil {
			t.Fatalf("buildRules() error = %v", err)
		}
		if len(rules) != len(matcher.DefaultRules) {
			t.Errorf("got %d rules, want %d after dedupe", len(rules), len(matcher.DefaultRules))
		}
	})

	t.Run("invalid rule", func(t *testing.T) {
		if _, err := buildRules(&Options{Rules: goflags.StringSlice{"not-a-rule"}}); err == nil {
			t.Error("buildRules() error = nil, want error for rule without =")
		}
	})
}
