package runner

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/neighspot/pkg/matcher"
	"github.com/projectdiscovery/neighspot/pkg/neighbors"
	"github.com/projectdiscovery/neighspot/pkg/netif"
	"github.com/projectdiscovery/neighspot/pkg/revdns"
	"github.com/projectdiscovery/neighspot/pkg/subnet"
	"github.com/projectdiscovery/neighspot/pkg/sweep"
	errorutil "github.com/projectdiscovery/utils/errors"
	sliceutil "github.com/projectdiscovery/utils/slice"
	"github.com/rs/xid"
)

// settleDelay gives the OS time to digest probe replies into the neighbor
// cache before the second inspection.
const settleDelay = 1 * time.Second

// Match is one neighbor cache entry that matched a configured rule.
type Match struct {
	Label string
	IP    net.IP
	MAC   net.HardwareAddr
	Name  string // reverse DNS, only with -resolve
}

// Runner contains the internal logic of the program
type Runner struct {
	options  *Options
	matcher  *matcher.Matcher
	parser   *neighbors.Parser
	cache    neighbors.Source
	ifaces   netif.Source
	prober   sweep.Prober
	resolver *revdns.Resolver
	out      io.Writer
	id       string
	settle   time.Duration
}

// NewRunner instance
func NewRunner(options *Options) (*Runner, error) {
	rules, err := buildRules(options)
	if err != nil {
		return nil, err
	}

	deviceMatcher, err := matcher.New(rules)
	if err != nil {
		return nil, err
	}

	if options.Network != "" {
		if _, _, err := net.ParseCIDR(options.Network); err != nil {
			return nil, errorutil.NewWithErr(err).Msgf("invalid network %s", options.Network)
		}
	}

	runner := &Runner{
		options: options,
		matcher: deviceMatcher,
		parser:  neighbors.NewParser(),
		cache:   neighbors.NewSystemSource(),
		ifaces:  netif.NewSystemSource(),
		out:     os.Stdout,
		id:      xid.New().String(),
		settle:  settleDelay,
	}

	if options.ICMP {
		prober, err := sweep.NewICMPProber()
		if err != nil {
			return nil, errorutil.NewWithErr(err).Msgf("icmp probing requires raw socket privileges")
		}
		runner.prober = prober
	} else {
		runner.prober = &sweep.PingProber{Timeout: time.Duration(options.ProbeTimeoutMs) * time.Millisecond}
	}

	if options.Resolve {
		runner.resolver = revdns.New()
	}

	return runner, nil
}

// buildRules assembles the effective rule set. A rules file replaces the
// built-in defaults; -rules and NEIGHSPOT_RULES append to either, with
// exact duplicates removed.
func buildRules(options *Options) ([]matcher.Rule, error) {
	rules := append([]matcher.Rule(nil), matcher.DefaultRules...)
	if options.RulesFile != "" {
		fileRules, err := matcher.LoadRulesFile(options.RulesFile)
		if err != nil {
			return nil, err
		}
		rules = fileRules
	}

	if len(options.Rules) > 0 {
		extra, err := matcher.ParseRules(options.Rules)
		if err != nil {
			return nil, err
		}
		rules = append(rules, extra...)
	}

	return sliceutil.Dedupe(rules), nil
}

// Run inspects the neighbor cache for known devices and, if none are
// found, sweeps the local subnet to repopulate the cache and inspects it
// again. The report is printed either way; a run without matches is a
// valid outcome, not an error.
func (r *Runner) Run(ctx context.Context) error {
	gologger.Verbose().Msgf("starting discovery %s with %d rules", r.id, len(r.matcher.Rules()))

	matches := r.snapshot(ctx)
	if len(matches) > 0 {
		r.report(ctx, matches)
		return nil
	}

	if r.options.Passive {
		gologger.Verbose().Msgf("passive mode, skipping the probe sweep")
		r.report(ctx, matches)
		return nil
	}

	targets := r.sweepTargets(ctx)
	gologger.Verbose().Msgf("probing %s hosts to refresh the neighbor cache", au.Cyan(len(targets)))

	sweep.Run(ctx, targets, r.prober, r.options.Concurrency)

	// Wait for the OS to digest probe replies into the neighbor cache.
	select {
	case <-time.After(r.settle):
	case <-ctx.Done():
	}

	matches = r.snapshot(ctx)
	r.report(ctx, matches)
	return nil
}

// snapshot reads the neighbor cache and classifies every entry against
// the configured rules, preserving cache order. An unreadable cache is
// treated as an empty one.
func (r *Runner) snapshot(ctx context.Context) []Match {
	dump, err := r.cache.Dump(ctx)
	if err != nil {
		gologger.Verbose().Msgf("neighbor cache unavailable: %s", err)
		return nil
	}

	var matches []Match
	for _, record := range r.parser.Parse(dump) {
		label, ok := r.matcher.Classify(record.MAC.String())
		if !ok {
			continue
		}
		matches = append(matches, Match{Label: label, IP: record.IP, MAC: record.MAC})
	}
	return matches
}

// sweepTargets picks the addresses to probe: the -network flag if given,
// otherwise the subnet of the selected interface, otherwise a fixed
// fallback network.
func (r *Runner) sweepTargets(ctx context.Context) []net.IP {
	if r.options.Network != "" {
		targets, err := subnet.EnumerateCIDR(r.options.Network)
		if err == nil {
			return targets
		}
		gologger.Warning().Msgf("invalid network %s, using interface detection: %s", r.options.Network, err)
	}

	if binding, ok := netif.Select(ctx, r.ifaces); ok {
		targets, err := subnet.Enumerate(binding.IP, binding.Netmask)
		if err == nil {
			gologger.Verbose().Msgf("sweeping the subnet of %s (%s)", au.Cyan(binding.Name), binding.IP)
			return targets
		}
		gologger.Verbose().Msgf("cannot enumerate the subnet of %s: %s", binding.Name, err)
	}

	gologger.Warning().Msgf("no usable interface found, falling back to %s", subnet.DefaultSubnet)
	targets, err := subnet.EnumerateCIDR(subnet.DefaultSubnet)
	if err != nil {
		return nil
	}
	return targets
}

// report prints matches in neighbor cache order, 1-indexed, or a fixed
// line when there are none. Results go to stdout, logs stay on stderr.
func (r *Runner) report(ctx context.Context, matches []Match) {
	if len(matches) == 0 {
		fmt.Fprintln(r.out, "No matches found for configured MAC prefixes")
		return
	}

	if r.resolver != nil {
		ips := make([]net.IP, 0, len(matches))
		for _, match := range matches {
			ips = append(ips, match.IP)
		}
		names := r.resolver.LookupAll(ctx, ips)
		for i := range matches {
			matches[i].Name = names[matches[i].IP.String()]
		}
	}

	for i, match := range matches {
		if match.Name != "" {
			fmt.Fprintf(r.out, "%d. %s %s %s (%s)\n", i+1, match.Label, match.IP, match.MAC, match.Name)
		} else {
			fmt.Fprintf(r.out, "%d. %s %s %s\n", i+1, match.Label, match.IP, match.MAC)
		}
	}
}

// Close the runner instance
func (r *Runner) Close() {
	if closer, ok := r.prober.(io.Closer); ok {
		_ = closer.Close()
	}
}
