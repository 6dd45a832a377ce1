package runner

import (
	"os"
	"strings"

	"github.com/logrusorgru/aurora/v4"
	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/formatter"
	"github.com/projectdiscovery/gologger/levels"
	"github.com/projectdiscovery/neighspot/pkg/sweep"
	"github.com/projectdiscovery/neighspot/pkg/version"
	envutil "github.com/projectdiscovery/utils/env"
)

var au = aurora.New(aurora.WithColors(true))

var (
	RulesEnv   = envutil.GetEnvOrDefault("NEIGHSPOT_RULES", "")
	NetworkEnv = envutil.GetEnvOrDefault("NEIGHSPOT_NETWORK", "")
)

// Options contains the configuration options for tuning the discovery process.
type Options struct {
	Rules     goflags.StringSlice
	RulesFile string
	Network   string

	Concurrency    int
	ProbeTimeoutMs int
	ICMP           bool
	Passive        bool

	Resolve bool
	Verbose bool
	Silent  bool
	NoColor bool
	Version bool
}

// ParseOptions parses the command line flags provided by a user
func ParseOptions() *Options {
	options := &Options{}
	flagSet := goflags.NewFlagSet()

	flagSet.SetDescription(`neighspot finds known devices on the local network by matching neighbor cache entries against MAC address prefixes`)

	flagSet.CreateGroup("input", "Input",
		flagSet.StringSliceVarP(&options.Rules, "rules", "r", nil, "additional prefix=label match rules (comma separated)", goflags.CommaSeparatedStringSliceOptions),
		flagSet.StringVarP(&options.RulesFile, "rules-file", "rf", "", "json file with match rules, replaces the built-in set"),
		flagSet.StringVarP(&options.Network, "network", "n", NetworkEnv, "CIDR to sweep instead of the auto-detected subnet"),
	)

	flagSet.CreateGroup("probes", "Probes",
		flagSet.IntVarP(&options.Concurrency, "concurrency", "c", sweep.MaxConcurrency, "number of concurrent probe workers"),
		flagSet.IntVarP(&options.ProbeTimeoutMs, "probe-timeout", "pt", 200, "probe timeout in milliseconds"),
		flagSet.BoolVar(&options.ICMP, "icmp", false, "probe with raw ICMP echo requests instead of the ping binary (requires privileges)"),
		flagSet.BoolVarP(&options.Passive, "passive", "p", false, "inspect the neighbor cache only, never probe"),
	)

	flagSet.CreateGroup("output", "Output",
		flagSet.BoolVarP(&options.Resolve, "resolve", "rs", false, "annotate matches with their reverse DNS names"),
		flagSet.BoolVarP(&options.Verbose, "verbose", "v", false, "show verbose output"),
		flagSet.BoolVar(&options.Silent, "silent", false, "show only results in output"),
		flagSet.BoolVarP(&options.NoColor, "no-color", "nc", false, "disable output content coloring (ANSI escape codes)"),
		flagSet.BoolVar(&options.Version, "version", false, "show version of the project"),
	)

	if err := flagSet.Parse(); err != nil {
		gologger.Fatal().Msgf("%s\n", err)
	}

	options.configureOutput()

	showBanner()

	if options.Version {
		gologger.Info().Msgf("Current Version: %s\n", version.GetVersion())
		os.Exit(0)
	}

	// rules from the environment append after the flag ones
	if RulesEnv != "" {
		for _, pair := range strings.Split(RulesEnv, ",") {
			if pair = strings.TrimSpace(pair); pair != "" {
				options.Rules = append(options.Rules, pair)
			}
		}
	}

	return options
}

// configureOutput configures the output on the screen
func (options *Options) configureOutput() {
	// If the user desires verbose output, show verbose output
	if options.Verbose {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelVerbose)
	}
	if options.NoColor {
		gologger.DefaultLogger.SetFormatter(formatter.NewCLI(true))
		au = aurora.New(aurora.WithColors(false))
	}
	if options.Silent {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelSilent)
	}
}
