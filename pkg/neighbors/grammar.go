package neighbors

import (
	"net"
	"regexp"
	"strconv"
	"strings"

	errorutil "github.com/projectdiscovery/utils/errors"
)

// Grammar recognizes one neighbor-table line format. Its pattern must
// expose exactly two capture groups: the IPv4 dotted-quad and the
// MAC-shaped token (hex groups joined by ":" or "-", 12-17 characters).
type Grammar struct {
	Name    string
	pattern *regexp.Regexp
}

var (
	// ProcGrammar matches /proc/net/arp rows:
	//   192.168.1.1  0x1  0x2  70:3a:cb:2c:88:a6  *  wlan0
	ProcGrammar = Grammar{
		Name:    "procfs",
		pattern: regexp.MustCompile(`^((?:\d{1,3}\.){3}\d{1,3})\s+0x[0-9A-Fa-f]+\s+0x[0-9A-Fa-f]+\s+([0-9A-Fa-f:]{12,17})(?:\s|$)`),
	}

	// NeighGrammar matches `ip neigh show` rows:
	//   192.168.1.50 dev wlan0 lladdr dc:a6:32:aa:bb:cc REACHABLE
	NeighGrammar = Grammar{
		Name:    "ip-neigh",
		pattern: regexp.MustCompile(`^((?:\d{1,3}\.){3}\d{1,3})\s+dev\s+\S+\s+lladdr\s+([0-9A-Fa-f:]{12,17})(?:\s|$)`),
	}

	// ArpGrammar matches `arp -a` rows on Windows and BSD/macOS:
	//   192.168.1.1           aa-bb-cc-dd-ee-ff     dynamic
	//   ? (192.168.1.1) at aa:bb:cc:dd:ee:ff on en0 ifscope [ethernet]
	ArpGrammar = Grammar{
		Name:    "arp",
		pattern: regexp.MustCompile(`(?:^|[^0-9.])((?:\d{1,3}\.){3}\d{1,3})\)?\s+(?:at\s+)?([0-9A-Fa-f:-]{12,17})(?:[^0-9A-Fa-f:-]|$)`),
	}
)

// NewGrammar compiles a custom line grammar. The pattern needs the two
// capture groups described on Grammar.
func NewGrammar(name, pattern string) (Grammar, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Grammar{}, errorutil.NewWithErr(err).Msgf("invalid grammar pattern for %s", name)
	}
	if re.NumSubexp() != 2 {
		return Grammar{}, errorutil.New("grammar %s: want exactly 2 capture groups, got %d", name, re.NumSubexp())
	}
	return Grammar{Name: name, pattern: re}, nil
}

// Extract pulls the raw (ip, mac) token pair out of a line. ok is false
// when the line does not follow this grammar.
func (g Grammar) Extract(line string) (ipStr, macStr string, ok bool) {
	match := g.pattern.FindStringSubmatch(line)
	if len(match) < 3 {
		return "", "", false
	}
	return match[1], match[2], true
}

// canonicalMAC converts a token like "AA-BB-CC-DD-EE-FF" or "0:11:22:33:44:55"
// into a hardware address, zero-padding single-digit groups. Tokens that do
// not split into six 1-2 digit hex groups are rejected.
func canonicalMAC(token string) (net.HardwareAddr, bool) {
	groups := strings.FieldsFunc(token, func(r rune) bool {
		return r == ':' || r == '-'
	})
	if len(groups) != 6 {
		return nil, false
	}

	mac := make(net.HardwareAddr, 0, 6)
	for _, group := range groups {
		if len(group) == 0 || len(group) > 2 {
			return nil, false
		}
		value, err := strconv.ParseUint(group, 16, 8)
		if err != nil {
			return nil, false
		}
		mac = append(mac, byte(value))
	}

	return mac, true
}
