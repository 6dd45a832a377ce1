package neighbors

import (
	"bufio"
	"net"
	"strings"
)

// Record is one parsed neighbor-cache entry.
type Record struct {
	IP  net.IP
	MAC net.HardwareAddr
}

// Parser converts raw neighbor-cache text into records using an ordered
// set of line grammars.
type Parser struct {
	grammars []Grammar
}

// NewParser creates a parser for the given grammars. With no arguments it
// uses all built-in grammars, most specific first.
func NewParser(grammars ...Grammar) *Parser {
	if len(grammars) == 0 {
		grammars = []Grammar{ProcGrammar, NeighGrammar, ArpGrammar}
	}
	return &Parser{grammars: grammars}
}

// Parse scans raw text line by line and returns the records it can
// extract, preserving line order. Lines matching no grammar, malformed
// address pairs, and all-zero or broadcast hardware addresses are
// skipped; there is no error path.
func (p *Parser) Parse(raw string) []Record {
	var records []Record

	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		for _, grammar := range p.grammars {
			ipStr, macStr, ok := grammar.Extract(line)
			if !ok {
				continue
			}

			if record, valid := makeRecord(ipStr, macStr); valid {
				records = append(records, record)
			}
			// The line followed this grammar; a bad pair inside it does
			// not make it a candidate for the remaining grammars.
			break
		}
	}

	return records
}

func makeRecord(ipStr, macStr string) (Record, bool) {
	ip := net.ParseIP(ipStr)
	if ip == nil || ip.To4() == nil {
		return Record{}, false
	}

	mac, ok := canonicalMAC(macStr)
	if !ok {
		return Record{}, false
	}

	// Incomplete and broadcast entries carry no reachable device.
	switch mac.String() {
	case "00:00:00:00:00:00", "ff:ff:ff:ff:ff:ff":
		return Record{}, false
	}

	return Record{IP: ip.To4(), MAC: mac}, true
}
