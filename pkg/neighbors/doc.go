// Package neighbors reads and parses the operating system's neighbor cache
// (the ARP table) into (IPv4, MAC) records.
//
// Parsing is grammar driven so different table formats coexist:
//   - ProcGrammar: /proc/net/arp rows on Linux
//   - NeighGrammar: `ip neigh show` rows
//   - ArpGrammar: `arp -a` output on Windows and BSD/macOS
//
// The parser is deliberately tolerant. Header lines, blank lines and any
// decoration around the address pair are skipped, never errors; only a
// well-formed IP+MAC pair on a line produces a record. Records keep the
// order in which lines were encountered, and MACs leave the parser in
// canonical lowercase colon-separated form.
package neighbors
