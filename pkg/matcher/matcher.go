package matcher

import (
	"strings"

	errorutil "github.com/projectdiscovery/utils/errors"
)

// Rule maps a hardware address prefix to a device class label.
// The prefix may use any separator style; only its hex digits matter.
type Rule struct {
	Prefix string `json:"prefix"`
	Label  string `json:"label"`
}

// Prefix length bounds in hex digits after normalization. A full MAC is
// 12 digits; anything under 4 matches far too much to be a useful rule.
const (
	minPrefixDigits = 4
	maxPrefixDigits = 12
)

// Matcher classifies MAC addresses against an ordered rule list.
// The rule list is immutable after construction; rules are tried in
// declaration order and the first matching rule wins.
type Matcher struct {
	rules      []Rule
	normalized []string
}

// New creates a Matcher from the given rules, preserving their order.
// Rules whose prefix does not normalize to 4-12 hex digits are rejected.
func New(rules []Rule) (*Matcher, error) {
	m := &Matcher{
		rules:      make([]Rule, 0, len(rules)),
		normalized: make([]string, 0, len(rules)),
	}

	for _, rule := range rules {
		normalized := Normalize(rule.Prefix)
		if len(normalized) < minPrefixDigits || len(normalized) > maxPrefixDigits {
			return nil, errorutil.New("invalid prefix %q for label %q: want %d-%d hex digits, got %d",
				rule.Prefix, rule.Label, minPrefixDigits, maxPrefixDigits, len(normalized))
		}
		m.rules = append(m.rules, rule)
		m.normalized = append(m.normalized, normalized)
	}

	return m, nil
}

// Rules returns a copy of the configured rules in declaration order.
func (m *Matcher) Rules() []Rule {
	rules := make([]Rule, len(m.rules))
	copy(rules, m.rules)
	return rules
}

// Classify returns the label of the first rule whose prefix matches the
// given MAC, in declaration order. The second return is false when no
// rule matches. Malformed MAC strings normalize to something that
// matches nothing; there is no error path.
func (m *Matcher) Classify(mac string) (string, bool) {
	normalized := Normalize(mac)
	if normalized == "" {
		return "", false
	}

	for i, prefix := range m.normalized {
		if strings.HasPrefix(normalized, prefix) {
			return m.rules[i].Label, true
		}
	}

	return "", false
}

// Normalize strips every character that is not a hex digit and lowercases
// the remainder, so separator style (":", "-", none) never affects
// comparisons. Pure function, no error conditions.
func Normalize(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r >= 'a' && r <= 'f':
			sb.WriteRune(r)
		case r >= 'A' && r <= 'F':
			sb.WriteRune(r + ('a' - 'A'))
		}
	}

	return sb.String()
}

// Matches reports whether the normalized MAC starts with the normalized
// prefix. Both sides go through Normalize, so "28-CD-C1" and "28:cd:c1"
// are interchangeable.
func Matches(mac, prefix string) bool {
	return strings.HasPrefix(Normalize(mac), Normalize(prefix))
}
