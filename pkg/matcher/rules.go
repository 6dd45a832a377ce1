package matcher

import (
	"os"
	"strings"

	errorutil "github.com/projectdiscovery/utils/errors"
	"github.com/tidwall/gjson"
)

// Device class labels used by the built-in rules.
const (
	LabelGLTechnologies = "GL Technologies"
	LabelRaspberryPi    = "RaspberryPi"
)

// DefaultRules is the built-in rule set: GL.iNet travel routers and the
// Raspberry Pi OUI allocations. Order matters, first match wins.
var DefaultRules = []Rule{
	{Prefix: "94:83:c4", Label: LabelGLTechnologies},
	{Prefix: "28:cd:c1", Label: LabelRaspberryPi},
	{Prefix: "2c:cf:67", Label: LabelRaspberryPi},
	{Prefix: "88:a2:9e", Label: LabelRaspberryPi},
	{Prefix: "8c:1f:64:34:a", Label: LabelRaspberryPi},
	{Prefix: "b8:27:eb", Label: LabelRaspberryPi},
	{Prefix: "d8:3a:dd", Label: LabelRaspberryPi},
	{Prefix: "dc:a6:32", Label: LabelRaspberryPi},
	{Prefix: "e4:5f:01", Label: LabelRaspberryPi},
	{Prefix: "f0:40:af:9", Label: LabelRaspberryPi},
}

// ParseRules converts "prefix=label" pairs (the -rules flag and the
// NEIGHSPOT_RULES variable) into rules, preserving declaration order.
func ParseRules(pairs []string) ([]Rule, error) {
	var rules []Rule

	for _, pair := range pairs {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		prefix, label, found := strings.Cut(pair, "=")
		if !found || strings.TrimSpace(prefix) == "" || strings.TrimSpace(label) == "" {
			return nil, errorutil.New("invalid rule %q: want prefix=label", pair)
		}

		rules = append(rules, Rule{
			Prefix: strings.TrimSpace(prefix),
			Label:  strings.TrimSpace(label),
		})
	}

	return rules, nil
}

// LoadRulesFile reads rules from a JSON file, either a top-level array or
// an object with a "rules" array. Document order is preserved so the
// first-match semantics stay deterministic.
func LoadRulesFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("could not read rules file %s", path)
	}

	parsed := gjson.ParseBytes(data)
	list := parsed.Get("rules")
	if !list.Exists() && parsed.IsArray() {
		list = parsed
	}
	if !list.IsArray() {
		return nil, errorutil.New("rules file %s: want a JSON array or an object with a \"rules\" array", path)
	}

	var rules []Rule
	var parseErr error
	list.ForEach(func(key, value gjson.Result) bool {
		prefix := value.Get("prefix").String()
		label := value.Get("label").String()
		if prefix == "" || label == "" {
			parseErr = errorutil.New("rules file %s: entry %s is missing prefix or label", path, value.Raw)
			return false
		}
		rules = append(rules, Rule{Prefix: prefix, Label: label})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return rules, nil
}
