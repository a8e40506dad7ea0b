package core

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default values applied when the settings block omits an option.
const (
	// DefaultMaxFieldLength is the truncation limit applied to sampled
	// values before any matching.
	DefaultMaxFieldLength = 100
)

// DefaultTestPatterns are the placeholder tokens that suppress confirmation
// when exclude_test_data is on.
var DefaultTestPatterns = []string{"test", "demo", "example", "sample", "fake"}

// SensitiveRule describes one category of sensitive data: the field-name
// keywords used for the heuristic phase and the value patterns used for both
// the heuristic and the confirmation phase.
type SensitiveRule struct {
	// Name is the unique rule name, e.g. "手机号"
	Name string

	// FieldKeywords are tokens matched as substrings of column names
	FieldKeywords []string

	// Description of the rule for reports
	Description string

	// Enabled reports whether the rule takes part in classification
	Enabled bool

	// RawPatterns are the authored pattern strings, in declaration order
	RawPatterns []string

	// valuePatterns apply the authored patterns as unanchored searches
	valuePatterns []*regexp.Regexp

	// confirmPatterns apply the same patterns with full-string anchors
	confirmPatterns []*regexp.Regexp
}

// MatchValue reports whether any value pattern matches v under a partial,
// unanchored search. This is the heuristic mode, not confirmation.
func (r *SensitiveRule) MatchValue(v string) bool {
	for _, re := range r.valuePatterns {
		if re.MatchString(v) {
			return true
		}
	}
	return false
}

// ConfirmValue reports whether v fully matches at least one of the rule's
// patterns. The same authored patterns are used as in MatchValue, but with
// implicit start/end anchors added.
func (r *SensitiveRule) ConfirmValue(v string) bool {
	for _, re := range r.confirmPatterns {
		if re.MatchString(v) {
			return true
		}
	}
	return false
}

// Settings bundles the global matching options from the rule document into
// one immutable value threaded through the classifier and validator.
type Settings struct {
	// CaseSensitive controls field-name keyword comparison
	CaseSensitive bool

	// MaxFieldLength is the rune limit values are truncated to before matching
	MaxFieldLength int

	// ExcludeTestData suppresses matching and confirmation for values
	// containing a test pattern token
	ExcludeTestData bool

	// TestPatterns are the placeholder tokens checked case-insensitively
	TestPatterns []string

	// SurfaceUnconfirmed emits Low advisory risk records for field-name-only
	// matches that never confirmed
	SurfaceUnconfirmed bool
}

// RuleCatalog is the validated, immutable rule set loaded once per run.
type RuleCatalog struct {
	rules    []*SensitiveRule
	byName   map[string]*SensitiveRule
	settings Settings
}

// ruleDoc is the YAML shape of a single rule entry.
type ruleDoc struct {
	FieldKeywords []string `yaml:"field_keywords"`
	RegexPatterns []string `yaml:"regex_patterns"`
	Description   string   `yaml:"description"`
}

// settingsDoc is the YAML shape of the settings block. Options that default
// to true are pointers so an absent key is distinguishable from false.
type settingsDoc struct {
	EnabledRules       []string `yaml:"enabled_rules"`
	CaseSensitive      bool     `yaml:"case_sensitive"`
	MaxFieldLength     int      `yaml:"max_field_length"`
	ExcludeTestData    *bool    `yaml:"exclude_test_data"`
	TestPatterns       []string `yaml:"test_patterns"`
	SurfaceUnconfirmed bool     `yaml:"surface_unconfirmed"`
}

type catalogDoc struct {
	SensitiveRules yaml.Node   `yaml:"sensitive_rules"`
	Settings       settingsDoc `yaml:"settings"`
}

// LoadRuleCatalog reads and validates a rule document from a YAML file.
func LoadRuleCatalog(path string) (*RuleCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	return ParseRuleCatalog(data)
}

// ParseRuleCatalog parses and validates a rule document. Every pattern must
// compile and every enabled_rules entry must name a declared rule; otherwise
// a *RuleConfigError is returned and the catalog must not be used.
//
// Rule declaration order is preserved: sensitive_rules is a YAML mapping, and
// the mapping node is walked in document order rather than decoded into a Go
// map.
func ParseRuleCatalog(data []byte) (*RuleCatalog, error) {
	var doc catalogDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, newRuleConfigError("", "malformed rule document", err)
	}

	if doc.SensitiveRules.Kind != 0 && doc.SensitiveRules.Kind != yaml.MappingNode {
		return nil, newRuleConfigError("", "sensitive_rules must be a mapping", nil)
	}

	catalog := &RuleCatalog{
		byName:   make(map[string]*SensitiveRule),
		settings: normalizeSettings(doc.Settings),
	}

	// Mapping node content alternates key, value.
	for i := 0; i+1 < len(doc.SensitiveRules.Content); i += 2 {
		keyNode := doc.SensitiveRules.Content[i]
		valNode := doc.SensitiveRules.Content[i+1]

		name := keyNode.Value
		if _, dup := catalog.byName[name]; dup {
			return nil, newRuleConfigError(name, "duplicate rule name", nil)
		}

		var rd ruleDoc
		if err := valNode.Decode(&rd); err != nil {
			return nil, newRuleConfigError(name, "malformed rule entry", err)
		}

		rule, err := compileRule(name, rd)
		if err != nil {
			return nil, err
		}

		catalog.rules = append(catalog.rules, rule)
		catalog.byName[name] = rule
	}

	if err := catalog.applyEnabledList(doc.Settings.EnabledRules); err != nil {
		return nil, err
	}

	return catalog, nil
}

func compileRule(name string, rd ruleDoc) (*SensitiveRule, error) {
	rule := &SensitiveRule{
		Name:        name,
		Description: rd.Description,
		RawPatterns: rd.RegexPatterns,
	}

	rule.FieldKeywords = append(rule.FieldKeywords, rd.FieldKeywords...)

	for _, p := range rd.RegexPatterns {
		partial, err := regexp.Compile(p)
		if err != nil {
			return nil, newRuleConfigError(name, fmt.Sprintf("pattern %q does not compile", p), err)
		}
		full, err := regexp.Compile(`\A(?:` + p + `)\z`)
		if err != nil {
			return nil, newRuleConfigError(name, fmt.Sprintf("pattern %q does not compile with anchors", p), err)
		}
		rule.valuePatterns = append(rule.valuePatterns, partial)
		rule.confirmPatterns = append(rule.confirmPatterns, full)
	}

	return rule, nil
}

// applyEnabledList marks rules active. An absent enabled_rules list enables
// every declared rule; an entry naming an unknown rule is a config error.
func (c *RuleCatalog) applyEnabledList(enabled []string) error {
	if enabled == nil {
		for _, r := range c.rules {
			r.Enabled = true
		}
		return nil
	}
	for _, name := range enabled {
		rule, ok := c.byName[name]
		if !ok {
			return newRuleConfigError(name, "enabled_rules references unknown rule", nil)
		}
		rule.Enabled = true
	}
	return nil
}

func normalizeSettings(sd settingsDoc) Settings {
	s := Settings{
		CaseSensitive:      sd.CaseSensitive,
		MaxFieldLength:     sd.MaxFieldLength,
		ExcludeTestData:    true,
		TestPatterns:       sd.TestPatterns,
		SurfaceUnconfirmed: sd.SurfaceUnconfirmed,
	}
	if sd.ExcludeTestData != nil {
		s.ExcludeTestData = *sd.ExcludeTestData
	}
	if s.MaxFieldLength <= 0 {
		s.MaxFieldLength = DefaultMaxFieldLength
	}
	if len(s.TestPatterns) == 0 {
		s.TestPatterns = DefaultTestPatterns
	}
	return s
}

// Settings returns the global matching options.
func (c *RuleCatalog) Settings() Settings {
	return c.settings
}

// Rules returns every declared rule in declaration order.
func (c *RuleCatalog) Rules() []*SensitiveRule {
	return c.rules
}

// EnabledRules returns the active rules in declaration order.
func (c *RuleCatalog) EnabledRules() []*SensitiveRule {
	var out []*SensitiveRule
	for _, r := range c.rules {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

// Rule looks up a declared rule by name.
func (c *RuleCatalog) Rule(name string) (*SensitiveRule, bool) {
	r, ok := c.byName[name]
	return r, ok
}

// MatchFieldName returns the names of enabled rules with a field keyword that
// is a substring of the column name, normalized per the case_sensitive
// setting. Result order follows rule declaration order.
func (c *RuleCatalog) MatchFieldName(field string) []string {
	check := field
	if !c.settings.CaseSensitive {
		check = strings.ToLower(field)
	}

	var matched []string
	for _, rule := range c.rules {
		if !rule.Enabled {
			continue
		}
		for _, kw := range rule.FieldKeywords {
			k := kw
			if !c.settings.CaseSensitive {
				k = strings.ToLower(kw)
			}
			if strings.Contains(check, k) {
				matched = append(matched, rule.Name)
				break
			}
		}
	}
	return matched
}

// IsTestData reports whether the value contains one of the configured
// placeholder tokens. The comparison is always case-insensitive.
func (c *RuleCatalog) IsTestData(value string) bool {
	if !c.settings.ExcludeTestData {
		return false
	}
	lower := strings.ToLower(value)
	for _, tok := range c.settings.TestPatterns {
		if strings.Contains(lower, strings.ToLower(tok)) {
			return true
		}
	}
	return false
}

// PrepareValue trims surrounding whitespace and truncates the value to
// max_field_length runes. All matching and confirmation operates on the
// prepared value only.
func (c *RuleCatalog) PrepareValue(value string) string {
	v := strings.TrimSpace(value)
	runes := []rune(v)
	if len(runes) > c.settings.MaxFieldLength {
		return string(runes[:c.settings.MaxFieldLength])
	}
	return v
}
