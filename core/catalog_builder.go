package core

// CatalogBuilder provides a fluent interface for assembling rule catalogs in
// code, mainly for the default catalog and for tests.
type CatalogBuilder struct {
	rules    []builderRule
	enabled  []string
	settings Settings
}

type builderRule struct {
	name        string
	keywords    []string
	patterns    []string
	description string
}

// NewCatalogBuilder creates a builder preloaded with the default settings.
func NewCatalogBuilder() *CatalogBuilder {
	return &CatalogBuilder{
		settings: Settings{
			MaxFieldLength:  DefaultMaxFieldLength,
			ExcludeTestData: true,
			TestPatterns:    DefaultTestPatterns,
		},
	}
}

// AddRule declares a rule with its field keywords and value patterns.
func (b *CatalogBuilder) AddRule(name, description string, keywords []string, patterns ...string) *CatalogBuilder {
	b.rules = append(b.rules, builderRule{
		name:        name,
		keywords:    keywords,
		patterns:    patterns,
		description: description,
	})
	return b
}

// Enable activates the named rules. When never called, every declared rule is
// active.
func (b *CatalogBuilder) Enable(names ...string) *CatalogBuilder {
	b.enabled = append(b.enabled, names...)
	return b
}

// WithSettings replaces the global matching options.
func (b *CatalogBuilder) WithSettings(s Settings) *CatalogBuilder {
	if s.MaxFieldLength <= 0 {
		s.MaxFieldLength = DefaultMaxFieldLength
	}
	if len(s.TestPatterns) == 0 {
		s.TestPatterns = DefaultTestPatterns
	}
	b.settings = s
	return b
}

// Build validates and compiles the catalog, with the same failure modes as
// ParseRuleCatalog.
func (b *CatalogBuilder) Build() (*RuleCatalog, error) {
	catalog := &RuleCatalog{
		byName:   make(map[string]*SensitiveRule),
		settings: b.settings,
	}

	for _, br := range b.rules {
		if _, dup := catalog.byName[br.name]; dup {
			return nil, newRuleConfigError(br.name, "duplicate rule name", nil)
		}
		rule, err := compileRule(br.name, ruleDoc{
			FieldKeywords: br.keywords,
			RegexPatterns: br.patterns,
			Description:   br.description,
		})
		if err != nil {
			return nil, err
		}
		catalog.rules = append(catalog.rules, rule)
		catalog.byName[br.name] = rule
	}

	if err := catalog.applyEnabledList(b.enabled); err != nil {
		return nil, err
	}
	return catalog, nil
}

// MustBuild is Build for statically known-good catalogs; it panics on error.
func (b *CatalogBuilder) MustBuild() *RuleCatalog {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultCatalog returns the built-in rule set used when no rule file is
// configured.
func DefaultCatalog() *RuleCatalog {
	return NewCatalogBuilder().
		AddRule("手机号", "中国手机号",
			[]string{"phone", "mobile", "telephone"},
			`^1[3-9]\d{9}$`).
		AddRule("邮箱", "电子邮箱地址",
			[]string{"email", "mail"},
			`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`).
		AddRule("身份证号", "中国居民身份证号",
			[]string{"id_card", "idcard", "identity"},
			`^\d{17}[\dXx]$`).
		MustBuild()
}
